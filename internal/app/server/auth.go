package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// auth validates the bearer token and extracts the participant id. The
// identity provider signs tokens with the shared HS256 secret; the core
// trusts the subject claim as a stable key.
func (s *server) auth(r *http.Request) (string, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		// Browser websocket clients can't set headers.
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", fmt.Errorf("no authorization")
	}

	validToken, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JwtSecret), nil
	})
	if err != nil || !validToken.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	mapClaims, ok := validToken.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid map claims")
	}
	v, ok := mapClaims["sub"]
	if !ok {
		return "", fmt.Errorf("user id not found")
	}
	userId, ok := v.(string)
	if !ok || userId == "" {
		return "", fmt.Errorf("invalid user id")
	}
	return userId, nil
}
