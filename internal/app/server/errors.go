package server

import (
	"errors"

	"github.com/cashplay-space/cashplay/internal/engine"
	"github.com/cashplay-space/cashplay/internal/matchmaking"
	"github.com/cashplay-space/cashplay/internal/settlement"
)

// Client-facing status strings. No internal error detail crosses the wire.
var (
	ErrStatusIllegalMove       string = "ILLEGAL_MOVE"
	ErrStatusNotYourTurn       string = "NOT_YOUR_TURN"
	ErrStatusGameOver          string = "GAME_OVER"
	ErrStatusUnknownGameKind   string = "UNKNOWN_GAME_KIND"
	ErrStatusAlreadyQueued     string = "ALREADY_QUEUED"
	ErrStatusAlreadyConnected  string = "ALREADY_CONNECTED"
	ErrStatusInsufficientFunds string = "INSUFFICIENT_FUNDS"
	ErrStatusSettlementFailed  string = "SETTLEMENT_FAILED"
	ErrStatusNoActiveMatch     string = "NO_ACTIVE_MATCH"
	ErrStatusInvalidPayload    string = "INVALID_PAYLOAD"
	ErrStatusInternal          string = "INTERNAL_ERROR"
)

func statusForError(err error) string {
	switch {
	case errors.Is(err, engine.ErrNotYourTurn):
		return ErrStatusNotYourTurn
	case errors.Is(err, engine.ErrIllegalMove), errors.Is(err, engine.ErrUnknownPlayer):
		return ErrStatusIllegalMove
	case errors.Is(err, engine.ErrGameOver):
		return ErrStatusGameOver
	case errors.Is(err, engine.ErrUnknownKind), errors.Is(err, matchmaking.ErrUnknownGameKind):
		return ErrStatusUnknownGameKind
	case errors.Is(err, matchmaking.ErrAlreadyQueued):
		return ErrStatusAlreadyQueued
	case errors.Is(err, settlement.ErrInsufficientFunds):
		return ErrStatusInsufficientFunds
	default:
		return ErrStatusInternal
	}
}
