package server

import (
	"sync"

	"github.com/gorilla/websocket"
)

// player binds a verified participant id to its live connection. The mutex
// serializes writes; a detached player swallows them.
type player struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func newPlayer(id string, conn *websocket.Conn) *player {
	return &player{id: id, conn: conn}
}

func (p *player) writeJSON(msg any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	return p.conn.WriteJSON(msg)
}

func (p *player) detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn = nil
}

func (p *player) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
