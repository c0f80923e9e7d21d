package server

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/cashplay-space/cashplay/internal/engine"
	"github.com/cashplay-space/cashplay/internal/settlement"
	"github.com/cashplay-space/cashplay/pkg/logging"
)

// handlePlayerJoin queues the freshly connected participant and attempts to
// form a match from the kind's pool.
func (s *server) handlePlayerJoin(p *player, kind engine.Kind) error {
	if _, err := s.queues.Enqueue(kind, p.id); err != nil {
		return err
	}
	logging.Info("player queued",
		zap.String("player_id", p.id),
		zap.String("game_kind", string(kind)),
	)
	s.broadcastQueueUpdate(kind)
	s.tryFormMatch(kind)
	return nil
}

// Handler for when a user connection closes.
func (s *server) handlePlayerDisconnect(p *player) {
	s.unregister(p)
	for _, kind := range s.queues.RemoveAll(p.id) {
		s.broadcastQueueUpdate(kind)
	}
	if v, ok := s.byPlayer.Load(p.id); ok {
		v.(*Match).submitLeave(p.id)
		s.byPlayer.Delete(p.id)
	}
	logging.Info("player disconnected", zap.String("player_id", p.id))
}

// Handler for when a user sends a message.
func (s *server) handleMessage(p *player, payload payload) {
	switch payload.Type {
	case "move":
		v, ok := s.byPlayer.Load(p.id)
		if !ok {
			p.writeJSON(event{Type: eventError, Data: errorData{Reason: ErrStatusNoActiveMatch}})
			return
		}
		mv := engine.Move{UCI: payload.Data["uci"]}
		if raw, ok := payload.Data["cell"]; ok {
			cell, err := strconv.Atoi(raw)
			if err != nil {
				p.writeJSON(event{Type: eventError, Data: errorData{Reason: ErrStatusInvalidPayload}})
				return
			}
			mv.Cell = cell
		}
		v.(*Match).submitMove(p.id, mv)
	default:
		logging.Info("invalid payload type", zap.String("type", payload.Type))
	}
}

// tryFormMatch pops a full batch from the kind's queue, collects entry fees
// for it and starts the match. Queue slice and fund check form one critical
// section; an underfunded batch goes back to the front untouched.
func (s *server) tryFormMatch(kind engine.Kind) {
	required := s.config.requiredPlayers(kind)
	var pot int64
	batch, formed, err := s.queues.FormMatch(kind, required, func(ids []string) error {
		collected, err := s.settler.CollectEntryFees(context.Background(), ids, s.config.StakeMinor)
		if err != nil {
			return err
		}
		pot = collected
		return nil
	})
	if err != nil {
		if errors.Is(err, settlement.ErrInsufficientFunds) {
			logging.Info("batch lacks funds, returned to queue",
				zap.String("game_kind", string(kind)),
				zap.Error(err),
			)
			s.notifyQueued(kind, event{Type: eventGameCancelled, Data: cancelledData{
				Reason: "not every player has sufficient balance",
			}})
			return
		}
		logging.Error("match formation failed", zap.String("game_kind", string(kind)), zap.Error(err))
		return
	}
	if !formed {
		return
	}
	s.createMatch(kind, batch, pot)
}

func (s *server) createMatch(kind engine.Kind, ids []string, pot int64) {
	eng, err := engine.New(kind, ids, engine.Config{DiceRace: s.config.DiceRace})
	if err != nil {
		// Fees are already collected; hand them back before bailing out.
		logging.Error("engine construction failed", zap.String("game_kind", string(kind)), zap.Error(err))
		if rerr := s.settler.RefundEntryFees(context.Background(), "", ids, s.config.StakeMinor); rerr != nil {
			logging.Error("refund after failed construction failed", zap.Error(rerr))
		}
		return
	}

	players := make([]*player, 0, len(ids))
	var dropped []string
	s.mu.Lock()
	for _, id := range ids {
		if p, ok := s.conns[id]; ok {
			players = append(players, p)
		} else {
			// Disconnected between debit and formation; folded right after start.
			players = append(players, newPlayer(id, nil))
			dropped = append(dropped, id)
		}
	}
	s.mu.Unlock()

	m := newMatch(kind, eng, players, s.config.StakeMinor, pot, s.config.CancelTimeout, s.settler, s.removeMatch)
	s.matches.Store(m.id, m)
	for _, id := range ids {
		s.byPlayer.Store(id, m)
	}
	go m.start()

	m.broadcast(event{Type: eventGameStart, Data: eng.State()})
	logging.Info("match started",
		zap.String("match_id", m.id),
		zap.String("game_kind", string(kind)),
		zap.Strings("players", ids),
		zap.Int64("pot", pot),
	)
	for _, id := range dropped {
		m.submitLeave(id)
	}
}

func (s *server) removeMatch(m *Match) {
	s.matches.Delete(m.id)
	for _, p := range m.players {
		s.byPlayer.CompareAndDelete(p.id, m)
	}
}

// broadcastQueueUpdate tells every queued participant of the kind how many
// are waiting, not just the newest entrant.
func (s *server) broadcastQueueUpdate(kind engine.Kind) {
	waiting := s.queues.Waiting(kind)
	msg := event{Type: eventQueueUpdate, Data: queueUpdateData{
		GameKind: string(kind),
		Count:    len(waiting),
		Required: s.config.requiredPlayers(kind),
	}}
	s.writeToAll(waiting, msg)
}

func (s *server) notifyQueued(kind engine.Kind, msg event) {
	s.writeToAll(s.queues.Waiting(kind), msg)
}

func (s *server) writeToAll(ids []string, msg event) {
	s.mu.Lock()
	players := make([]*player, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.conns[id]; ok {
			players = append(players, p)
		}
	}
	s.mu.Unlock()
	for _, p := range players {
		if err := p.writeJSON(msg); err != nil {
			logging.Error("couldn't notify queued player", zap.String("player_id", p.id))
		}
	}
}
