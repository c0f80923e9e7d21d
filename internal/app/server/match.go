package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cashplay-space/cashplay/internal/engine"
	"github.com/cashplay-space/cashplay/internal/settlement"
	"github.com/cashplay-space/cashplay/pkg/logging"
)

type command struct {
	playerID string
	mv       engine.Move
	leave    bool
	cancel   bool
}

// Match is one paid game in progress. All state mutation happens on the
// single goroutine draining cmdCh, so moves, disconnects and settlement for
// one match never interleave.
type Match struct {
	id      string
	kind    engine.Kind
	eng     engine.Engine
	players []*player
	// live is the still-playing subset; the roster in players never shrinks.
	live  map[string]*player
	stake int64
	// pot is fixed at formation and immutable for the match's lifetime.
	pot int64

	cmdCh         chan command
	done          chan struct{}
	timer         *time.Timer
	cancelTimeout time.Duration

	settler *settlement.Coordinator
	onEnd   func(*Match)

	ended bool
	mu    sync.Mutex
}

func newMatch(
	kind engine.Kind,
	eng engine.Engine,
	players []*player,
	stake, pot int64,
	cancelTimeout time.Duration,
	settler *settlement.Coordinator,
	onEnd func(*Match),
) *Match {
	m := &Match{
		id:            uuid.NewString(),
		kind:          kind,
		eng:           eng,
		players:       players,
		live:          make(map[string]*player, len(players)),
		stake:         stake,
		pot:           pot,
		cmdCh:         make(chan command),
		done:          make(chan struct{}),
		cancelTimeout: cancelTimeout,
		settler:       settler,
		onEnd:         onEnd,
	}
	for _, p := range players {
		m.live[p.id] = p
	}
	return m
}

func (m *Match) start() {
	// Refund and discard if the match sits idle too long.
	m.setTimer(m.cancelTimeout)
	for {
		select {
		case <-m.done:
			return
		case cmd := <-m.cmdCh:
			switch {
			case cmd.cancel:
				m.handleCancel()
			case cmd.leave:
				m.handleLeave(cmd.playerID)
			default:
				m.handleMove(cmd.playerID, cmd.mv)
			}
		}
	}
}

func (m *Match) submitMove(playerID string, mv engine.Move) {
	select {
	case m.cmdCh <- command{playerID: playerID, mv: mv}:
	case <-m.done:
	}
}

func (m *Match) submitLeave(playerID string) {
	select {
	case m.cmdCh <- command{playerID: playerID, leave: true}:
	case <-m.done:
	}
}

func (m *Match) handleMove(playerID string, mv engine.Move) {
	p, ok := m.live[playerID]
	if !ok {
		return
	}
	if err := m.eng.Apply(playerID, mv); err != nil {
		// Recoverable: reported to the acting participant only.
		p.writeJSON(event{Type: eventError, Data: errorData{Reason: statusForError(err)}})
		return
	}
	m.setTimer(m.cancelTimeout)
	m.broadcast(event{Type: eventGameStateUpdate, Data: m.eng.State()})

	if !m.eng.Over() {
		return
	}
	if winner, won := m.eng.Winner(); won {
		m.settleAndFinish(winner, false)
		return
	}
	if err := m.settler.SettleDraw(context.Background(), m.id, m.pot); err != nil {
		logging.Error("draw settlement failed", zap.String("match_id", m.id), zap.Error(err))
	}
	m.broadcast(event{Type: eventGameOver, Data: gameOverData{State: m.eng.State(), Draw: true}})
	m.end()
}

func (m *Match) handleLeave(playerID string) {
	p, ok := m.live[playerID]
	if !ok {
		return
	}
	delete(m.live, playerID)
	p.detach()
	if err := m.eng.Leave(playerID); err != nil {
		logging.Error("engine leave failed",
			zap.String("match_id", m.id),
			zap.String("player_id", playerID),
			zap.Error(err),
		)
	}
	if m.eng.Over() {
		// Terminal state was already settled; this is bookkeeping only.
		return
	}
	m.broadcast(event{Type: eventPlayerDisconnected, Data: disconnectData{PlayerID: playerID}})
	logging.Info("player left match",
		zap.String("match_id", m.id),
		zap.String("player_id", playerID),
		zap.Int("remaining", len(m.live)),
	)

	switch len(m.live) {
	case 0:
		// Nobody left to pay out; discard silently.
		m.end()
	case 1:
		var sole string
		for id := range m.live {
			sole = id
		}
		m.settleAndFinish(sole, true)
	default:
		// The turn may have shifted to another participant.
		m.broadcast(event{Type: eventGameStateUpdate, Data: m.eng.State()})
	}
}

// handleCancel fires when the idle timer runs out: stakes go back to the
// live participants and the match is discarded.
func (m *Match) handleCancel() {
	ids := make([]string, 0, len(m.live))
	for id := range m.live {
		ids = append(ids, id)
	}
	if len(ids) > 0 {
		if err := m.settler.RefundEntryFees(context.Background(), m.id, ids, m.stake); err != nil {
			logging.Error("refund failed", zap.String("match_id", m.id), zap.Error(err))
		}
	}
	m.broadcast(event{Type: eventGameCancelled, Data: cancelledData{Reason: "match cancelled for inactivity, stakes refunded"}})
	logging.Info("match cancelled for inactivity", zap.String("match_id", m.id))
	m.end()
}

func (m *Match) settleAndFinish(winnerID string, forfeit bool) {
	ctx := context.Background()
	var (
		newBalance int64
		err        error
	)
	if forfeit {
		newBalance, err = m.settler.SettleForfeit(ctx, m.id, winnerID, m.pot)
	} else {
		newBalance, err = m.settler.SettleWin(ctx, m.id, winnerID, m.pot)
	}
	if err != nil {
		// The atomic unit rolled back; nothing was half-applied. Surface a
		// generic failure and discard the match.
		logging.Error("settlement failed",
			zap.String("match_id", m.id),
			zap.String("winner_id", winnerID),
			zap.Error(err),
		)
		m.broadcast(event{Type: eventError, Data: errorData{Reason: ErrStatusSettlementFailed}})
		m.end()
		return
	}
	m.broadcast(event{Type: eventGameOver, Data: gameOverData{
		State:      m.eng.State(),
		Winner:     winnerID,
		NewBalance: &newBalance,
		Forfeit:    forfeit,
	}})
	m.end()
}

func (m *Match) broadcast(msg event) {
	for _, p := range m.players {
		if err := p.writeJSON(msg); err != nil {
			logging.Error("couldn't notify player",
				zap.String("match_id", m.id),
				zap.String("player_id", p.id),
			)
		}
	}
}

func (m *Match) end() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ended {
		return
	}
	m.ended = true
	close(m.done)
	if m.timer != nil {
		m.timer.Stop()
	}
	for _, p := range m.players {
		p.close()
	}
	if m.onEnd != nil {
		m.onEnd(m)
	}
	logging.Info("match ended", zap.String("match_id", m.id), zap.String("game_kind", string(m.kind)))
}

func (m *Match) isEnded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended
}

// setTimer arms or re-arms the idle cancel timer. The fire is routed
// through cmdCh so cancellation is serialized with moves.
func (m *Match) setTimer(d time.Duration) {
	if d <= 0 {
		return
	}
	if m.timer != nil {
		m.timer.Reset(d)
		return
	}
	m.timer = time.NewTimer(d)
	go func() {
		select {
		case <-m.timer.C:
			select {
			case m.cmdCh <- command{cancel: true}:
			case <-m.done:
			}
		case <-m.done:
		}
	}()
}
