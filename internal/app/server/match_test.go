package server

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashplay-space/cashplay/internal/engine"
	"github.com/cashplay-space/cashplay/internal/settlement"
)

type recordedTx struct {
	userID string
	txType string
	amount int64
}

// memLedger is a minimal in-memory settlement.Ledger for match-loop tests.
type memLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	txs      []recordedTx
	results  int
}

func newMemLedger(balances map[string]int64) *memLedger {
	l := &memLedger{balances: make(map[string]int64)}
	for id, b := range balances {
		l.balances[id] = b
	}
	return l
}

func (l *memLedger) RunAtomic(ctx context.Context, fn func(tx settlement.Ledger) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(lockedLedger{l})
}

func (l *memLedger) Balance(ctx context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return lockedLedger{l}.Balance(ctx, userID)
}

func (l *memLedger) Debit(ctx context.Context, userID string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return lockedLedger{l}.Debit(ctx, userID, amount)
}

func (l *memLedger) Credit(ctx context.Context, userID string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return lockedLedger{l}.Credit(ctx, userID, amount)
}

func (l *memLedger) RecordTransaction(ctx context.Context, userID, txType string, amount int64, gameResultID *uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return lockedLedger{l}.RecordTransaction(ctx, userID, txType, amount, gameResultID)
}

func (l *memLedger) RecordGameResult(ctx context.Context, winnerID *string, pot, fee int64) (uint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return lockedLedger{l}.RecordGameResult(ctx, winnerID, pot, fee)
}

// lockedLedger runs inside RunAtomic with the mutex already held.
type lockedLedger struct{ l *memLedger }

func (t lockedLedger) RunAtomic(ctx context.Context, fn func(tx settlement.Ledger) error) error {
	return fn(t)
}

func (t lockedLedger) Balance(_ context.Context, userID string) (int64, error) {
	return t.l.balances[userID], nil
}

func (t lockedLedger) Debit(_ context.Context, userID string, amount int64) error {
	if t.l.balances[userID] < amount {
		return settlement.ErrInsufficientFunds
	}
	t.l.balances[userID] -= amount
	return nil
}

func (t lockedLedger) Credit(_ context.Context, userID string, amount int64) error {
	t.l.balances[userID] += amount
	return nil
}

func (t lockedLedger) RecordTransaction(_ context.Context, userID, txType string, amount int64, _ *uint) error {
	t.l.txs = append(t.l.txs, recordedTx{userID, txType, amount})
	return nil
}

func (t lockedLedger) RecordGameResult(_ context.Context, _ *string, _, _ int64) (uint, error) {
	t.l.results++
	return uint(t.l.results), nil
}

func (l *memLedger) transactionsOfType(txType string) []recordedTx {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []recordedTx
	for _, tx := range l.txs {
		if tx.txType == txType {
			out = append(out, tx)
		}
	}
	return out
}

func (l *memLedger) balance(userID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID]
}

func (l *memLedger) resultCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.results
}

func startTestMatch(t *testing.T, ledger *memLedger, kind engine.Kind, ids []string, pot int64) (*Match, *int) {
	t.Helper()
	eng, err := engine.New(kind, ids, engine.Config{
		DiceRace: engine.DiceRaceConfig{Rand: rand.New(rand.NewSource(1))},
	})
	require.NoError(t, err)

	players := make([]*player, len(ids))
	for i, id := range ids {
		players[i] = newPlayer(id, nil)
	}
	settler := settlement.NewCoordinator(ledger, settlement.Config{FeeBps: 2500})

	ends := 0
	m := newMatch(kind, eng, players, pot/int64(len(ids)), pot, time.Minute, settler, func(*Match) {
		ends++
	})
	go m.start()
	t.Cleanup(m.end)
	return m, &ends
}

func waitEnded(t *testing.T, m *Match) {
	t.Helper()
	require.Eventually(t, m.isEnded, time.Second, 5*time.Millisecond)
}

func TestForfeitWhenOneRemains(t *testing.T) {
	ledger := newMemLedger(map[string]int64{"a": 0, "b": 0, "c": 0, "d": 0})
	m, ends := startTestMatch(t, ledger, engine.DiceRace, []string{"a", "b", "c", "d"}, 2000)

	m.submitLeave("a")
	m.submitLeave("b")
	assert.False(t, m.isEnded(), "two live players keep the match running")

	m.submitLeave("c")
	waitEnded(t, m)

	// Exactly one settlement: d takes the pot minus the fee.
	wins := ledger.transactionsOfType(settlement.TxWin)
	require.Len(t, wins, 1)
	assert.Equal(t, "d", wins[0].userID)
	assert.Equal(t, int64(1500), wins[0].amount)
	assert.Equal(t, int64(1500), ledger.balance("d"))
	assert.Equal(t, 1, *ends)
}

func TestDiscardWhenNoneRemain(t *testing.T) {
	ledger := newMemLedger(map[string]int64{"a": 0, "b": 0})
	m, ends := startTestMatch(t, ledger, engine.TicTacToe, []string{"a", "b"}, 1000)

	m.submitLeave("a")
	m.submitLeave("b")
	waitEnded(t, m)

	// Silent discard: no settlement of any kind.
	assert.Empty(t, ledger.transactionsOfType(settlement.TxWin))
	assert.Equal(t, 0, ledger.resultCount())
	assert.Equal(t, 1, *ends)
}

func TestWinSettlesOnce(t *testing.T) {
	ledger := newMemLedger(map[string]int64{"a": 0, "b": 0})
	m, _ := startTestMatch(t, ledger, engine.TicTacToe, []string{"a", "b"}, 1000)

	for _, step := range []struct {
		player string
		cell   int
	}{
		{"a", 0}, {"b", 3}, {"a", 1}, {"b", 4}, {"a", 2},
	} {
		m.submitMove(step.player, engine.Move{Cell: step.cell})
	}
	waitEnded(t, m)

	wins := ledger.transactionsOfType(settlement.TxWin)
	require.Len(t, wins, 1)
	assert.Equal(t, "a", wins[0].userID)
	assert.Equal(t, int64(750), wins[0].amount)
	assert.Equal(t, 1, ledger.resultCount())

	// The match is terminal and discarded: later submissions are dropped.
	m.submitMove("b", engine.Move{Cell: 5})
	assert.Len(t, ledger.transactionsOfType(settlement.TxWin), 1)
}

func TestLeaveAfterTerminalDoesNotSettleAgain(t *testing.T) {
	ledger := newMemLedger(map[string]int64{"a": 0, "b": 0})
	m, _ := startTestMatch(t, ledger, engine.TicTacToe, []string{"a", "b"}, 1000)

	for _, step := range []struct {
		player string
		cell   int
	}{
		{"a", 0}, {"b", 3}, {"a", 1}, {"b", 4}, {"a", 2},
	} {
		m.submitMove(step.player, engine.Move{Cell: step.cell})
	}
	waitEnded(t, m)
	m.submitLeave("b")

	assert.Len(t, ledger.transactionsOfType(settlement.TxWin), 1)
	assert.Equal(t, 1, ledger.resultCount())
}

func TestIdleCancelRefundsLivePlayers(t *testing.T) {
	ledger := newMemLedger(map[string]int64{"a": 0, "b": 0})
	eng, err := engine.NewTicTacToe([]string{"a", "b"})
	require.NoError(t, err)
	settler := settlement.NewCoordinator(ledger, settlement.Config{FeeBps: 2500})
	m := newMatch(engine.TicTacToe, eng,
		[]*player{newPlayer("a", nil), newPlayer("b", nil)},
		500, 1000, 20*time.Millisecond, settler, nil)
	go m.start()
	t.Cleanup(m.end)

	waitEnded(t, m)

	refunds := ledger.transactionsOfType(settlement.TxRefund)
	require.Len(t, refunds, 2)
	assert.Equal(t, int64(500), ledger.balance("a"))
	assert.Equal(t, int64(500), ledger.balance("b"))
	assert.Empty(t, ledger.transactionsOfType(settlement.TxWin))
}
