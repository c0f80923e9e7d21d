package matchmaking

import (
	"errors"
	"testing"

	"github.com/cashplay-space/cashplay/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueues() *Queues {
	return NewQueues(engine.DiceRace, engine.Chess, engine.TicTacToe)
}

func TestEnqueueUnknownKind(t *testing.T) {
	q := newTestQueues()
	_, err := q.Enqueue(engine.Kind("backgammon"), "a")
	assert.ErrorIs(t, err, ErrUnknownGameKind)
}

func TestEnqueueReportsLength(t *testing.T) {
	q := newTestQueues()
	n, err := q.Enqueue(engine.DiceRace, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = q.Enqueue(engine.DiceRace, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSingleQueueMembership(t *testing.T) {
	q := newTestQueues()
	_, err := q.Enqueue(engine.DiceRace, "a")
	require.NoError(t, err)

	_, err = q.Enqueue(engine.DiceRace, "a")
	assert.ErrorIs(t, err, ErrAlreadyQueued)
	_, err = q.Enqueue(engine.Chess, "a")
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestFormMatchFIFO(t *testing.T) {
	q := newTestQueues()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_, err := q.Enqueue(engine.DiceRace, id)
		require.NoError(t, err)
	}

	batch, formed, err := q.FormMatch(engine.DiceRace, 4, func([]string) error { return nil })
	require.NoError(t, err)
	assert.True(t, formed)
	assert.Equal(t, []string{"a", "b", "c", "d"}, batch)
	assert.Equal(t, []string{"e"}, q.Waiting(engine.DiceRace))
}

func TestFormMatchNotEnoughPlayers(t *testing.T) {
	q := newTestQueues()
	_, err := q.Enqueue(engine.Chess, "a")
	require.NoError(t, err)

	batch, formed, err := q.FormMatch(engine.Chess, 2, func([]string) error {
		t.Fatal("collect must not run for a short queue")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, formed)
	assert.Nil(t, batch)
	assert.Equal(t, []string{"a"}, q.Waiting(engine.Chess))
}

func TestFormMatchRollsBackToFront(t *testing.T) {
	q := newTestQueues()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_, err := q.Enqueue(engine.DiceRace, id)
		require.NoError(t, err)
	}

	broke := errors.New("insufficient funds")
	batch, formed, err := q.FormMatch(engine.DiceRace, 4, func(ids []string) error {
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
		return broke
	})
	assert.ErrorIs(t, err, broke)
	assert.False(t, formed)
	assert.Nil(t, batch)
	// Full rollback: the batch is back at the front, order preserved.
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, q.Waiting(engine.DiceRace))
}

func TestRemoveAll(t *testing.T) {
	q := newTestQueues()
	_, err := q.Enqueue(engine.DiceRace, "a")
	require.NoError(t, err)
	_, err = q.Enqueue(engine.DiceRace, "b")
	require.NoError(t, err)

	touched := q.RemoveAll("a")
	assert.Equal(t, []engine.Kind{engine.DiceRace}, touched)
	assert.Equal(t, []string{"b"}, q.Waiting(engine.DiceRace))

	assert.Empty(t, q.RemoveAll("a"))

	// Once removed, the participant may queue again.
	_, err = q.Enqueue(engine.Chess, "a")
	assert.NoError(t, err)
}
