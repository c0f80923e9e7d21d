package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicTacToePlayerCount(t *testing.T) {
	_, err := NewTicTacToe([]string{"a"})
	assert.ErrorIs(t, err, ErrInvalidPlayerCount)
	_, err = NewTicTacToe([]string{"a", "b", "c"})
	assert.ErrorIs(t, err, ErrInvalidPlayerCount)
	_, err = NewTicTacToe([]string{"a", "b"})
	assert.NoError(t, err)
}

func TestTicTacToeRowWin(t *testing.T) {
	g, err := NewTicTacToe([]string{"a", "b"})
	require.NoError(t, err)

	// a takes the top row, b plays along.
	require.NoError(t, g.Apply("a", Move{Cell: 0}))
	require.NoError(t, g.Apply("b", Move{Cell: 3}))
	require.NoError(t, g.Apply("a", Move{Cell: 1}))

	// Two in a row is not a win yet.
	assert.False(t, g.Over())
	_, won := g.Winner()
	assert.False(t, won)

	require.NoError(t, g.Apply("b", Move{Cell: 4}))
	require.NoError(t, g.Apply("a", Move{Cell: 2}))

	assert.True(t, g.Over())
	winner, won := g.Winner()
	assert.True(t, won)
	assert.Equal(t, "a", winner)
	assert.False(t, g.Draw())
}

func TestTicTacToeDiagonalWin(t *testing.T) {
	g, err := NewTicTacToe([]string{"a", "b"})
	require.NoError(t, err)

	for _, step := range []struct {
		player string
		cell   int
	}{
		{"a", 0}, {"b", 1}, {"a", 4}, {"b", 2}, {"a", 8},
	} {
		require.NoError(t, g.Apply(step.player, Move{Cell: step.cell}))
	}
	winner, won := g.Winner()
	assert.True(t, won)
	assert.Equal(t, "a", winner)
}

func TestTicTacToeDraw(t *testing.T) {
	g, err := NewTicTacToe([]string{"a", "b"})
	require.NoError(t, err)

	// a b a / a b b / b a a: full board, no line.
	for _, step := range []struct {
		player string
		cell   int
	}{
		{"a", 0}, {"b", 1}, {"a", 2},
		{"b", 4}, {"a", 3}, {"b", 5},
		{"a", 7}, {"b", 6}, {"a", 8},
	} {
		require.NoError(t, g.Apply(step.player, Move{Cell: step.cell}))
	}
	assert.True(t, g.Over())
	assert.True(t, g.Draw())
	_, won := g.Winner()
	assert.False(t, won)

	assert.ErrorIs(t, g.Apply("b", Move{Cell: 0}), ErrGameOver)
}

func TestTicTacToeIllegalMoves(t *testing.T) {
	g, err := NewTicTacToe([]string{"a", "b"})
	require.NoError(t, err)

	require.NoError(t, g.Apply("a", Move{Cell: 4}))
	before := g.State().(TicTacToeState)

	assert.ErrorIs(t, g.Apply("b", Move{Cell: 4}), ErrIllegalMove)
	assert.ErrorIs(t, g.Apply("b", Move{Cell: 9}), ErrIllegalMove)
	assert.ErrorIs(t, g.Apply("b", Move{Cell: -1}), ErrIllegalMove)
	assert.ErrorIs(t, g.Apply("a", Move{Cell: 0}), ErrNotYourTurn)
	assert.ErrorIs(t, g.Apply("intruder", Move{Cell: 0}), ErrUnknownPlayer)

	assert.Equal(t, before, g.State().(TicTacToeState))
	assert.Equal(t, "b", g.CurrentPlayer())
}
