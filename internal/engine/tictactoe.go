package engine

import "fmt"

// The eight winning lines of the 3x3 board.
var gridLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

type ticTacToe struct {
	players [2]string
	// Cells hold the owning player id, "" while empty.
	cells  [9]string
	turn   int
	over   bool
	winner string
	left   map[string]bool
}

// NewTicTacToe builds a grid game for exactly 2 players. The first-listed
// player moves first.
func NewTicTacToe(playerIDs []string) (Engine, error) {
	if len(playerIDs) != 2 {
		return nil, fmt.Errorf("%w: tic-tac-toe needs exactly 2 players, got %d", ErrInvalidPlayerCount, len(playerIDs))
	}
	return &ticTacToe{
		players: [2]string{playerIDs[0], playerIDs[1]},
		left:    make(map[string]bool),
	}, nil
}

func (g *ticTacToe) Kind() Kind        { return TicTacToe }
func (g *ticTacToe) Players() []string { return []string{g.players[0], g.players[1]} }

func (g *ticTacToe) CurrentPlayer() string {
	if g.over {
		return ""
	}
	return g.players[g.turn]
}

func (g *ticTacToe) Apply(playerID string, mv Move) error {
	if g.over {
		return ErrGameOver
	}
	if playerID != g.players[0] && playerID != g.players[1] {
		return ErrUnknownPlayer
	}
	if playerID != g.players[g.turn] {
		return ErrNotYourTurn
	}
	if mv.Cell < 0 || mv.Cell >= len(g.cells) {
		return fmt.Errorf("%w: cell %d out of range", ErrIllegalMove, mv.Cell)
	}
	if g.cells[mv.Cell] != "" {
		return fmt.Errorf("%w: cell %d occupied", ErrIllegalMove, mv.Cell)
	}

	g.cells[mv.Cell] = playerID

	for _, line := range gridLines {
		a, b, c := g.cells[line[0]], g.cells[line[1]], g.cells[line[2]]
		if a != "" && a == b && a == c {
			g.winner = a
			g.over = true
			return nil
		}
	}
	full := true
	for _, cell := range g.cells {
		if cell == "" {
			full = false
			break
		}
	}
	if full {
		g.over = true
		return nil
	}
	g.turn = (g.turn + 1) % 2
	return nil
}

func (g *ticTacToe) Leave(playerID string) error {
	if playerID != g.players[0] && playerID != g.players[1] {
		return ErrUnknownPlayer
	}
	g.left[playerID] = true
	return nil
}

func (g *ticTacToe) Over() bool { return g.over }

func (g *ticTacToe) Draw() bool { return g.over && g.winner == "" }

func (g *ticTacToe) Winner() (string, bool) {
	return g.winner, g.winner != ""
}

// TicTacToeState is the observable snapshot of a grid game.
type TicTacToeState struct {
	GameKind      Kind     `json:"gameKind"`
	Players       []string `json:"players"`
	Board         []string `json:"board"`
	CurrentPlayer string   `json:"currentPlayer,omitempty"`
	IsGameOver    bool     `json:"isGameOver"`
	Winner        string   `json:"winner,omitempty"`
}

func (g *ticTacToe) State() any {
	board := make([]string, len(g.cells))
	copy(board, g.cells[:])
	return TicTacToeState{
		GameKind:      TicTacToe,
		Players:       g.Players(),
		Board:         board,
		CurrentPlayer: g.CurrentPlayer(),
		IsGameOver:    g.over,
		Winner:        g.winner,
	}
}
