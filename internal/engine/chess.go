package engine

import (
	"fmt"

	"github.com/notnil/chess"
)

type chessGame struct {
	game *chess.Game
	// [white, black]; the first-listed player takes white.
	players [2]string
	left    map[string]bool
}

// NewChess builds a chess game for exactly 2 players. Moves are expected in
// UCI notation.
func NewChess(playerIDs []string) (Engine, error) {
	if len(playerIDs) != 2 {
		return nil, fmt.Errorf("%w: chess needs exactly 2 players, got %d", ErrInvalidPlayerCount, len(playerIDs))
	}
	return &chessGame{
		game:    chess.NewGame(chess.UseNotation(chess.UCINotation{})),
		players: [2]string{playerIDs[0], playerIDs[1]},
		left:    make(map[string]bool),
	}, nil
}

func (g *chessGame) Kind() Kind        { return Chess }
func (g *chessGame) Players() []string { return []string{g.players[0], g.players[1]} }

func (g *chessGame) CurrentPlayer() string {
	if g.Over() {
		return ""
	}
	if g.game.Position().Turn() == chess.White {
		return g.players[0]
	}
	return g.players[1]
}

func (g *chessGame) Apply(playerID string, mv Move) error {
	if g.Over() {
		return ErrGameOver
	}
	if playerID != g.players[0] && playerID != g.players[1] {
		return ErrUnknownPlayer
	}
	if playerID != g.CurrentPlayer() {
		return ErrNotYourTurn
	}
	if err := g.game.MoveStr(mv.UCI); err != nil {
		return fmt.Errorf("%w: %q", ErrIllegalMove, mv.UCI)
	}
	return nil
}

// Leave only validates membership. Color assignment is fixed for the whole
// match; forfeiture is decided a level up.
func (g *chessGame) Leave(playerID string) error {
	if playerID != g.players[0] && playerID != g.players[1] {
		return ErrUnknownPlayer
	}
	g.left[playerID] = true
	return nil
}

func (g *chessGame) Over() bool {
	return g.game.Outcome() != chess.NoOutcome
}

func (g *chessGame) Draw() bool {
	if _, won := g.Winner(); won {
		return false
	}
	return g.Over()
}

func (g *chessGame) Winner() (string, bool) {
	if g.game.Method() != chess.Checkmate {
		return "", false
	}
	// The side to move in the final position is the mated side.
	if g.game.Position().Turn() == chess.White {
		return g.players[1], true
	}
	return g.players[0], true
}

// ChessState is the observable snapshot of a chess game.
type ChessState struct {
	GameKind      Kind     `json:"gameKind"`
	Players       []string `json:"players"`
	White         string   `json:"white"`
	Black         string   `json:"black"`
	FEN           string   `json:"fen"`
	Turn          string   `json:"turn"`
	CurrentPlayer string   `json:"currentPlayer,omitempty"`
	IsGameOver    bool     `json:"isGameOver"`
	IsCheckmate   bool     `json:"isCheckmate"`
	IsDraw        bool     `json:"isDraw"`
	Winner        string   `json:"winner,omitempty"`
}

func (g *chessGame) State() any {
	winner, _ := g.Winner()
	return ChessState{
		GameKind:      Chess,
		Players:       g.Players(),
		White:         g.players[0],
		Black:         g.players[1],
		FEN:           g.game.FEN(),
		Turn:          g.game.Position().Turn().String(),
		CurrentPlayer: g.CurrentPlayer(),
		IsGameOver:    g.Over(),
		IsCheckmate:   g.game.Method() == chess.Checkmate,
		IsDraw:        g.Draw(),
		Winner:        winner,
	}
}
