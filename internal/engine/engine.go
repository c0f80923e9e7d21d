package engine

import (
	"errors"
	"fmt"
)

// Kind identifies one of the supported game types.
type Kind string

const (
	DiceRace  Kind = "dicerace"
	Chess     Kind = "chess"
	TicTacToe Kind = "tictactoe"
)

var (
	ErrUnknownKind        = errors.New("unknown game kind")
	ErrInvalidPlayerCount = errors.New("invalid player count")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrIllegalMove        = errors.New("illegal move")
	ErrGameOver           = errors.New("game already over")
	ErrUnknownPlayer      = errors.New("unknown player")
)

// Move carries the per-kind arguments of a player action. The dice race
// takes none: the roll happens server side.
type Move struct {
	Cell int    `json:"cell,omitempty"`
	UCI  string `json:"uci,omitempty"`
}

// Engine is the contract shared by every game kind. Implementations are not
// safe for concurrent use; the match loop serializes access.
type Engine interface {
	Kind() Kind
	// Players returns the original roster in seat order. It is never
	// shrunk by disconnects.
	Players() []string
	// CurrentPlayer returns the id of the participant whose turn it is,
	// or "" once the game is over.
	CurrentPlayer() string
	// Apply validates turn ownership and move legality, then performs
	// exactly one state mutation. A rejected move leaves state untouched.
	Apply(playerID string, mv Move) error
	// Leave removes a participant from the live turn rotation. Seat data
	// (chess colors, grid marks) is unaffected.
	Leave(playerID string) error
	Over() bool
	Draw() bool
	Winner() (string, bool)
	// State returns a stable snapshot with every field a client needs to
	// render the game. Side-effect free.
	State() any
}

// Config carries per-kind construction tunables.
type Config struct {
	DiceRace DiceRaceConfig
}

// New constructs the engine for the given kind with the given seat order.
func New(kind Kind, playerIDs []string, cfg Config) (Engine, error) {
	switch kind {
	case DiceRace:
		return NewDiceRace(playerIDs, cfg.DiceRace)
	case Chess:
		return NewChess(playerIDs)
	case TicTacToe:
		return NewTicTacToe(playerIDs)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
