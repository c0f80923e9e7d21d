package engine

import (
	"errors"
	"fmt"
	"math/rand"
)

// DiceRaceConfig sets the board geometry. A zero value gets the defaults of
// the classic 100-square board.
type DiceRaceConfig struct {
	BoardSize int
	Ladders   int
	Snakes    int
	// MinSpan is the minimum distance a ladder climbs or a snake drops.
	MinSpan int
	// Rand, when set, makes board generation and dice rolls reproducible.
	Rand *rand.Rand
}

func (c DiceRaceConfig) withDefaults() DiceRaceConfig {
	if c.BoardSize == 0 {
		c.BoardSize = 100
	}
	if c.Ladders == 0 {
		c.Ladders = 5
	}
	if c.Snakes == 0 {
		c.Snakes = 5
	}
	if c.MinSpan == 0 {
		c.MinSpan = 10
	}
	return c
}

var ErrBoardTooSmall = errors.New("board too small for requested tile counts")

// Generation gives up after this many rejected samples per board.
const maxTileAttempts = 10000

type diceRace struct {
	boardSize int
	tiles     map[int]int
	roster    []string
	order     []string
	positions map[string]int
	turn      int
	lastRoll  int
	winner    string
	over      bool
	roll      func() int
}

// NewDiceRace builds a race game for 2 to 4 players. The first-listed
// player rolls first.
func NewDiceRace(playerIDs []string, cfg DiceRaceConfig) (Engine, error) {
	if len(playerIDs) < 2 || len(playerIDs) > 4 {
		return nil, fmt.Errorf("%w: dice race needs 2-4 players, got %d", ErrInvalidPlayerCount, len(playerIDs))
	}
	cfg = cfg.withDefaults()
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	tiles, err := generateBoard(cfg, rng)
	if err != nil {
		return nil, err
	}
	g := &diceRace{
		boardSize: cfg.BoardSize,
		tiles:     tiles,
		roster:    append([]string(nil), playerIDs...),
		order:     append([]string(nil), playerIDs...),
		positions: make(map[string]int, len(playerIDs)),
		roll:      func() int { return rng.Intn(6) + 1 },
	}
	for _, id := range playerIDs {
		g.positions[id] = 1
	}
	return g, nil
}

// generateBoard places the configured number of ladders and snakes by
// rejection sampling. No source or destination may be square 1 or the final
// square, no square is reused, and every tile spans at least MinSpan.
func generateBoard(cfg DiceRaceConfig, rng *rand.Rand) (map[int]int, error) {
	// Squares 2..boardSize-1 are placeable; each tile burns two of them.
	placeable := cfg.BoardSize - 2
	if 2*(cfg.Ladders+cfg.Snakes) > placeable || cfg.BoardSize-1-cfg.MinSpan < 2 {
		return nil, fmt.Errorf("%w: size %d, %d ladders, %d snakes, span %d",
			ErrBoardTooSmall, cfg.BoardSize, cfg.Ladders, cfg.Snakes, cfg.MinSpan)
	}

	tiles := make(map[int]int, cfg.Ladders+cfg.Snakes)
	used := make(map[int]bool, 2*(cfg.Ladders+cfg.Snakes))
	attempts := 0
	sample := func(lo, hi int) int { return lo + rng.Intn(hi-lo+1) }

	place := func(count int, ladder bool) error {
		for placed := 0; placed < count; {
			if attempts++; attempts > maxTileAttempts {
				return fmt.Errorf("%w: gave up after %d attempts", ErrBoardTooSmall, attempts-1)
			}
			var src, dst int
			if ladder {
				src = sample(2, cfg.BoardSize-1-cfg.MinSpan)
				dst = sample(src+cfg.MinSpan, cfg.BoardSize-1)
			} else {
				src = sample(2+cfg.MinSpan, cfg.BoardSize-1)
				dst = sample(2, src-cfg.MinSpan)
			}
			if used[src] || used[dst] {
				continue
			}
			used[src], used[dst] = true, true
			tiles[src] = dst
			placed++
		}
		return nil
	}

	if err := place(cfg.Ladders, true); err != nil {
		return nil, err
	}
	if err := place(cfg.Snakes, false); err != nil {
		return nil, err
	}
	return tiles, nil
}

func (g *diceRace) Kind() Kind        { return DiceRace }
func (g *diceRace) Players() []string { return append([]string(nil), g.roster...) }

func (g *diceRace) CurrentPlayer() string {
	if g.over || len(g.order) == 0 {
		return ""
	}
	return g.order[g.turn]
}

func (g *diceRace) Apply(playerID string, _ Move) error {
	if g.over {
		return ErrGameOver
	}
	if _, ok := g.positions[playerID]; !ok {
		return ErrUnknownPlayer
	}
	if playerID != g.order[g.turn] {
		return ErrNotYourTurn
	}

	roll := g.roll()
	g.lastRoll = roll
	if next := g.positions[playerID] + roll; next <= g.boardSize {
		if dst, ok := g.tiles[next]; ok {
			// Single hop: the destination is not re-checked.
			next = dst
		}
		g.positions[playerID] = next
	}
	// Overshooting the final square keeps the player in place.

	if g.positions[playerID] == g.boardSize {
		g.winner = playerID
		g.over = true
		return nil
	}
	g.turn = (g.turn + 1) % len(g.order)
	return nil
}

func (g *diceRace) Leave(playerID string) error {
	idx := -1
	for i, id := range g.order {
		if id == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrUnknownPlayer
	}
	delete(g.positions, playerID)
	g.order = append(g.order[:idx], g.order[idx+1:]...)
	if len(g.order) == 0 {
		return nil
	}
	if idx < g.turn {
		g.turn--
	} else if g.turn >= len(g.order) {
		g.turn = 0
	}
	return nil
}

func (g *diceRace) Over() bool { return g.over }
func (g *diceRace) Draw() bool { return false }

func (g *diceRace) Winner() (string, bool) {
	return g.winner, g.winner != ""
}

// DiceRaceState is the observable snapshot of a race game.
type DiceRaceState struct {
	GameKind      Kind           `json:"gameKind"`
	Players       []string       `json:"players"`
	Positions     map[string]int `json:"positions"`
	CurrentPlayer string         `json:"currentPlayer"`
	LastRoll      int            `json:"lastRoll"`
	Winner        string         `json:"winner,omitempty"`
	Board         BoardState     `json:"board"`
}

type BoardState struct {
	Size         int         `json:"size"`
	SpecialTiles map[int]int `json:"specialTiles"`
}

func (g *diceRace) State() any {
	positions := make(map[string]int, len(g.positions))
	for id, pos := range g.positions {
		positions[id] = pos
	}
	tiles := make(map[int]int, len(g.tiles))
	for src, dst := range g.tiles {
		tiles[src] = dst
	}
	return DiceRaceState{
		GameKind:      DiceRace,
		Players:       g.Players(),
		Positions:     positions,
		CurrentPlayer: g.CurrentPlayer(),
		LastRoll:      g.lastRoll,
		Winner:        g.winner,
		Board:         BoardState{Size: g.boardSize, SpecialTiles: tiles},
	}
}
