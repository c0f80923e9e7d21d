package server

// Inbound message shape.
type payload struct {
	Type string            `json:"type"`
	Data map[string]string `json:"data"`
}

// Outbound message shape.
type event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const (
	eventQueueUpdate        = "queueUpdate"
	eventGameStart          = "gameStart"
	eventGameStateUpdate    = "gameStateUpdate"
	eventGameOver           = "gameOver"
	eventPlayerDisconnected = "playerDisconnected"
	eventGameCancelled      = "gameCancelled"
	eventError              = "error"
)

type queueUpdateData struct {
	GameKind string `json:"gameKind"`
	Count    int    `json:"count"`
	Required int    `json:"required"`
}

type gameOverData struct {
	State  any    `json:"state"`
	Winner string `json:"winner,omitempty"`
	Draw   bool   `json:"draw,omitempty"`
	// NewBalance is the winner's balance after settlement, minor units.
	NewBalance *int64 `json:"newBalance,omitempty"`
	Forfeit    bool   `json:"forfeit,omitempty"`
}

type disconnectData struct {
	PlayerID string `json:"playerId"`
}

type cancelledData struct {
	Reason string `json:"reason"`
}

type errorData struct {
	Reason string `json:"reason"`
}
