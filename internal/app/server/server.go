package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cashplay-space/cashplay/internal/engine"
	"github.com/cashplay-space/cashplay/internal/ledger"
	"github.com/cashplay-space/cashplay/internal/matchmaking"
	"github.com/cashplay-space/cashplay/internal/settlement"
	"github.com/cashplay-space/cashplay/pkg/logging"
)

type server struct {
	address  string
	upgrader websocket.Upgrader
	config   Config

	mu    sync.Mutex
	conns map[string]*player

	matches  sync.Map // match id -> *Match
	byPlayer sync.Map // player id -> *Match

	queues  *matchmaking.Queues
	settler *settlement.Coordinator
}

func NewServer() *server {
	cfg := NewConfig()
	store, err := ledger.Open(cfg.Postgres)
	if err != nil {
		panic(err)
	}
	return newServer(cfg, store)
}

func newServer(cfg Config, store settlement.Ledger) *server {
	return &server{
		address: "0.0.0.0:" + cfg.Port,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		config: cfg,
		conns:  make(map[string]*player),
		queues: matchmaking.NewQueues(engine.DiceRace, engine.Chess, engine.TicTacToe),
		settler: settlement.NewCoordinator(store, settlement.Config{
			FeeBps:      cfg.FeeBps,
			RecordDraws: cfg.RecordDraws,
		}),
	}
}

// Start method    starts the game server
func (s *server) Start() error {
	http.HandleFunc("/play/{gameKind}", s.handlePlay)
	logging.Info("websocket server started", zap.String("port", s.config.Port))
	return http.ListenAndServe(s.address, nil)
}

func (s *server) handlePlay(w http.ResponseWriter, r *http.Request) {
	playerId, err := s.auth(r)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(err.Error()))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("failed to upgrade connection", zap.String("error", err.Error()))
		return
	}
	defer conn.Close()

	p := newPlayer(playerId, conn)
	if !s.register(p) {
		p.writeJSON(event{Type: eventError, Data: errorData{Reason: ErrStatusAlreadyConnected}})
		return
	}

	kind := engine.Kind(r.PathValue("gameKind"))
	if err := s.handlePlayerJoin(p, kind); err != nil {
		p.writeJSON(event{Type: eventError, Data: errorData{Reason: statusForError(err)}})
		s.unregister(p)
		return
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			s.handlePlayerDisconnect(p)
			logging.Info("connection closed",
				zap.String("player_id", playerId),
				zap.String("remote_address", conn.RemoteAddr().String()),
				zap.Error(err),
			)
			break
		}

		pl := payload{}
		if err := json.Unmarshal(message, &pl); err != nil {
			p.writeJSON(event{Type: eventError, Data: errorData{Reason: ErrStatusInvalidPayload}})
			continue
		}
		s.handleMessage(p, pl)
	}
}

// register binds the participant id to this connection. A participant may
// hold one live connection at a time.
func (s *server) register(p *player) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.conns[p.id]; exists {
		return false
	}
	s.conns[p.id] = p
	return true
}

func (s *server) unregister(p *player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.conns[p.id]; ok && current == p {
		delete(s.conns, p.id)
	}
}
