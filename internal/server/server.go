package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
)

// Server represents the WebSocket server
type Server struct {
	cfg         *Config
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	lobby       *Lobby
	httpServer  *http.Server
}

// Option configures a Server
type Option func(*serverOptions)

type serverOptions struct {
	rng   *rand.Rand
	clock quartz.Clock
}

// WithRand seeds room codes and decks from rng
func WithRand(rng *rand.Rand) Option {
	return func(o *serverOptions) { o.rng = rng }
}

// WithClock drives bot and auto-hit timers from clock
func WithClock(clock quartz.Clock) Option {
	return func(o *serverOptions) { o.clock = clock }
}

// NewServer creates a new WebSocket server
func NewServer(cfg *Config, logger *log.Logger, opts ...Option) *Server {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger = logger.WithPrefix("server")

	s := &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			// Browser clients are served from other origins
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		lobby: NewLobby(ctx, cfg.Room, LobbyOptions{
			Rand:   o.rng,
			Clock:  o.clock,
			Logger: logger,
		}),
	}

	go s.run()
	return s
}

// Handler returns the HTTP routes for the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start listens on the configured address until Shutdown is called
func (s *Server) Start() error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.Handler(),
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("Starting WebSocket server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}
	return nil
}

// Shutdown stops accepting connections, closes the open ones, and stops
// every running game
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.lobby.Close()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close() // Ignore close errors during shutdown
	}
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Lobby returns the server's lobby
func (s *Server) Lobby() *Lobby {
	return s.lobby
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "client", conn.ID(), "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			delete(s.connections, conn)
			total := len(s.connections)
			s.mu.Unlock()

			if ok {
				// Frees the seat and closes the room if it was the last player
				s.lobby.Disconnect(conn)
				_ = conn.Close() // Ignore close errors during unregistration
				s.logger.Info("Client disconnected", "client", conn.ID(), "total", total)
			}

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.lobby)
	select {
	case s.register <- client:
	case <-s.ctx.Done():
		_ = client.Close()
		return
	}
	client.Start()

	// Connection cleanup is handled by the connection itself
	go func() {
		<-client.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

type healthResponse struct {
	OK    bool `json:"ok"`
	Rooms int  `json:"rooms"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{OK: true, Rooms: s.lobby.RoomCount()}) // Ignore write errors for health check
}
