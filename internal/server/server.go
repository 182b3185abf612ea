package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/lunarnav/internal/config"
	"github.com/zeusync/lunarnav/internal/core/events/bus"
	"github.com/zeusync/lunarnav/internal/core/nav"
	"github.com/zeusync/lunarnav/internal/core/observability/log"
	"github.com/zeusync/lunarnav/internal/core/systems/physics"
	"github.com/zeusync/lunarnav/internal/settings"
)

// Server hosts navigation sessions over websocket and the settings API
// over plain HTTP. Every session navigates the same static world.
type Server struct {
	config  config.ServerConfig
	navCfg  nav.Config
	world   physics.Intersector
	store   settings.Store
	bus     bus.EventBus
	logger  log.Log
	allowed map[nav.Mode]bool

	upgrader websocket.Upgrader
	handler  http.Handler

	// Session management
	sessions     sync.Map // map[string]*Session
	sessionCount atomic.Int64

	// Server state
	running atomic.Bool
	closed  atomic.Bool
}

// Stats contains server statistics
type Stats struct {
	Sessions int64 `json:"sessions"`
	Running  bool  `json:"running"`
}

// NewServer wires a server over world. It does not listen until Run or
// Serve is called.
func NewServer(cfg config.ServerConfig, navCfg nav.Config, world physics.Intersector, store settings.Store, b bus.EventBus, logger log.Log) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := navCfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if store == nil || b == nil {
		return nil, fmt.Errorf("%w: settings store and event bus are required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	modes, _ := cfg.Modes()
	allowed := make(map[nav.Mode]bool, len(modes))
	for _, m := range modes {
		allowed[m] = true
	}

	s := &Server{
		config:  cfg,
		navCfg:  navCfg,
		world:   world,
		store:   store,
		bus:     b,
		logger:  logger.With(log.String("component", "server")),
		allowed: allowed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/settings", s.handleSettings)
	mux.HandleFunc("/healthz", s.handleHealth)
	s.handler = mux

	s.logger.Info("Server created",
		log.String("listen_addr", cfg.ListenAddr),
		log.Int("max_sessions", cfg.MaxSessions))
	return s, nil
}

// Handler exposes the routes, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.handler }

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout and closes every session.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.closed.Load() {
		_ = ln.Close()
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		_ = ln.Close()
		return ErrServerAlreadyRunning
	}
	defer s.running.Store(false)

	httpServer := &http.Server{Handler: s.handler}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Server listening", log.String("addr", ln.Addr().String()))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		s.closeSessions()
		return err
	})

	err := g.Wait()
	s.logger.Info("Server stopped")
	return err
}

// Close rejects further Serve calls and drops every session.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.closeSessions()
	s.logger.Info("Server closed")
	return nil
}

func (s *Server) closeSessions() {
	s.sessions.Range(func(_, value any) bool {
		if session, ok := value.(*Session); ok {
			session.close(websocket.CloseGoingAway, "server shutting down")
		}
		return true
	})
}

// GetStats returns server statistics
func (s *Server) GetStats() Stats {
	return Stats{
		Sessions: s.sessionCount.Load(),
		Running:  s.running.Load(),
	}
}

func (s *Server) modeAllowed(m nav.Mode) bool { return s.allowed[m] }
