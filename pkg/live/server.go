// Package live is a websocket push server over the shared component
// runtime: one session per connection, client events dispatched as named
// actions, re-rendered fragments pushed back as JSON patches.
package live

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/datum-dev/datum/internal/errors"
	"github.com/datum-dev/datum/pkg/host"
)

// Server serves the demo page, upgrades websocket connections into
// sessions and fans runtime patches out to the sessions that own them.
type Server struct {
	config  *Config
	logger  *slog.Logger
	runtime *host.Runtime

	router   chi.Router
	upgrader websocket.Upgrader

	// mu protects sessions and owners.
	mu       sync.Mutex
	sessions map[string]*Session
	owners   map[string]*Session

	httpServer *http.Server
}

// NewServer builds the server around a shared runtime. The runtime's loop
// must be running (go rt.Run()) for events and patches to flow.
func NewServer(rt *host.Runtime, config *Config) *Server {
	config = config.withDefaults()
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   config,
		logger:   logger.With("component", "live"),
		runtime:  rt,
		sessions: make(map[string]*Session),
		owners:   make(map[string]*Session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
	}
	s.router = s.routes()

	go s.routePatches()

	return s
}

// routes builds the chi router.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.HandlerFor(s.config.MetricsGatherer, promhttp.HandlerOpts{}))

	return r
}

// Handler returns the HTTP handler, for mounting under an outer router or
// an httptest server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// routePatches fans runtime patches out to the sessions that own the
// rendered instances. Runs until the runtime stops.
func (s *Server) routePatches() {
	for {
		select {
		case p := <-s.runtime.Patches():
			s.mu.Lock()
			owner := s.owners[p.Instance]
			s.mu.Unlock()
			if owner == nil {
				s.logger.Debug("patch for unowned instance dropped", "instance", p.Instance)
				continue
			}
			owner.sendPatch(p)

		case <-s.runtime.Done():
			return
		}
	}
}

func (s *Server) registerOwner(instanceID string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[instanceID] = sess
}

func (s *Server) unregisterOwner(instanceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.owners, instanceID)
}

func (s *Server) removeSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// SessionCount returns the number of connected sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Session returns the session with the given ID.
func (s *Server) Session(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.New("E041")
	}
	return sess, nil
}

// handleWebSocket upgrades the connection, builds the session and its root
// component, then starts the pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.logger.Error("websocket upgrade failed", "err", errors.New("E040").Wrap(err))
		return
	}

	sess := newSession(uuid.NewString(), conn, s)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	if s.config.Root != nil {
		if component := s.config.Root(sess); component != nil {
			if _, err := sess.Mount(component); err != nil {
				s.logger.Error("root mount failed", "session", sess.ID, "err", err)
				sess.Close()
				return
			}
		}
	}

	sess.Start()
	s.logger.Info("session connected", "session", sess.ID, "remote", r.RemoteAddr)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","sessions":%d}`, s.SessionCount())
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully. The
// websocket takes over each upgraded connection and manages its own
// deadlines, so the HTTP server only bounds headers and idle keep-alives.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("live server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return errors.New("E080").Wrap(err)
		}
		return nil

	case <-shutdown:
		s.logger.Info("shutting down")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "err", err)
			return err
		}
	}

	s.logger.Info("live server shutdown complete")
	return nil
}
