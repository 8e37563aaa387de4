// Package server exposes a session over HTTP: a websocket stream of
// snapshots that also accepts player commands, plus a small JSON API over
// the live state and the recorded traces.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/snekarena/session"
	"github.com/brensch/snekarena/tracedb"
)

type Config struct {
	Addr string

	// Control lets websocket and API clients steer and restart the
	// session. Without it they can only watch.
	Control bool

	// SendEvery forwards one snapshot in N to websocket clients.
	SendEvery int

	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	PingInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		Control:      true,
		SendEvery:    2,
		WriteTimeout: 5 * time.Second,
		ReadTimeout:  60 * time.Second,
		PingInterval: 20 * time.Second,
	}
}

type Server struct {
	cfg    Config
	sess   *session.Session
	traces *tracedb.DB
	log    *slog.Logger

	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// New builds the server. traces may be nil, in which case the session
// history endpoints answer 503.
func New(cfg Config, sess *session.Session, traces *tracedb.DB, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	def := DefaultConfig()
	if cfg.SendEvery <= 0 {
		cfg.SendEvery = 1
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	s := &Server{
		cfg:    cfg,
		sess:   sess,
		traces: traces,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/start", s.handleStart)
	s.mux.HandleFunc("POST /api/input", s.handleInput)
	s.mux.HandleFunc("GET /api/sessions", s.handleSessions)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.handleSession)
	s.mux.HandleFunc("GET /api/sessions/{id}/frames", s.handleTimeline)
}

func (s *Server) Handler() http.Handler {
	return withRequestLog(s.log, s.mux)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http listening", "addr", s.cfg.Addr, "control", s.cfg.Control)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func withRequestLog(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("http request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}
