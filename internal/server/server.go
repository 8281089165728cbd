// Package server exposes the catalog over HTTP: public read and query
// endpoints, JWT-gated admin mutations, and an SSE change stream that
// lets every open browser follow catalog updates live.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/municipiolabs/gacetas/internal/server/sse"
	"github.com/municipiolabs/gacetas/pkg/catalog"
	errs "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/municipiolabs/gacetas/pkg/logging"
	"github.com/municipiolabs/gacetas/pkg/session"
)

// Config carries the HTTP server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// JWTSecret signs admin tokens. Required.
	JWTSecret []byte

	// TokenTTL bounds admin token lifetime. Defaults to 24h.
	TokenTTL time.Duration

	// Credentials is the accepted admin login.
	Credentials session.Credentials

	// ReadTimeout and WriteTimeout guard slow clients. WriteTimeout
	// zero is intentional for deployments relying on SSE, which holds
	// responses open indefinitely.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// HealthChecker reports backend readiness for the health endpoint.
type HealthChecker func(ctx context.Context) error

// Server is the catalog HTTP server.
type Server struct {
	cfg         Config
	store       *catalog.Store
	broadcaster *sse.Broadcaster
	logger      *zerolog.Logger
	httpServer  *http.Server
	health      HealthChecker
	cancel      context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHealthChecker attaches a backend readiness probe.
func WithHealthChecker(check HealthChecker) Option {
	return func(s *Server) {
		s.health = check
	}
}

// New creates a server over a loaded catalog store.
func New(store *catalog.Store, cfg Config, opts ...Option) (*Server, error) {
	if len(cfg.JWTSecret) == 0 {
		return nil, errs.NewValidationError("jwtSecret", "", "JWT secret is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.Credentials.Username == "" {
		cfg.Credentials = session.Credentials{
			Username:    session.DefaultUsername,
			Password:    session.DefaultPassword,
			DisplayName: "Administrador",
		}
	}

	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.broadcaster = sse.NewBroadcaster(s.logger)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// NotifyChange publishes a catalog change event to every connected
// client. Wire it as the store's change hook.
func (s *Server) NotifyChange() {
	s.broadcaster.Broadcast(sse.Event{
		Event: "catalog-changed",
		Data: map[string]any{
			"timestamp": time.Now().UTC(),
		},
	})
}

// Handler returns the HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the broadcaster and serves until Shutdown. It blocks.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.broadcaster.Run(ctx)

	s.logger.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errs.NewInitializationError("http server", err)
	}
	return nil
}

// Shutdown drains connections and stops the broadcaster.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.httpServer.Shutdown(ctx)
}
