// Package app provides the application context and dependency wiring
// for the gacetas CLI: configuration, logging, the admin session, and
// catalog store construction over the configured backend.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/municipiolabs/gacetas/internal/adapters/localstore"
	minioblobs "github.com/municipiolabs/gacetas/internal/adapters/minio"
	"github.com/municipiolabs/gacetas/internal/adapters/postgres"
	"github.com/municipiolabs/gacetas/internal/appcontext"
	"github.com/municipiolabs/gacetas/internal/config"
	"github.com/municipiolabs/gacetas/pkg/catalog"
	errs "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/municipiolabs/gacetas/pkg/session"
)

// App carries the CLI's dependencies.
type App struct {
	version string
	commit  string
	date    string

	config  *config.Config
	logger  *zerolog.Logger
	session *session.Manager
	health  func(ctx context.Context) error
}

// Ensure App implements the command context at compile time.
var _ appcontext.Interface = (*App)(nil)

// New loads configuration, configures logging, and restores any
// persisted admin session.
func New(version, commit, date string) (*App, error) {
	a := &App{
		version: version,
		commit:  commit,
		date:    date,
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, errs.NewInitializationError("config", err)
	}
	a.config = cfg

	logger := NewLogger(cfg)
	a.logger = &logger

	sessionOpts := []session.Option{
		session.WithLogger(a.logger),
		session.WithCredentials(session.Credentials{
			Username:    cfg.AdminUsername,
			Password:    cfg.AdminPassword,
			DisplayName: cfg.AdminName,
		}),
	}
	if cfg.SessionFile != "" {
		sessionOpts = append(sessionOpts, session.WithPath(cfg.SessionFile))
	}
	a.session = session.NewManager(sessionOpts...)
	if err := a.session.Restore(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to restore admin session")
	}

	return a, nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the configured logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Session returns the CLI session manager.
func (a *App) Session() *session.Manager {
	return a.session
}

// Version returns the version string.
func (a *App) Version() string {
	return fmt.Sprintf("%s (commit %s, built %s)", a.version, a.commit, a.date)
}

// Store opens a catalog store gated by the CLI admin session.
func (a *App) Store(ctx context.Context) (*catalog.Store, func(), error) {
	return a.openStore(ctx, a.session, nil)
}

// ServerStore opens an ungated catalog store for the HTTP server,
// which enforces authorization in its own middleware.
func (a *App) ServerStore(ctx context.Context, onChange func()) (*catalog.Store, func(), error) {
	return a.openStore(ctx, nil, onChange)
}

// Health returns the backend readiness probe captured while opening
// the store. Nil for backends with no meaningful check.
func (a *App) Health() func(ctx context.Context) error {
	return a.health
}

// openStore builds the adapter chain for the configured backend and
// performs the initial load.
func (a *App) openStore(ctx context.Context, access catalog.AccessChecker, onChange func()) (*catalog.Store, func(), error) {
	adapter, blobs, cleanup, err := a.openBackend(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := []catalog.StoreOption{
		catalog.WithLogger(a.logger),
	}
	if blobs != nil {
		opts = append(opts, catalog.WithBlobStore(blobs))
	}
	if access != nil {
		opts = append(opts, catalog.WithAccessChecker(access))
	}
	if onChange != nil {
		opts = append(opts, catalog.WithOnChange(onChange))
	}

	store := catalog.NewStore(adapter, opts...)
	if err := store.Load(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}

	return store, cleanup, nil
}

// openBackend constructs the configured persistence adapter and blob
// store.
func (a *App) openBackend(ctx context.Context) (catalog.Adapter, catalog.BlobStore, func(), error) {
	cfg := a.config

	switch cfg.Backend {
	case config.BackendLocal:
		adapter, err := localstore.New(cfg.DataDir, localstore.WithLogger(a.logger))
		if err != nil {
			return nil, nil, nil, err
		}
		blobs, err := localstore.NewBlobs(cfg.BlobDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return adapter, blobs, func() {}, nil

	case config.BackendPostgres:
		adapter, err := postgres.New(ctx, cfg.DatabaseDSN, postgres.WithLogger(a.logger))
		if err != nil {
			return nil, nil, nil, err
		}
		if err := adapter.Migrate(); err != nil {
			adapter.Close()
			return nil, nil, nil, err
		}
		a.health = adapter.Healthy

		var blobs catalog.BlobStore
		if cfg.MinioEndpoint != "" {
			blobs, err = minioblobs.New(ctx, minioblobs.Config{
				Endpoint:  cfg.MinioEndpoint,
				AccessKey: cfg.MinioAccessKey,
				SecretKey: cfg.MinioSecretKey,
				Bucket:    cfg.MinioBucket,
				UseSSL:    cfg.MinioUseSSL,
			}, minioblobs.WithLogger(a.logger))
			if err != nil {
				adapter.Close()
				return nil, nil, nil, err
			}
		}
		return adapter, blobs, adapter.Close, nil

	default:
		return nil, nil, nil, errs.NewValidationError("backend", cfg.Backend,
			`must be "local" or "postgres"`)
	}
}

// ExitOnError prints the error and exits with a non-zero status.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
