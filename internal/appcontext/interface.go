// Package appcontext defines the shared application context interface
// commands depend on, keeping command packages decoupled from the
// concrete App type.
package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/municipiolabs/gacetas/internal/config"
	"github.com/municipiolabs/gacetas/pkg/catalog"
	"github.com/municipiolabs/gacetas/pkg/session"
)

// Interface is the application context commands receive. The App
// struct from cmd/gacetas/app implements it; tests substitute mocks.
type Interface interface {
	// Config returns the loaded application configuration.
	Config() *config.Config

	// Logger returns the configured logger.
	Logger() *zerolog.Logger

	// Session returns the CLI session manager, restored from disk.
	Session() *session.Manager

	// Store opens the catalog store over the configured backend, gated
	// by the CLI admin session, and performs the initial load. The
	// returned cleanup releases the adapter; call it when done.
	Store(ctx context.Context) (*catalog.Store, func(), error)

	// ServerStore opens an ungated store for the HTTP server, which
	// enforces authorization in its own middleware. onChange fires
	// after every cache change, local or pushed.
	ServerStore(ctx context.Context, onChange func()) (*catalog.Store, func(), error)

	// Health returns a backend readiness probe, nil when the backend
	// has no meaningful check beyond the initial load.
	Health() func(ctx context.Context) error

	// Version returns the application version string.
	Version() string
}
