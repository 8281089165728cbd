package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/municipiolabs/gacetas/internal/config"
	"github.com/municipiolabs/gacetas/pkg/catalog"
	"github.com/municipiolabs/gacetas/pkg/logging"
	"github.com/municipiolabs/gacetas/pkg/session"
)

// Mock implements Interface for command tests.
type Mock struct {
	Cfg           *config.Config
	Log           *zerolog.Logger
	Sess          *session.Manager
	StoreFn       func(ctx context.Context) (*catalog.Store, func(), error)
	ServerStoreFn func(ctx context.Context, onChange func()) (*catalog.Store, func(), error)
	HealthFn      func(ctx context.Context) error
	Ver           string
}

var _ Interface = (*Mock)(nil)

// Config returns the mock configuration, defaulting to an empty one.
func (m *Mock) Config() *config.Config {
	if m.Cfg == nil {
		m.Cfg = &config.Config{}
	}
	return m.Cfg
}

// Logger returns the mock logger, defaulting to a no-op.
func (m *Mock) Logger() *zerolog.Logger {
	if m.Log == nil {
		return &logging.Nop
	}
	return m.Log
}

// Session returns the mock session manager, defaulting to one without
// persistence.
func (m *Mock) Session() *session.Manager {
	if m.Sess == nil {
		m.Sess = session.NewManager(
			session.WithPath(""),
			session.WithLogger(m.Logger()),
		)
	}
	return m.Sess
}

// Store delegates to StoreFn.
func (m *Mock) Store(ctx context.Context) (*catalog.Store, func(), error) {
	return m.StoreFn(ctx)
}

// ServerStore delegates to ServerStoreFn when set, otherwise to StoreFn
// with the change hook dropped.
func (m *Mock) ServerStore(ctx context.Context, onChange func()) (*catalog.Store, func(), error) {
	if m.ServerStoreFn != nil {
		return m.ServerStoreFn(ctx, onChange)
	}
	return m.StoreFn(ctx)
}

// Health returns the mock readiness probe.
func (m *Mock) Health() func(ctx context.Context) error {
	return m.HealthFn
}

// Version returns the mock version string.
func (m *Mock) Version() string {
	if m.Ver == "" {
		return "test"
	}
	return m.Ver
}
