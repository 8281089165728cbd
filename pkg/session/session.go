// Package session tracks the catalog's two access states, Public and
// Admin, and persists an active admin session across program runs.
//
// Every reader starts in the Public state. Admin is entered by logging
// in with the configured credentials and lasts until logout or until
// the persisted session file is removed. The Manager implements the
// access gate the catalog store consults before each mutation.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	errs "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/municipiolabs/gacetas/pkg/logging"
)

// State is the catalog access state.
type State int

const (
	// Public grants read-only access: browse, filter, search, preview,
	// download, export.
	Public State = iota
	// Admin additionally grants every mutation.
	Admin
)

// String returns the state name.
func (s State) String() string {
	if s == Admin {
		return "admin"
	}
	return "public"
}

// Default credentials. Deployments override these through
// configuration.
const (
	DefaultUsername = "admin"
	DefaultPassword = "admin123"
)

// User identifies the logged-in administrator.
type User struct {
	Username  string   `json:"username"`
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	LoginTime utc.Time `json:"loginTime"`
}

// Credentials is one accepted username and password pair.
type Credentials struct {
	Username    string
	Password    string
	DisplayName string
}

// Manager holds the current access state and persists admin sessions
// to a JSON file. Safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	creds  Credentials
	user   *User
	path   string
	logger *zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithCredentials overrides the accepted admin credentials.
func WithCredentials(creds Credentials) Option {
	return func(m *Manager) {
		m.creds = creds
	}
}

// WithPath overrides the session file location. An empty path disables
// persistence entirely.
func WithPath(path string) Option {
	return func(m *Manager) {
		m.path = path
	}
}

// WithLogger sets the manager's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session manager in the Public state. The
// default session file lives under the user configuration directory;
// call Restore to pick up a persisted session.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		creds: Credentials{
			Username:    DefaultUsername,
			Password:    DefaultPassword,
			DisplayName: "Administrador",
		},
		path:   defaultPath(),
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// defaultPath resolves the session file under the OS user config
// directory. Empty when no config directory is available.
func defaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gacetas", "session.json")
}

// State returns the current access state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user != nil {
		return Admin
	}
	return Public
}

// IsAdmin reports whether the Admin state is active.
func (m *Manager) IsAdmin() bool {
	return m.State() == Admin
}

// CurrentUser returns the logged-in administrator, if any.
func (m *Manager) CurrentUser() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

// Login validates the credentials and enters the Admin state. Failed
// attempts leave the current state untouched.
func (m *Manager) Login(username, password string) error {
	if username != m.creds.Username || password != m.creds.Password {
		m.logger.Warn().Str("username", username).Msg("Rejected login attempt")
		return errs.NewAuthenticationError(username, "invalid credentials")
	}

	m.mu.Lock()
	m.user = &User{
		Username:  username,
		Name:      m.creds.DisplayName,
		Role:      "admin",
		LoginTime: utc.Now(),
	}
	user := *m.user
	m.mu.Unlock()

	if err := m.persist(user); err != nil {
		// The in-memory session stands; only restore after restart is
		// affected.
		m.logger.Warn().Err(err).Msg("Failed to persist admin session")
	}

	m.logger.Info().Str("username", username).Msg("Admin session started")
	return nil
}

// Logout returns to the Public state and removes the persisted
// session. Logging out while already public is a no-op.
func (m *Manager) Logout() error {
	m.mu.Lock()
	wasAdmin := m.user != nil
	m.user = nil
	m.mu.Unlock()

	if !wasAdmin {
		return nil
	}

	if m.path != "" {
		if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
			return errs.WrapIO("remove", m.path, err)
		}
	}

	m.logger.Info().Msg("Admin session closed")
	return nil
}

// Restore loads a persisted admin session, if one exists. A missing
// file means Public; a malformed file is discarded and logged, never
// fatal.
func (m *Manager) Restore() error {
	if m.path == "" {
		return nil
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errs.WrapIO("read", m.path, err)
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		m.logger.Warn().Err(err).Str("path", m.path).
			Msg("Discarding malformed session file")
		_ = os.Remove(m.path)
		return nil
	}

	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()

	m.logger.Debug().Str("username", user.Username).Msg("Admin session restored")
	return nil
}

// persist writes the session file with owner-only permissions.
func (m *Manager) persist(user User) error {
	if m.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return errs.WrapIO("mkdir", filepath.Dir(m.path), err)
	}

	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return errs.WrapParse("json", m.path, err)
	}

	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return errs.WrapIO("write", m.path, err)
	}
	return nil
}
