// Package session owns the engine's only piece of mutable shared state:
// the currently active context.
//
// The Manager mediates every read or change of "what context is active".
// Callers that run pipelines take a snapshot via Current() once at the
// start of a run; because catalog.Context is a value type, a concurrent
// Switch never changes which context governs a run already in flight.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/optqo/optqo/catalog"
)

// ErrNotInitialized is returned by Current before the first Initialize.
var ErrNotInitialized = errors.New("no active context: initialize first")

// Manager holds the active session. There is no destroy operation: the
// session lives until process exit so results can be inspected after a
// pipeline completes.
type Manager struct {
	store       *catalog.Store
	defaultName string
	logger      *slog.Logger

	mu     sync.RWMutex
	active *catalog.Context // nil while uninitialized
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger.With("component", "session")
	}
}

// NewManager creates a Manager over a loaded catalog. defaultName is the
// context selected when Initialize is called without a name.
func NewManager(store *catalog.Store, defaultName string, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		defaultName: defaultName,
		logger:      slog.Default().With("component", "session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize selects the named context, or the configured default when
// name is empty. Initializing twice is permitted and replaces the active
// context; auto-init flows rely on this being idempotent.
//
// A missing context at initialization time is a configuration error, not
// a per-call usage error, so failures wrap catalog.ErrInvalid.
func (m *Manager) Initialize(name string) (catalog.Context, error) {
	if name == "" {
		name = m.defaultName
	}
	if name == "" {
		return catalog.Context{}, fmt.Errorf("%w: no context named and no default configured", catalog.ErrInvalid)
	}

	c, err := m.store.Get(name)
	if err != nil {
		return catalog.Context{}, fmt.Errorf("%w: default or requested context %q not in catalog", catalog.ErrInvalid, name)
	}

	m.mu.Lock()
	m.active = &c
	m.mu.Unlock()

	m.logger.Info("context initialized", "context", c.Name, "activities", c.EnabledActivities)
	return c, nil
}

// Switch replaces the active context. An unknown name fails with
// catalog.ErrNotFound and leaves the current context unchanged.
// Switching does not cancel pipelines already in flight; they complete
// under the context captured when they started.
func (m *Manager) Switch(name string) (catalog.Context, error) {
	c, err := m.store.Get(name)
	if err != nil {
		return catalog.Context{}, err
	}

	m.mu.Lock()
	prev := m.active
	m.active = &c
	m.mu.Unlock()

	if prev != nil {
		m.logger.Info("context switched", "from", prev.Name, "to", c.Name)
	} else {
		m.logger.Info("context switched", "to", c.Name)
	}
	return c, nil
}

// Current returns a snapshot of the active context, or ErrNotInitialized
// before the first Initialize. The returned value does not change if the
// session is switched afterwards.
func (m *Manager) Current() (catalog.Context, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == nil {
		return catalog.Context{}, ErrNotInitialized
	}
	return *m.active, nil
}

// Initialized reports whether a context has been selected.
func (m *Manager) Initialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active != nil
}

// List returns every catalog context. It only reads the store, so it
// works regardless of initialization state.
func (m *Manager) List() []catalog.Context {
	return m.store.All()
}
