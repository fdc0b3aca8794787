package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/internal/catalog"
)

// Defaults for Manager options.
const (
	DefaultDebounce    = 300 * time.Millisecond
	DefaultIdleTimeout = 30 * time.Minute
)

var (
	// ErrNotFound is returned for an unknown or expired session ID.
	ErrNotFound = errors.New("session not found")
	// ErrClosed is returned when editing a session that has been closed.
	ErrClosed = errors.New("session closed")
)

// Manager owns the live sessions.
type Manager struct {
	engine   *catalog.Engine
	logger   *zap.Logger
	store    StateStore
	debounce time.Duration
	idle     time.Duration
	now      func() time.Time
	onCount  func(int)

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithDebounce sets the quiescence window before a re-evaluation.
func WithDebounce(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.debounce = d
		}
	}
}

// WithIdleTimeout sets how long an untouched session lives.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.idle = d
		}
	}
}

// WithStateStore replaces the default NopStore.
func WithStateStore(s StateStore) Option {
	return func(m *Manager) { m.store = s }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithCountHook is called with the number of live sessions after every
// create, delete and sweep.
func WithCountHook(fn func(int)) Option {
	return func(m *Manager) { m.onCount = fn }
}

// NewManager creates a session manager over engine.
func NewManager(engine *catalog.Engine, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		engine:   engine,
		logger:   logger,
		debounce: DefaultDebounce,
		idle:     DefaultIdleTimeout,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, o := range opts {
		o(m)
	}
	if m.store == nil {
		m.store = NewNopStore(logger)
	}
	return m
}

// Create starts a session with default filter state.
func (m *Manager) Create() *Session {
	id := uuid.NewString()
	if _, ok := m.store.Get(id); ok {
		m.logger.Warn("state store returned data for a new session", zap.String("session", id))
	}
	s := newSession(id, m.engine, m.store, m.debounce, m.now, m.logger)

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.logger.Debug("session created", zap.String("session", id))
	m.count(n)
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete closes and removes the session with id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Close()
	m.count(n)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the idle timeout and returns
// how many were removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.idle)
	var expired []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if s.IdleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
		m.logger.Debug("session expired", zap.String("session", s.ID))
	}
	if len(expired) > 0 {
		m.count(n)
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is cancelled, then closes every
// remaining session.
func (m *Manager) Run(ctx context.Context) {
	interval := m.idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Info("expired idle sessions", zap.Int("count", n))
			}
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
	m.store.Clear()
	m.count(0)
}

func (m *Manager) count(n int) {
	if m.onCount != nil {
		m.onCount(n)
	}
}
