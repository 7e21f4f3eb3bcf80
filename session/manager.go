package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/pengdash/engine"
)

// ErrSessionNotFound is returned for an id the manager does not hold.
var ErrSessionNotFound = errors.New("session not found")

// Manager hosts independent sessions over one shared, read-only base table.
// Sessions never share mutable state.
type Manager struct {
	base   engine.RecordView
	opts   []Option
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a manager. opts are applied to every session it opens.
func NewManager(base engine.RecordView, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		base:     base,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Open starts a new session with a fresh uuid.
func (m *Manager) Open(opts ...Option) *Session {
	id := uuid.NewString()
	all := make([]Option, 0, len(m.opts)+len(opts)+2)
	all = append(all, WithLogger(m.logger))
	all = append(all, m.opts...)
	all = append(all, opts...)
	all = append(all, WithID(id))
	s := New(m.base, all...)

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session opened", zap.String("session", id), zap.Int("active", n))
	return s
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close ends a session and forgets it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	m.logger.Info("session closed", zap.String("session", id))
	return nil
}

// IDs returns the open session ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Broadcast runs fn on every open session concurrently and returns the first
// error. ctx is cancelled for the remaining calls once one fails.
func (m *Manager) Broadcast(ctx context.Context, fn func(context.Context, *Session) error) error {
	m.mu.RLock()
	targets := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		targets = append(targets, s)
	}
	m.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, s)
		})
	}
	return g.Wait()
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	m.logger.Info("all sessions closed", zap.Int("count", len(sessions)))
}
