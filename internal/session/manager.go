package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
)

// ClearHook runs after a session has been cleared.
type ClearHook func(ctx context.Context, id string, prev State)

// Manager hands out Session handles over a Store and serializes writers of
// the same session ID within the process.
type Manager struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	ttl    time.Duration
	hooks  []ClearHook

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL ends sessions that have not logged in or refreshed for ttl.
// Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// NewManager creates a Manager over store.
func NewManager(store Store, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
		locks:  make(map[string]*keyLock),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) expired(st State) bool {
	return m.ttl > 0 && st.Authenticated() && m.now().Sub(st.UpdatedAt) > m.ttl
}

// Sweep clears every session idle for longer than the TTL in stores that
// can list them. Stores with native expiry are left alone.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	sw, ok := m.store.(Sweeper)
	if !ok || m.ttl <= 0 {
		return 0, nil
	}
	ids, err := sw.Expired(ctx, m.now().Add(-m.ttl))
	if err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}
	cleared := 0
	for _, id := range ids {
		if err := m.Session(id).Clear(ctx); err != nil {
			return cleared, err
		}
		cleared++
	}
	return cleared, nil
}

// OnClear registers a hook invoked whenever a session is cleared.
func (m *Manager) OnClear(h ClearHook) {
	m.hooks = append(m.hooks, h)
}

// Store returns the underlying store.
func (m *Manager) Store() Store { return m.store }

// NewID returns a fresh random session ID.
func NewID() string { return uuid.NewString() }

// ValidID reports whether id has the shape NewID produces.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// Session returns a handle for id. Handles are cheap and hold no state.
func (m *Manager) Session(id string) *Session {
	return &Session{id: id, mgr: m}
}

func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &keyLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

// Session is the explicit auth context passed to the private client. Get,
// Establish, SetTokens and Clear are its only accessors.
type Session struct {
	id  string
	mgr *Manager
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Get loads the current state. A session past its TTL is cleared and
// reported as empty.
func (s *Session) Get(ctx context.Context) (State, error) {
	st, err := s.mgr.store.Load(ctx, s.id)
	if err != nil || !s.mgr.expired(st) {
		return st, err
	}
	if err := s.Clear(ctx); err != nil {
		return State{}, err
	}
	return State{}, nil
}

// Establish stores identity and tokens after a successful login, replacing
// whatever the session held before.
func (s *Session) Establish(ctx context.Context, identity Identity, pair TokenPair) error {
	if pair.AccessToken == "" {
		return apperrors.InvalidInput("login response carried no access token")
	}
	unlock := s.mgr.lock(s.id)
	defer unlock()

	st := State{Identity: &identity, Tokens: pair, UpdatedAt: s.mgr.now().UTC()}
	if err := s.mgr.store.Save(ctx, s.id, st); err != nil {
		return fmt.Errorf("establish session: %w", err)
	}
	return nil
}

// SetTokens replaces the token pair as one read-modify-write. An empty
// refresh token keeps the current one. A session cleared in the meantime is
// not resurrected.
func (s *Session) SetTokens(ctx context.Context, pair TokenPair) (State, error) {
	if pair.AccessToken == "" {
		return State{}, apperrors.InvalidInput("refresh response carried no access token")
	}
	unlock := s.mgr.lock(s.id)
	defer unlock()

	st, err := s.mgr.store.Load(ctx, s.id)
	if err != nil {
		return State{}, fmt.Errorf("load session: %w", err)
	}
	if !st.Authenticated() {
		return State{}, apperrors.SessionTerminated("session was cleared")
	}
	if s.mgr.expired(st) {
		return State{}, apperrors.SessionTerminated("session expired")
	}

	if pair.RefreshToken == "" {
		pair.RefreshToken = st.Tokens.RefreshToken
	}
	st.Tokens = pair
	st.UpdatedAt = s.mgr.now().UTC()

	if err := s.mgr.store.Save(ctx, s.id, st); err != nil {
		return State{}, fmt.Errorf("save session: %w", err)
	}
	return st, nil
}

// Clear removes identity and tokens. Clearing an empty session is a no-op
// apart from running the hooks.
func (s *Session) Clear(ctx context.Context) error {
	unlock := s.mgr.lock(s.id)
	prev, _ := s.mgr.store.Load(ctx, s.id)
	err := s.mgr.store.Delete(ctx, s.id)
	unlock()
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	if s.mgr.logger != nil && prev.Authenticated() {
		s.mgr.logger.InfoContext(ctx, "session cleared", slog.String("session", shortID(s.id)))
	}
	for _, h := range s.mgr.hooks {
		h(ctx, s.id, prev)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
