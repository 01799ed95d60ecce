package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/marketd/marketd/internal/id"
	"github.com/marketd/marketd/pkg/logging"
	"github.com/marketd/marketd/pkg/market"
	"github.com/marketd/marketd/pkg/seed"
)

// DefaultTTL is how long an untouched session survives before the reaper
// may collect it. Zero disables expiry.
const DefaultTTL = 30 * time.Minute

const maxIDLength = 128

// Info is a point-in-time snapshot of one session's metadata.
type Info struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	LastUsed  time.Time `json:"lastUsed"`
}

type session struct {
	id        string
	store     *market.Store
	createdAt time.Time
	lastUsed  time.Time
}

func (s *session) info() Info {
	return Info{ID: s.id, CreatedAt: s.createdAt, LastUsed: s.lastUsed}
}

// Manager owns the session table. Every session gets its own freshly seeded
// Store; sessions never see each other's writes. Two creates with the same
// id share one session, which is how cooperating clients share state.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	runner   *seed.Runner
	ttl      time.Duration
	log      *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = logging.Component(log, "session")
	}
}

// WithTTL sets the idle lifetime of sessions. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// NewManager creates a session manager that provisions stores through
// runner.
func NewManager(runner *seed.Runner, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*session),
		runner:   runner,
		ttl:      DefaultTTL,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create registers a session and seeds its store. An empty requested id
// gets a generated one; a requested id that already exists returns the
// existing session unchanged, so both callers hold the same store. The
// returned report describes the seeding of a newly provisioned store and
// is nil when the session already existed.
func (m *Manager) Create(requested string) (Info, *seed.Report, error) {
	sid := requested
	if sid == "" {
		sid = id.Session()
	} else if len(sid) > maxIDLength {
		return Info{}, nil, &market.ValidationError{Field: "sessionId", Message: "must be at most 128 characters"}
	}

	m.mu.Lock()
	if existing, ok := m.sessions[sid]; ok {
		existing.lastUsed = time.Now().UTC()
		info := existing.info()
		m.mu.Unlock()
		return info, nil, nil
	}
	m.mu.Unlock()

	// Seed outside the manager lock; provisioning touches no shared state.
	store, report, err := m.runner.Provision()
	if err != nil {
		return Info{}, report, err
	}

	now := time.Now().UTC()
	s := &session{id: sid, store: store, createdAt: now, lastUsed: now}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[sid]; ok {
		// Lost a race to another create with the same id; the winner's
		// store is the shared one.
		existing.lastUsed = now
		return existing.info(), nil, nil
	}
	m.sessions[sid] = s
	m.log.Info("session created", "session", sid, "listings", report.Counts[market.TableListings])
	return s.info(), report, nil
}

// Resolve returns the store behind sid and marks the session used.
func (m *Manager) Resolve(sid string) (*market.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sid]
	if !ok {
		return nil, &market.SessionNotFoundError{ID: sid}
	}
	s.lastUsed = time.Now().UTC()
	return s.store, nil
}

// Get returns session metadata without touching the idle clock.
func (m *Manager) Get(sid string) (Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sid]
	if !ok {
		return Info{}, &market.SessionNotFoundError{ID: sid}
	}
	return s.info(), nil
}

// Destroy removes the session and its store.
func (m *Manager) Destroy(sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sid]; !ok {
		return &market.SessionNotFoundError{ID: sid}
	}
	delete(m.sessions, sid)
	m.log.Info("session destroyed", "session", sid)
	return nil
}

// List returns snapshots of every live session, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.info())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes sessions idle longer than the TTL and reports how many
// went. With expiry disabled it does nothing.
func (m *Manager) Cleanup() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := time.Now().UTC().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for sid, s := range m.sessions {
		if s.lastUsed.Before(cutoff) {
			delete(m.sessions, sid)
			removed++
		}
	}
	if removed > 0 {
		m.log.Info("sessions expired", "removed", removed, "remaining", len(m.sessions))
	}
	return removed
}

// StartReaper runs Cleanup every interval until ctx is done.
func (m *Manager) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Cleanup()
			}
		}
	}()
}
