package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aixgo-dev/vidsense/internal/observability"
)

// DefaultTTL is how long an untouched session stays resumable.
const DefaultTTL = 24 * time.Hour

// ErrSessionNotFound means the session does not exist or has expired.
var ErrSessionNotFound = errors.New("session not found")

// Store holds active sessions in memory. Expiry is sliding: every Get
// refreshes the last-access time, and expired sessions are dropped
// lazily on Get or by a periodic Sweep.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL overrides the session time-to-live.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock substitutes the time source. Used by tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a session store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new session for a video and returns it.
func (s *Store) Create(videoID, title, channel string) *Session {
	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		VideoID:    videoID,
		Title:      title,
		Channel:    channel,
		CreatedAt:  now,
		lastAccess: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	size := len(s.sessions)
	s.mu.Unlock()

	observability.SetActiveSessions(size)
	return sess
}

// Get returns a live session and refreshes its expiry. An expired
// session is deleted and reported as not found.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := s.now()
	if sess.expired(now, s.ttl) {
		s.Delete(id)
		return nil, ErrSessionNotFound
	}
	sess.touch(now)
	return sess, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	size := len(s.sessions)
	s.mu.Unlock()

	observability.SetActiveSessions(size)
}

// ListActive returns metadata for all unexpired sessions, newest
// first.
func (s *Store) ListActive() []Info {
	now := s.now()

	s.mu.RLock()
	infos := make([]Info, 0, len(s.sessions))
	live := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if !sess.expired(now, s.ttl) {
			live = append(live, sess)
		}
	}
	s.mu.RUnlock()

	sort.Slice(live, func(i, j int) bool {
		return live[i].CreatedAt.After(live[j].CreatedAt)
	})
	for _, sess := range live {
		infos = append(infos, sess.Info())
	}
	return infos
}

// Sweep drops every expired session and returns how many were removed.
// Meant to run on a timer.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.expired(now, s.ttl) {
			delete(s.sessions, id)
			removed++
		}
	}
	size := len(s.sessions)
	s.mu.Unlock()

	observability.SetActiveSessions(size)
	return removed
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
