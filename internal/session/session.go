// Package session manages video analysis sessions: per-video state
// that survives across conversation turns, with TTL-based expiry and a
// pluggable checkpoint backend for the conversation itself.
package session

import (
	"sync"
	"time"

	"github.com/aixgo-dev/vidsense/agent"
	"github.com/aixgo-dev/vidsense/internal/retrieval"
	"github.com/aixgo-dev/vidsense/internal/youtube"
)

// Session is one video analysis conversation. The mutex serializes
// turns: concurrent questions against the same session run one at a
// time so the checkpoint never interleaves.
type Session struct {
	ID        string
	VideoID   string
	Title     string
	Channel   string
	CreatedAt time.Time

	// Checkpoint is the committed conversation state. Nil until the
	// first turn completes.
	Checkpoint *agent.State

	// Index and Data are the retrieval artifacts built at analysis time
	// and reused by follow-up questions.
	Index *retrieval.Index
	Data  *youtube.VideoData

	// mu serializes turns. Expiry bookkeeping lives under its own lock
	// so the store never waits behind a running turn.
	mu sync.Mutex

	accessMu   sync.Mutex
	lastAccess time.Time
}

// Lock takes the session's turn lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// LastAccess returns when the session was last touched.
func (s *Session) LastAccess() time.Time {
	s.accessMu.Lock()
	defer s.accessMu.Unlock()
	return s.lastAccess
}

func (s *Session) touch(now time.Time) {
	s.accessMu.Lock()
	s.lastAccess = now
	s.accessMu.Unlock()
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.accessMu.Lock()
	defer s.accessMu.Unlock()
	return now.Sub(s.lastAccess) > ttl
}

// Info is the metadata projection returned by listings.
type Info struct {
	SessionID  string `json:"session_id"`
	VideoID    string `json:"video_id"`
	VideoTitle string `json:"video_title"`
	Channel    string `json:"channel_name"`
	CreatedAt  string `json:"created_at"`
	LastAccess string `json:"last_accessed"`
}

// Info returns the session's metadata projection.
func (s *Session) Info() Info {
	return Info{
		SessionID:  s.ID,
		VideoID:    s.VideoID,
		VideoTitle: s.Title,
		Channel:    s.Channel,
		CreatedAt:  s.CreatedAt.UTC().Format(time.RFC3339),
		LastAccess: s.LastAccess().UTC().Format(time.RFC3339),
	}
}
