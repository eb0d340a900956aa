package storage

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/eugenenazirov/plate-calculator/internal/calculator"
)

const (
	// DefaultHistoryLimit is the number of results kept per session.
	DefaultHistoryLimit = 10
	// DefaultMaxSessions bounds how many sessions are retained at once.
	DefaultMaxSessions = 1000
)

var (
	// ErrInvalidSession indicates a missing session identifier.
	ErrInvalidSession = errors.New("session id must not be empty")
)

// Entry is one calculation recorded in a session history.
type Entry struct {
	Mode      calculator.Mode   `json:"mode"`
	Result    calculator.Result `json:"result"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Storage keeps the calculation history of each session.
type Storage interface {
	Append(sessionID string, entry Entry) error
	List(sessionID string) ([]Entry, error)
	Clear(sessionID string) error
}

// Option configures a MemoryStorage.
type Option func(*MemoryStorage)

// WithLimit sets how many entries each session keeps. Non-positive values are ignored.
func WithLimit(limit int) Option {
	return func(s *MemoryStorage) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithMaxSessions sets how many sessions are retained before the least
// recently used one is dropped. Non-positive values are ignored.
func WithMaxSessions(n int) Option {
	return func(s *MemoryStorage) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

type session struct {
	entries  []Entry
	lastUsed uint64
}

// MemoryStorage keeps histories in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu          sync.RWMutex
	sessions    map[string]*session
	limit       int
	maxSessions int
	seq         uint64
}

// NewMemoryStorage creates an empty history store.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	s := &MemoryStorage{
		sessions:    make(map[string]*session),
		limit:       DefaultHistoryLimit,
		maxSessions: DefaultMaxSessions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limit reports how many entries each session keeps.
func (s *MemoryStorage) Limit() int {
	return s.limit
}

// Append records entry as the newest item of the session, dropping the oldest
// entries beyond the limit.
func (s *MemoryStorage) Append(sessionID string, entry Entry) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidSession
	}
	entry.Result = entry.Result.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	sess, ok := s.sessions[sessionID]
	if !ok {
		if len(s.sessions) >= s.maxSessions {
			s.evictLocked()
		}
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	sess.lastUsed = s.seq

	entries := make([]Entry, 0, s.limit)
	entries = append(entries, entry)
	for _, e := range sess.entries {
		if len(entries) == s.limit {
			break
		}
		entries = append(entries, e)
	}
	sess.entries = entries

	return nil
}

// List returns a copy of the session history, newest first. Unknown sessions
// have an empty history.
func (s *MemoryStorage) List(sessionID string) ([]Entry, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return []Entry{}, nil
	}
	return cloneEntries(sess.entries), nil
}

// Clear forgets the session history.
func (s *MemoryStorage) Clear(sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	return nil
}

func (s *MemoryStorage) evictLocked() {
	var (
		oldestID  string
		oldestSeq uint64
		found     bool
	)
	for id, sess := range s.sessions {
		if !found || sess.lastUsed < oldestSeq {
			oldestID, oldestSeq, found = id, sess.lastUsed, true
		}
	}
	if found {
		delete(s.sessions, oldestID)
	}
}

func cloneEntries(src []Entry) []Entry {
	out := make([]Entry, len(src))
	for i, e := range src {
		out[i] = e
		out[i].Result = e.Result.Clone()
	}
	return out
}
