package state

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds one browser session's uploaded table and its latest run.
// Callers lock the session for the duration of a pipeline run.
type Session struct {
	mu sync.Mutex

	ID       string
	Table    *DataFrame
	LastRun  *Run
	lastSeen time.Time
}

// Lock serialises pipeline runs within the session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// SetTable replaces the uploaded table and clears the previous run.
func (s *Session) SetTable(df *DataFrame) {
	s.Table = df
	s.LastRun = nil
}

// SessionStore keeps sessions in memory. Sessions idle longer than ttl are
// dropped the next time the store is touched.
type SessionStore struct {
	mu sync.RWMutex

	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates an empty store. A zero ttl disables expiry.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the session with the given id, refreshing its idle timer.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	sess, ok := s.sessions[id]
	if ok {
		sess.lastSeen = s.now()
	}
	return sess, ok
}

// Create registers a new session with a random id.
func (s *SessionStore) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	sess := &Session{
		ID:       uuid.NewString(),
		lastSeen: s.now(),
	}
	s.sessions[sess.ID] = sess
	return sess
}

// GetOrCreate returns the session for id or a fresh one when id is unknown.
// The boolean reports whether a new session was created.
func (s *SessionStore) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}
	return s.Create(), true
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) pruneLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
