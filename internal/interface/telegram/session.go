package telegram

import (
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// Remembers the task a chat is currently answering so plain text can be
// resolved against it. In-memory with a TTL; a restart just means the
// user asks for a new task.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultSessionTTL is how long a pending task stays answerable.
const DefaultSessionTTL = 30 * time.Minute

// Session is the pending task of one chat.
type Session struct {
	TaskID     int64
	ExamNumber int
	ExpiresAt  time.Time
}

// SessionStore keeps pending tasks keyed by chat ID.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
	ttl      time.Duration
}

// NewSessionStore creates a store with the given TTL.
// A non-positive TTL falls back to the default.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[int64]Session),
		ttl:      ttl,
	}
}

// Put remembers the pending task of a chat, replacing any previous one.
func (s *SessionStore) Put(chatID, taskID int64, examNumber int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = Session{
		TaskID:     taskID,
		ExamNumber: examNumber,
		ExpiresAt:  time.Now().Add(s.ttl),
	}
}

// Get returns the pending task of a chat, if any.
func (s *SessionStore) Get(chatID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	if time.Now().After(sess.ExpiresAt) {
		delete(s.sessions, chatID)
		return Session{}, false
	}
	return sess, true
}

// Delete forgets the pending task of a chat.
func (s *SessionStore) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

// Purge drops all expired sessions and returns how many were removed.
func (s *SessionStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for chatID, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, chatID)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired included.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
