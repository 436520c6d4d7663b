package server

import (
	"sync"
	"time"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/shared"
)

// DefaultSessionTTL applies when a store is created with a non-positive ttl.
const DefaultSessionTTL = time.Hour

type session struct {
	cred    models.Credential
	expires time.Time
}

// SessionStore holds credentials in memory, keyed by opaque session ids.
//
// Expired entries are dropped on access.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates an empty store whose sessions live for ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{sessions: make(map[string]session), ttl: ttl, now: time.Now}
}

// TTL returns the session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Create stores cred and returns its session id.
func (s *SessionStore) Create(cred models.Credential) (string, error) {
	if !cred.Valid() {
		return "", shared.ErrNotAuthenticated
	}

	id, err := shared.GenerateState()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.sessions[id] = session{cred: cred, expires: s.now().Add(s.ttl)}
	return id, nil
}

// Get returns the credential for id if the session exists and has not expired.
func (s *SessionStore) Get(id string) (models.Credential, bool) {
	if id == "" {
		return models.Credential{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return models.Credential{}, false
	}
	if !s.now().Before(sess.expires) {
		delete(s.sessions, id)
		return models.Credential{}, false
	}
	return sess.cred, true
}

// Delete removes a session. Unknown ids are ignored.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	return len(s.sessions)
}

// sweep must be called with mu held.
func (s *SessionStore) sweep() {
	now := s.now()
	for id, sess := range s.sessions {
		if !now.Before(sess.expires) {
			delete(s.sessions, id)
		}
	}
}
