package verification

import (
	"context"
	"sync"
	"time"
)

// SessionStore holds secure sessions keyed by project. Implementations must
// treat an expired session as absent, never as stale data.
type SessionStore interface {
	Save(ctx context.Context, session SecureSession) error
	// Get returns the live session for the project, or found=false when
	// none exists or it has expired.
	Get(ctx context.Context, projectID string) (session SecureSession, found bool, err error)
	AddAction(ctx context.Context, projectID, action string) error
	Delete(ctx context.Context, projectID string) error
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]SecureSession
}

// NewMemorySessionStore constructs an in-memory session store for tests and
// development mode. Expiry is evaluated lazily on read.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]SecureSession)}
}

func (s *memorySessionStore) Save(_ context.Context, session SecureSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ProjectID] = session
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, projectID string) (SecureSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[projectID]
	if !ok {
		return SecureSession{}, false, nil
	}
	if !time.Now().UTC().Before(session.ExpiresAt) {
		delete(s.sessions, projectID)
		return SecureSession{}, false, nil
	}
	return session, true, nil
}

func (s *memorySessionStore) AddAction(_ context.Context, projectID, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[projectID]
	if !ok || !time.Now().UTC().Before(session.ExpiresAt) {
		return nil
	}
	if !session.HasAction(action) {
		session.Actions = append(session.Actions, action)
		s.sessions[projectID] = session
	}
	return nil
}

func (s *memorySessionStore) Delete(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, projectID)
	return nil
}
