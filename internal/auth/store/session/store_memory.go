package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trustrent/internal/auth/models"
	id "trustrent/pkg/domain"
	"trustrent/pkg/platform/sentinel"
)

// ErrSessionRevoked marks a revoke attempt on a session that is already
// revoked. Callers treat it as idempotent success or surface it, their call.
var ErrSessionRevoked = errors.New("session already revoked")

// InMemorySessionStore is the non-persistent session store used in tests and
// single-node development runs.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
	byUser   map[id.UserID]map[id.SessionID]struct{}
}

func New() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[id.SessionID]*models.Session),
		byUser:   make(map[id.UserID]map[id.SessionID]struct{}),
	}
}

// Create stores a new session.
func (s *InMemorySessionStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *session
	s.sessions[session.ID] = &cp
	if s.byUser[session.UserID] == nil {
		s.byUser[session.UserID] = make(map[id.SessionID]struct{})
	}
	s.byUser[session.UserID][session.ID] = struct{}{}
	return nil
}

// FindByID returns the session, or sentinel.ErrNotFound when absent.
func (s *InMemorySessionStore) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, sentinel.ErrNotFound)
	}
	cp := *session
	return &cp, nil
}

// ListByUser returns all stored sessions belonging to the user.
func (s *InMemorySessionStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	out := make([]*models.Session, 0, len(ids))
	for sessionID := range ids {
		if session, ok := s.sessions[sessionID]; ok {
			cp := *session
			out = append(out, &cp)
		}
	}
	return out, nil
}

// RevokeSessionIfActive flips an active session to revoked and stamps
// RevokedAt. Revoking twice returns ErrSessionRevoked; a missing session
// returns sentinel.ErrNotFound.
func (s *InMemorySessionStore) RevokeSessionIfActive(_ context.Context, sessionID id.SessionID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, sentinel.ErrNotFound)
	}
	if session.Status == models.SessionStatusRevoked {
		return ErrSessionRevoked
	}

	session.Status = models.SessionStatusRevoked
	session.RevokedAt = &at
	return nil
}

// DeleteSessionsByUser removes every session the user owns. Returns
// sentinel.ErrNotFound when the user has none.
func (s *InMemorySessionStore) DeleteSessionsByUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byUser[userID]
	if len(ids) == 0 {
		return fmt.Errorf("sessions for user %s: %w", userID, sentinel.ErrNotFound)
	}
	for sessionID := range ids {
		delete(s.sessions, sessionID)
	}
	delete(s.byUser, userID)
	return nil
}
