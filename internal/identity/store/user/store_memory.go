package user

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"trustrent/internal/identity/models"
	id "trustrent/pkg/domain"
	"trustrent/pkg/platform/sentinel"
)

// InMemory keeps the development and test implementation lightweight. It
// favors clarity over performance but honors the same atomicity contract as
// the Postgres store: insert-with-uniqueness and the decision compare-and-set
// each happen under a single lock acquisition.
type InMemory struct {
	mu         sync.RWMutex
	users      map[id.UserID]models.User
	byEmail    map[string]id.UserID
	byDocument map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:      make(map[id.UserID]models.User),
		byEmail:    make(map[string]id.UserID),
		byDocument: make(map[string]id.UserID),
	}
}

func documentKey(idType models.IDType, idValue string) string {
	return string(idType) + "|" + idValue
}

// Create inserts the record iff its email and identity document are both
// unused. Check and insert happen atomically; callers never race between a
// lookup and the write.
func (s *InMemory) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	emailKey := strings.ToLower(u.Email)
	if _, taken := s.byEmail[emailKey]; taken {
		return fmt.Errorf("email: %w", sentinel.ErrAlreadyUsed)
	}
	docKey := documentKey(u.IDType, u.IDValue)
	if _, taken := s.byDocument[docKey]; taken {
		return fmt.Errorf("identity document: %w", sentinel.ErrAlreadyUsed)
	}

	s.users[u.ID] = *u
	s.byEmail[emailKey] = u.ID
	s.byDocument[docKey] = u.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		return &u, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if userID, ok := s.byEmail[strings.ToLower(email)]; ok {
		u := s.users[userID]
		return &u, nil
	}
	return nil, sentinel.ErrNotFound
}

// ListPending returns the live review queue, oldest registration first.
func (s *InMemory) ListPending(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]*models.User, 0)
	for _, u := range s.users {
		if u.VerificationState == models.StatePending {
			copied := u
			pending = append(pending, &copied)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID.String() < pending[j].ID.String()
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

// ApplyDecision performs the conditional update "set outcome where state is
// pending". Returns false without error when the condition does not match,
// whether the record is already decided or absent; the caller disambiguates.
func (s *InMemory) ApplyDecision(_ context.Context, userID id.UserID, d models.Decision) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok || !u.VerificationState.CanTransitionTo(d.Outcome) {
		return false, nil
	}

	decidedAt := d.DecidedAt
	u.VerificationState = d.Outcome
	u.VerifiedAt = &decidedAt
	u.VerifiedBy = d.DecidedBy
	s.users[userID] = u
	return true, nil
}

// RecordLogin stamps the last successful login time.
func (s *InMemory) RecordLogin(_ context.Context, userID id.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.LastLoginAt = &at
	s.users[userID] = u
	return nil
}
