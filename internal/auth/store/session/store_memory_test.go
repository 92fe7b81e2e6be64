package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustrent/internal/auth/models"
	id "trustrent/pkg/domain"
	"trustrent/pkg/platform/sentinel"
)

type SessionStoreSuite struct {
	suite.Suite
	store *InMemorySessionStore
}

func (s *SessionStoreSuite) SetupTest() {
	s.store = New()
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func makeSession(userID id.UserID) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:         id.NewSessionID(),
		UserID:     userID,
		Role:       "property_buyer",
		Device:     "Chrome on Linux",
		Status:     models.SessionStatusActive,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
		LastSeenAt: now,
	}
}

// TestSessionLookup tests session retrieval behavior.
func (s *SessionStoreSuite) TestSessionLookup() {
	s.Run("returns stored session when found", func() {
		session := makeSession(id.NewUserID())

		err := s.store.Create(context.Background(), session)
		s.Require().NoError(err)

		found, err := s.store.FindByID(context.Background(), session.ID)
		s.Require().NoError(err)
		s.Equal(session, found)
	})

	s.Run("returns ErrNotFound when session does not exist", func() {
		_, err := s.store.FindByID(context.Background(), id.NewSessionID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("mutating a returned session does not touch the store", func() {
		session := makeSession(id.NewUserID())
		s.Require().NoError(s.store.Create(context.Background(), session))

		found, err := s.store.FindByID(context.Background(), session.ID)
		s.Require().NoError(err)
		found.Device = "tampered"

		again, err := s.store.FindByID(context.Background(), session.ID)
		s.Require().NoError(err)
		s.Equal("Chrome on Linux", again.Device)
	})
}

// TestSessionRevocation tests the revocation behavior and idempotency.
func (s *SessionStoreSuite) TestSessionRevocation() {
	s.Run("revokes active session and sets RevokedAt timestamp", func() {
		session := makeSession(id.NewUserID())
		s.Require().NoError(s.store.Create(context.Background(), session))

		err := s.store.RevokeSessionIfActive(context.Background(), session.ID, time.Now())
		s.Require().NoError(err)

		found, err := s.store.FindByID(context.Background(), session.ID)
		s.Require().NoError(err)
		s.Equal(models.SessionStatusRevoked, found.Status)
		s.Require().NotNil(found.RevokedAt)
	})

	s.Run("revoking already-revoked session returns ErrSessionRevoked", func() {
		session := makeSession(id.NewUserID())
		s.Require().NoError(s.store.Create(context.Background(), session))
		s.Require().NoError(s.store.RevokeSessionIfActive(context.Background(), session.ID, time.Now()))

		err := s.store.RevokeSessionIfActive(context.Background(), session.ID, time.Now())
		s.Require().ErrorIs(err, ErrSessionRevoked)
	})

	s.Run("revoking non-existent session returns ErrNotFound", func() {
		err := s.store.RevokeSessionIfActive(context.Background(), id.NewSessionID(), time.Now())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestSessionDeletionByUser tests bulk deletion for user cleanup.
func (s *SessionStoreSuite) TestSessionDeletionByUser() {
	s.Run("deletes all sessions for user and leaves others intact", func() {
		userID := id.NewUserID()
		matching := makeSession(userID)
		other := makeSession(id.NewUserID())

		s.Require().NoError(s.store.Create(context.Background(), matching))
		s.Require().NoError(s.store.Create(context.Background(), other))

		err := s.store.DeleteSessionsByUser(context.Background(), userID)
		s.Require().NoError(err)

		_, err = s.store.FindByID(context.Background(), matching.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		fetchedOther, err := s.store.FindByID(context.Background(), other.ID)
		s.Require().NoError(err)
		s.Equal(other, fetchedOther)
	})

	s.Run("deleting sessions for user with no sessions returns ErrNotFound", func() {
		err := s.store.DeleteSessionsByUser(context.Background(), id.NewUserID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestListByUser tests per-user session listing.
func (s *SessionStoreSuite) TestListByUser() {
	userID := id.NewUserID()
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.Create(context.Background(), makeSession(userID)))
	}
	s.Require().NoError(s.store.Create(context.Background(), makeSession(id.NewUserID())))

	sessions, err := s.store.ListByUser(context.Background(), userID)
	s.Require().NoError(err)
	s.Len(sessions, 3)
	for _, session := range sessions {
		s.Equal(userID, session.UserID)
	}
}
