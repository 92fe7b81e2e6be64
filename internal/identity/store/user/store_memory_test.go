package user

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustrent/internal/identity/models"
	id "trustrent/pkg/domain"
	"trustrent/pkg/platform/sentinel"
)

type UserStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *UserStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestUserStoreSuite(t *testing.T) {
	suite.Run(t, new(UserStoreSuite))
}

func (s *UserStoreSuite) newUser(email, idValue string) *models.User {
	u, err := models.NewUser(id.NewUserID(), "Ama", "Mensah", email,
		"+233201234567", "$2a$10$hash", models.RolePropertyBuyer,
		models.IDTypeGhanaCard, idValue, time.Now())
	s.Require().NoError(err)
	return u
}

func (s *UserStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds user by ID and email", func() {
		u := s.newUser("ama@example.com", "GHA-1")
		s.Require().NoError(s.store.Create(s.ctx, u))

		byID, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(u.Email, byID.Email)

		byEmail, err := s.store.FindByEmail(s.ctx, "ama@example.com")
		s.Require().NoError(err)
		s.Equal(u.ID, byEmail.ID)
	})

	s.Run("email lookup is case-insensitive", func() {
		u := s.newUser("Kofi@Example.com", "GHA-2")
		s.Require().NoError(s.store.Create(s.ctx, u))

		found, err := s.store.FindByEmail(s.ctx, "kofi@example.com")
		s.Require().NoError(err)
		s.Equal(u.ID, found.ID)
	})

	s.Run("returns ErrNotFound for unknown id and email", func() {
		_, err := s.store.FindByID(s.ctx, id.NewUserID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.FindByEmail(s.ctx, "nobody@example.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *UserStoreSuite) TestUniqueness() {
	s.Run("rejects duplicate email", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newUser("dup@example.com", "GHA-10")))

		err := s.store.Create(s.ctx, s.newUser("dup@example.com", "GHA-11"))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("rejects duplicate identity document", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newUser("a@example.com", "GHA-20")))

		err := s.store.Create(s.ctx, s.newUser("b@example.com", "GHA-20"))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("same id_value under a different id_type is allowed", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newUser("c@example.com", "DOC-1")))

		other := s.newUser("d@example.com", "DOC-1")
		other.IDType = models.IDTypePassport
		s.Require().NoError(s.store.Create(s.ctx, other))
	})

	s.Run("failed insert leaves no record behind", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newUser("e@example.com", "GHA-30")))
		dup := s.newUser("e@example.com", "GHA-31")
		s.Require().Error(s.store.Create(s.ctx, dup))

		_, err := s.store.FindByID(s.ctx, dup.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *UserStoreSuite) TestConcurrentDuplicateInsert() {
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(s.ctx, s.newUser("race@example.com", "GHA-RACE"))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyUsed) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should observe the conflict")
}

func (s *UserStoreSuite) TestListPending() {
	s.Run("orders by created_at ascending", func() {
		base := time.Now()
		newest := s.newUser("newest@example.com", "GHA-41")
		newest.CreatedAt = base.Add(2 * time.Hour)
		oldest := s.newUser("oldest@example.com", "GHA-40")
		oldest.CreatedAt = base
		middle := s.newUser("middle@example.com", "GHA-42")
		middle.CreatedAt = base.Add(time.Hour)

		for _, u := range []*models.User{newest, oldest, middle} {
			s.Require().NoError(s.store.Create(s.ctx, u))
		}

		pending, err := s.store.ListPending(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(pending, 3)
		s.Equal("oldest@example.com", pending[0].Email)
		s.Equal("middle@example.com", pending[1].Email)
		s.Equal("newest@example.com", pending[2].Email)
	})

	s.Run("decided records leave the queue immediately", func() {
		u := s.newUser("decided@example.com", "GHA-50")
		s.Require().NoError(s.store.Create(s.ctx, u))

		applied, err := s.store.ApplyDecision(s.ctx, u.ID, models.Decision{
			Outcome: models.StateVerified, DecidedBy: "admin1", DecidedAt: time.Now(),
		})
		s.Require().NoError(err)
		s.True(applied)

		pending, err := s.store.ListPending(s.ctx)
		s.Require().NoError(err)
		for _, p := range pending {
			s.NotEqual(u.ID, p.ID)
		}
	})
}

func (s *UserStoreSuite) TestApplyDecision() {
	s.Run("applies exactly once", func() {
		u := s.newUser("once@example.com", "GHA-60")
		s.Require().NoError(s.store.Create(s.ctx, u))

		first := models.Decision{Outcome: models.StateVerified, DecidedBy: "admin1", DecidedAt: time.Now()}
		applied, err := s.store.ApplyDecision(s.ctx, u.ID, first)
		s.Require().NoError(err)
		s.True(applied)

		second := models.Decision{Outcome: models.StateRejected, DecidedBy: "admin2", DecidedAt: time.Now().Add(time.Minute)}
		applied, err = s.store.ApplyDecision(s.ctx, u.ID, second)
		s.Require().NoError(err)
		s.False(applied, "decided records accept no further decisions")

		stored, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(models.StateVerified, stored.VerificationState)
		s.Equal("admin1", stored.VerifiedBy)
		s.Require().NotNil(stored.VerifiedAt)
		s.Equal(first.DecidedAt, *stored.VerifiedAt)
	})

	s.Run("missing record is not applied", func() {
		applied, err := s.store.ApplyDecision(s.ctx, id.NewUserID(), models.Decision{
			Outcome: models.StateVerified, DecidedBy: "admin1", DecidedAt: time.Now(),
		})
		s.Require().NoError(err)
		s.False(applied)
	})

	s.Run("concurrent opposing decisions have one winner", func() {
		u := s.newUser("contested@example.com", "GHA-61")
		s.Require().NoError(s.store.Create(s.ctx, u))

		outcomes := []models.VerificationState{models.StateVerified, models.StateRejected}
		var wg sync.WaitGroup
		var appliedCount atomic.Int32
		for _, outcome := range outcomes {
			wg.Add(1)
			go func(out models.VerificationState) {
				defer wg.Done()
				applied, err := s.store.ApplyDecision(s.ctx, u.ID, models.Decision{
					Outcome: out, DecidedBy: "admin-" + string(out), DecidedAt: time.Now(),
				})
				s.NoError(err)
				if applied {
					appliedCount.Add(1)
				}
			}(outcome)
		}
		wg.Wait()

		s.Equal(int32(1), appliedCount.Load(), "exactly one decision should apply")

		stored, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.True(stored.VerificationState.IsTerminal())
		s.Equal("admin-"+string(stored.VerificationState), stored.VerifiedBy)
	})
}

func (s *UserStoreSuite) TestRecordLogin() {
	u := s.newUser("login@example.com", "GHA-70")
	s.Require().NoError(s.store.Create(s.ctx, u))

	at := time.Now()
	s.Require().NoError(s.store.RecordLogin(s.ctx, u.ID, at))

	stored, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.LastLoginAt)
	s.Equal(at, *stored.LastLoginAt)

	s.Require().ErrorIs(s.store.RecordLogin(s.ctx, id.NewUserID(), at), sentinel.ErrNotFound)
}
