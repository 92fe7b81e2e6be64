package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"trustrent/internal/audit"
	"trustrent/internal/auth/store/session"
	jwttoken "trustrent/internal/jwt_token"
	"trustrent/internal/identity/models"
	"trustrent/internal/identity/store/user"
	id "trustrent/pkg/domain"
	dErrors "trustrent/pkg/domain-errors"
	"trustrent/pkg/platform/middleware/metadata"
	"trustrent/pkg/requestcontext"
)

type AccessGateSuite struct {
	suite.Suite
	users    *user.InMemory
	sessions *session.InMemorySessionStore
	events   *audit.InMemoryStore
	svc      *Service
	ctx      context.Context
}

func (s *AccessGateSuite) SetupTest() {
	s.users = user.NewInMemory()
	s.sessions = session.New()
	s.events = audit.NewInMemoryStore()
	tokens := jwttoken.NewJWTService("test-signing-key", "trustrent", "trustrent-api")
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.svc = NewService(s.users, s.sessions, tokens,
		WithLogger(logger),
		WithAudit(s.events),
		WithSessionTTL(time.Hour),
	)
	s.ctx = context.Background()
}

func TestAccessGateSuite(t *testing.T) {
	suite.Run(t, new(AccessGateSuite))
}

// seedUser creates an account in the given verification state with the given
// plaintext password.
func (s *AccessGateSuite) seedUser(email, password string, state models.VerificationState) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.Require().NoError(err)

	u, err := models.NewUser(id.NewUserID(),
		"Kofi", "Asante", email, "+233209876543",
		string(hash), models.RolePropertyOwner, models.IDTypeGhanaCard, "GHA-"+email,
		time.Now(),
	)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(s.ctx, u))

	if state != models.StatePending {
		decision, err := models.NewDecision(state, "seed-admin", time.Now())
		s.Require().NoError(err)
		applied, err := s.users.ApplyDecision(s.ctx, u.ID, decision)
		s.Require().NoError(err)
		s.Require().True(applied)
	}
	return u
}

func (s *AccessGateSuite) TestAuthenticate() {
	s.Run("verified account gets a session and token", func() {
		u := s.seedUser("owner@example.com", "hunter2hunter2", models.StateVerified)
		ctx := metadata.WithClientMetadata(s.ctx, "203.0.113.9",
			"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")

		res, err := s.svc.Authenticate(ctx, "owner@example.com", "hunter2hunter2")
		s.Require().NoError(err)
		s.NotEmpty(res.AccessToken)
		s.Equal("Bearer", res.TokenType)
		s.Equal(int64(3600), res.ExpiresIn)
		s.Equal(string(models.RolePropertyOwner), res.Role)
		s.Equal(u.ID.String(), res.UserID)
		s.Contains(res.Session.Device, "Firefox")
		s.Equal("203.0.113.9", res.Session.IPAddress)

		sessionID, err := id.ParseSessionID(res.Session.SessionID)
		s.Require().NoError(err)
		stored, err := s.sessions.FindByID(ctx, sessionID)
		s.Require().NoError(err)
		s.Equal(u.ID, stored.UserID)

		events := s.events.ListByUser(ctx, u.ID)
		s.Require().NotEmpty(events)
		s.Equal(audit.ActionLoginSucceeded, events[len(events)-1].Action)
	})

	s.Run("records last login timestamp", func() {
		u := s.seedUser("lastlogin@example.com", "hunter2hunter2", models.StateVerified)
		now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(s.ctx, now)

		_, err := s.svc.Authenticate(ctx, "lastlogin@example.com", "hunter2hunter2")
		s.Require().NoError(err)

		stored, err := s.users.FindByID(ctx, u.ID)
		s.Require().NoError(err)
		s.Require().NotNil(stored.LastLoginAt)
		s.Equal(now, *stored.LastLoginAt)
	})

	s.Run("email match is case-insensitive", func() {
		s.seedUser("case@example.com", "hunter2hunter2", models.StateVerified)

		_, err := s.svc.Authenticate(s.ctx, "Case@Example.COM", "hunter2hunter2")
		s.Require().NoError(err)
	})

	s.Run("unknown email and wrong password are indistinguishable", func() {
		u := s.seedUser("known@example.com", "hunter2hunter2", models.StateVerified)

		_, errUnknown := s.svc.Authenticate(s.ctx, "nobody@example.com", "hunter2hunter2")
		_, errWrongPw := s.svc.Authenticate(s.ctx, "known@example.com", "not-the-password")

		s.Require().Error(errUnknown)
		s.Require().Error(errWrongPw)
		s.True(dErrors.HasCode(errUnknown, dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(errWrongPw, dErrors.CodeUnauthorized))
		s.Equal(errUnknown.Error(), errWrongPw.Error(), "messages must not reveal which part failed")

		events := s.events.ListByUser(s.ctx, u.ID)
		s.Require().NotEmpty(events)
		s.Equal(audit.ActionLoginDenied, events[len(events)-1].Action)
	})

	s.Run("pending account is blocked with its state", func() {
		u := s.seedUser("pending@example.com", "hunter2hunter2", models.StatePending)

		_, err := s.svc.Authenticate(s.ctx, "pending@example.com", "hunter2hunter2")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeVerificationPending))
		s.Equal("pending", dErrors.MetaValue(err, "state"))

		sessions, listErr := s.sessions.ListByUser(s.ctx, u.ID)
		s.Require().NoError(listErr)
		s.Empty(sessions, "no session may exist for an unverified account")
	})

	s.Run("rejected account is blocked with its state", func() {
		s.seedUser("rejected@example.com", "hunter2hunter2", models.StateRejected)

		_, err := s.svc.Authenticate(s.ctx, "rejected@example.com", "hunter2hunter2")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeVerificationPending))
		s.Equal("rejected", dErrors.MetaValue(err, "state"))
	})

	s.Run("wrong password on unverified account reports credentials, not state", func() {
		s.seedUser("order@example.com", "hunter2hunter2", models.StatePending)

		_, err := s.svc.Authenticate(s.ctx, "order@example.com", "wrong-password")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized),
			"credential check must run before the verification gate")
	})
}

func (s *AccessGateSuite) TestLogout() {
	s.Run("revokes the session", func() {
		s.seedUser("logout@example.com", "hunter2hunter2", models.StateVerified)
		res, err := s.svc.Authenticate(s.ctx, "logout@example.com", "hunter2hunter2")
		s.Require().NoError(err)

		sessionID, err := id.ParseSessionID(res.Session.SessionID)
		s.Require().NoError(err)

		s.Require().NoError(s.svc.Logout(s.ctx, sessionID))

		stored, err := s.sessions.FindByID(s.ctx, sessionID)
		s.Require().NoError(err)
		s.False(stored.Active(time.Now()))
	})

	s.Run("second logout is a no-op success", func() {
		s.seedUser("logout2@example.com", "hunter2hunter2", models.StateVerified)
		res, err := s.svc.Authenticate(s.ctx, "logout2@example.com", "hunter2hunter2")
		s.Require().NoError(err)

		sessionID, err := id.ParseSessionID(res.Session.SessionID)
		s.Require().NoError(err)

		s.Require().NoError(s.svc.Logout(s.ctx, sessionID))
		s.Require().NoError(s.svc.Logout(s.ctx, sessionID))
	})

	s.Run("unknown session is not found", func() {
		err := s.svc.Logout(s.ctx, id.NewSessionID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
