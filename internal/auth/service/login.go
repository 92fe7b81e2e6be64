package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"trustrent/internal/audit"
	"trustrent/internal/auth/device"
	authmodels "trustrent/internal/auth/models"
	sessionstore "trustrent/internal/auth/store/session"
	"trustrent/internal/identity/models"
	id "trustrent/pkg/domain"
	dErrors "trustrent/pkg/domain-errors"
	"trustrent/pkg/platform/middleware/metadata"
	"trustrent/pkg/platform/sentinel"
	"trustrent/pkg/requestcontext"
)

// dummyHash absorbs the bcrypt cost on lookups for unknown emails so response
// timing does not reveal whether an address is registered.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("equalize-compare-cost"), bcrypt.DefaultCost)

// AuthResult is returned on a successful login.
type AuthResult struct {
	AccessToken string                    `json:"access_token"`
	TokenType   string                    `json:"token_type"`
	ExpiresIn   int64                     `json:"expires_in"`
	Role        string                    `json:"role"`
	UserID      string                    `json:"user_id"`
	Session     authmodels.SessionSummary `json:"session"`
}

// Authenticate runs the access gate: credentials first, verification second.
// Unknown email and wrong password collapse into one unauthorized error. A
// correct credential against an unverified account fails with
// verification_pending carrying the account's state; no session is created
// and nothing on the record changes.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	now := requestcontext.Now(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Burn the same bcrypt cost as a real comparison.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			s.metrics.IncrementLogin("invalid_credentials")
			s.denied(ctx, id.UserID{}, email, "unknown email")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		s.metrics.IncrementLogin("error")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "user store unavailable")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.metrics.IncrementLogin("invalid_credentials")
		s.denied(ctx, user.ID, email, "wrong password")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	if user.VerificationState != models.StateVerified {
		result := "verification_pending"
		if user.VerificationState == models.StateRejected {
			result = "rejected"
		}
		s.metrics.IncrementLogin(result)
		s.denied(ctx, user.ID, email, "account not verified")
		return nil, dErrors.New(dErrors.CodeVerificationPending, "account has not been verified").
			WithMeta("state", string(user.VerificationState))
	}

	userAgent := requestcontext.UserAgent(ctx)
	session := &authmodels.Session{
		ID:              id.NewSessionID(),
		UserID:          user.ID,
		Role:            string(user.Role),
		Device:          device.ParseUserAgent(userAgent),
		FingerprintHash: s.devices.ComputeFingerprint(userAgent),
		IPAddress:       metadata.GetClientIP(ctx),
		Status:          authmodels.SessionStatusActive,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.sessionTTL),
		LastSeenAt:      now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.metrics.IncrementLogin("error")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "session store unavailable")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, session.ID, string(user.Role), now, s.sessionTTL)
	if err != nil {
		s.metrics.IncrementLogin("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "sign access token")
	}

	// last_login is advisory; a failed write must not block the login.
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.WarnContext(ctx, "record last login failed",
			"user_id", user.ID.String(),
			"error", err,
		)
	}

	s.metrics.IncrementLogin("session_issued")
	s.logger.InfoContext(ctx, "login succeeded",
		"user_id", user.ID.String(),
		"session_id", session.ID.String(),
		"role", string(user.Role),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:    audit.ActionLoginSucceeded,
		UserID:    user.ID,
		Email:     email,
		RequestID: requestcontext.RequestID(ctx),
	})

	return &AuthResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.sessionTTL.Seconds()),
		Role:        string(user.Role),
		UserID:      user.ID.String(),
		Session:     session.Summary(),
	}, nil
}

// Logout revokes the caller's session. Revoking twice is a no-op success so
// clients can retry safely.
func (s *Service) Logout(ctx context.Context, sessionID id.SessionID) error {
	err := s.sessions.RevokeSessionIfActive(ctx, sessionID, requestcontext.Now(ctx))
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "session revoked",
			"session_id", sessionID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "session not found")
	case errors.Is(err, sessionstore.ErrSessionRevoked):
		// Logout is idempotent.
		return nil
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "session store unavailable")
	}
}

func (s *Service) denied(ctx context.Context, userID id.UserID, email, reason string) {
	s.logger.WarnContext(ctx, "login denied",
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:    audit.ActionLoginDenied,
		UserID:    userID,
		Email:     email,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
}
