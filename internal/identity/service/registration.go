package service

import (
	"context"
	"errors"
	"strings"

	"github.com/asaskevich/govalidator"
	"golang.org/x/crypto/bcrypt"

	"trustrent/internal/audit"
	"trustrent/internal/identity/models"
	id "trustrent/pkg/domain"
	dErrors "trustrent/pkg/domain-errors"
	"trustrent/pkg/platform/sentinel"
	"trustrent/pkg/requestcontext"
)

// RegisterParams carries the registration form fields. Password is the only
// place plaintext credentials enter the workflow; it is hashed before the
// record exists.
type RegisterParams struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
	Role        string
	IDType      string
	IDValue     string
}

const minPasswordLength = 8

// Register validates the submission, hashes the credential, and attempts the
// atomic insert. On success the account is in the pending state and the
// caller routes the user to a pending-verification experience; registration
// never issues a session.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	role, err := models.ParseRegisterableRole(params.Role)
	if err != nil {
		s.metrics.IncrementRegistration("invalid")
		return nil, err
	}
	idType, err := models.ParseIDType(params.IDType)
	if err != nil {
		s.metrics.IncrementRegistration("invalid")
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	if !govalidator.IsEmail(email) {
		s.metrics.IncrementRegistration("invalid")
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	if len(params.Password) < minPasswordLength {
		s.metrics.IncrementRegistration("invalid")
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		s.metrics.IncrementRegistration("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	user, err := models.NewUser(id.NewUserID(),
		strings.TrimSpace(params.FirstName),
		strings.TrimSpace(params.LastName),
		email,
		strings.TrimSpace(params.PhoneNumber),
		string(hash),
		role, idType,
		strings.TrimSpace(params.IDValue),
		requestcontext.Now(ctx),
	)
	if err != nil {
		s.metrics.IncrementRegistration("invalid")
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.metrics.IncrementRegistration("duplicate")
			return nil, s.duplicateIdentityError(ctx, email)
		}
		s.metrics.IncrementRegistration("error")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "user store unavailable")
	}

	s.metrics.IncrementRegistration("created")
	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID.String(),
		"role", string(user.Role),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:    audit.ActionUserRegistered,
		UserID:    user.ID,
		Email:     user.Email,
		RequestID: requestcontext.RequestID(ctx),
	})
	return user, nil
}

// duplicateIdentityError names the conflicting attribute. The conflict was
// already detected atomically at insert time; this read only improves the
// message.
func (s *Service) duplicateIdentityError(ctx context.Context, email string) error {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return dErrors.New(dErrors.CodeConflict, "email already registered")
	}
	return dErrors.New(dErrors.CodeConflict, "identity document already registered")
}
