package models

import (
	"time"

	id "trustrent/pkg/domain"
	dErrors "trustrent/pkg/domain-errors"
)

// Role is the account type fixed at registration.
type Role string

const (
	RolePropertyOwner Role = "property_owner"
	RolePropertyBuyer Role = "property_buyer"
	// RoleSysAdmin exists only for seeded administrator accounts; it is never
	// accepted by the public registration endpoint.
	RoleSysAdmin Role = "sys_admin"
)

// ParseRegisterableRole validates a role submitted through registration.
// Only owner and buyer are open for self-registration.
func ParseRegisterableRole(s string) (Role, error) {
	switch Role(s) {
	case RolePropertyOwner, RolePropertyBuyer:
		return Role(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "role must be property_owner or property_buyer")
	}
}

// IDType enumerates the accepted government identity documents.
type IDType string

const (
	IDTypeGhanaCard IDType = "ghana_card"
	IDTypePassport  IDType = "passport"
)

// ParseIDType validates an identity document type.
func ParseIDType(s string) (IDType, error) {
	switch IDType(s) {
	case IDTypeGhanaCard, IDTypePassport:
		return IDType(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "id_type must be ghana_card or passport")
	}
}

// VerificationState is the account's position in the review lifecycle.
//
// Transitions move forward only:
//
//	pending → verified (terminal)
//	pending → rejected (terminal)
type VerificationState string

const (
	StatePending  VerificationState = "pending"
	StateVerified VerificationState = "verified"
	StateRejected VerificationState = "rejected"
)

// ParseOutcome validates an administrator decision outcome. Pending is not a
// valid outcome; a decision always leaves the pending state.
func ParseOutcome(s string) (VerificationState, error) {
	switch VerificationState(s) {
	case StateVerified, StateRejected:
		return VerificationState(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "outcome must be verified or rejected")
	}
}

// CanTransitionTo reports whether the state machine allows moving to next.
// Verified and rejected are terminal.
func (s VerificationState) CanTransitionTo(next VerificationState) bool {
	return s == StatePending && (next == StateVerified || next == StateRejected)
}

// IsTerminal reports whether the state admits no further transitions.
func (s VerificationState) IsTerminal() bool {
	return s == StateVerified || s == StateRejected
}

// User is the aggregate root for an identity record.
//
// Invariants:
//   - Email is unique among all records regardless of state
//   - (IDType, IDValue) is unique among all records regardless of state
//   - VerificationState only moves forward (pending → verified|rejected)
//   - VerifiedAt/VerifiedBy are populated iff VerificationState != pending
//   - CreatedAt, Role, and the identity document are immutable after creation
//
// The store is the sole writer of persisted state; decisions go through its
// conditional-update contract, never through direct field mutation.
type User struct {
	ID                id.UserID         `json:"id"`
	FirstName         string            `json:"firstname"`
	LastName          string            `json:"lastname"`
	Email             string            `json:"email"`
	PhoneNumber       string            `json:"phone_number"`
	PasswordHash      string            `json:"-"`
	Role              Role              `json:"role"`
	IDType            IDType            `json:"id_type"`
	IDValue           string            `json:"id_value"`
	VerificationState VerificationState `json:"verification_state"`
	CreatedAt         time.Time         `json:"created_at"`
	LastLoginAt       *time.Time        `json:"last_login_at,omitempty"`
	VerifiedAt        *time.Time        `json:"verified_at,omitempty"`
	VerifiedBy        string            `json:"verified_by,omitempty"`
}

// NewUser constructs a pending user record, enforcing field invariants.
// The password hash must already be computed; this package never sees
// plaintext credentials.
func NewUser(userID id.UserID, firstName, lastName, email, phone, passwordHash string, role Role, idType IDType, idValue string, now time.Time) (*User, error) {
	if firstName == "" || lastName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "firstname and lastname are required")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	if phone == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "phone_number is required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash cannot be empty")
	}
	if idValue == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "id_value is required")
	}
	return &User{
		ID:                userID,
		FirstName:         firstName,
		LastName:          lastName,
		Email:             email,
		PhoneNumber:       phone,
		PasswordHash:      passwordHash,
		Role:              role,
		IDType:            idType,
		IDValue:           idValue,
		VerificationState: StatePending,
		CreatedAt:         now,
	}, nil
}

// IsVerified reports whether the account has passed review.
func (u *User) IsVerified() bool {
	return u.VerificationState == StateVerified
}

// Decision captures an administrator's verification ruling. Applied to the
// store as a single conditional update scoped by the pending state.
type Decision struct {
	Outcome   VerificationState
	DecidedBy string
	DecidedAt time.Time
}

// NewDecision validates and builds a decision.
func NewDecision(outcome VerificationState, decidedBy string, decidedAt time.Time) (Decision, error) {
	if _, err := ParseOutcome(string(outcome)); err != nil {
		return Decision{}, err
	}
	if decidedBy == "" {
		return Decision{}, dErrors.New(dErrors.CodeInvalidInput, "decision requires an administrator identity")
	}
	return Decision{Outcome: outcome, DecidedBy: decidedBy, DecidedAt: decidedAt}, nil
}
