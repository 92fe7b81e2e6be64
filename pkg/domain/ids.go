package domain

import (
	"github.com/google/uuid"

	dErrors "trustrent/pkg/domain-errors"
)

// Typed identifiers keep user and session IDs from being mixed up at call
// sites. They are plain UUIDs underneath; the distinction only exists at
// compile time.
type (
	UserID    uuid.UUID
	SessionID uuid.UUID
)

// NewUserID mints a random user ID.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// ParseUserID validates and returns a UserID.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	u, err := parseID(s)
	return UserID(u), err
}

func (id UserID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the ID is the zero UUID.
func (id UserID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// NewSessionID mints a random session ID.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// ParseSessionID validates and returns a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseID(s)
	return SessionID(u), err
}

func (id SessionID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the ID is the zero UUID.
func (id SessionID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func parseID(s string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid id format")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
