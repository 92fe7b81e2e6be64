package models

import (
	"time"

	id "trustrent/pkg/domain"
)

// SessionStatus is the lifecycle state of a login session.
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusRevoked SessionStatus = "revoked"
)

// Session is a server-side login session, created only after the access gate
// passes (credentials correct AND account verified). The struct is stored as
// JSON in Redis, so every field carries a tag.
type Session struct {
	ID              id.SessionID  `json:"id"`
	UserID          id.UserID     `json:"user_id"`
	Role            string        `json:"role"`
	Device          string        `json:"device"`
	FingerprintHash string        `json:"fingerprint_hash,omitempty"`
	IPAddress       string        `json:"ip_address,omitempty"`
	Status          SessionStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	ExpiresAt       time.Time     `json:"expires_at"`
	LastSeenAt      time.Time     `json:"last_seen_at"`
	RevokedAt       *time.Time    `json:"revoked_at,omitempty"`
}

// Active reports whether the session is usable at the given instant.
func (s *Session) Active(now time.Time) bool {
	return s.Status == SessionStatusActive && now.Before(s.ExpiresAt)
}

// SessionSummary is the client-facing view of a session.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	Device    string    `json:"device"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Summary projects a session for API responses.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		SessionID: s.ID.String(),
		Device:    s.Device,
		IPAddress: s.IPAddress,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}
