package audit

import (
	"time"

	id "trustrent/pkg/domain"
)

// Action names the audited operation.
type Action string

const (
	ActionUserRegistered Action = "user_registered"
	ActionUserVerified   Action = "user_verified"
	ActionUserRejected   Action = "user_rejected"
	ActionLoginSucceeded Action = "login_succeeded"
	ActionLoginDenied    Action = "login_denied"
)

// Event is emitted from domain logic to capture key actions in the
// verification workflow. Keep it transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time
	Action    Action
	UserID    id.UserID
	// ActorID identifies who performed the action when different from the
	// subject, e.g. the administrator deciding a verification.
	ActorID   string
	Email     string
	RequestID string
	Reason    string
}
