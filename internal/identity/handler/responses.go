package handler

import (
	"time"

	"trustrent/internal/identity/models"
	"trustrent/internal/identity/service"
)

// UserResponse is the outward projection of an account. It carries the
// submitted document type and value so reviewers can check them against the
// issuing registry; the password hash and internal audit fields never leave
// the service.
type UserResponse struct {
	ID                string    `json:"id"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Email             string    `json:"email"`
	PhoneNumber       string    `json:"phone_number,omitempty"`
	Role              string    `json:"role"`
	IDType            string    `json:"id_type"`
	IDValue           string    `json:"id_value"`
	VerificationState string    `json:"verification_state"`
	CreatedAt         time.Time `json:"created_at"`
}

func FromUser(u *models.User) UserResponse {
	return UserResponse{
		ID:                u.ID.String(),
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             u.Email,
		PhoneNumber:       u.PhoneNumber,
		Role:              string(u.Role),
		IDType:            string(u.IDType),
		IDValue:           u.IDValue,
		VerificationState: string(u.VerificationState),
		CreatedAt:         u.CreatedAt,
	}
}

// RegisterResponse tells the client where the account landed: always pending.
type RegisterResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// PendingListResponse is the review queue, oldest first.
type PendingListResponse struct {
	Pending []UserResponse `json:"pending"`
	Count   int            `json:"count"`
}

func FromPending(users []*models.User) PendingListResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, FromUser(u))
	}
	return PendingListResponse{Pending: out, Count: len(out)}
}

// DecisionResponse reports how a ruling concluded. Status already_decided
// with a 200 means another administrator won the race.
type DecisionResponse struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
	State  string `json:"state"`
}

func FromDecision(userID string, result *service.DecisionResult) DecisionResponse {
	return DecisionResponse{
		UserID: userID,
		Status: string(result.Status),
		State:  string(result.State),
	}
}
