package handler

import (
	"github.com/asaskevich/govalidator"

	dErrors "trustrent/pkg/domain-errors"
)

// RegisterRequest is the registration form payload.
type RegisterRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	IDType      string `json:"id_type"`
	IDValue     string `json:"id_value"`
}

// Validate rejects structurally bad payloads at the transport edge. Domain
// rules (role set, id type set, password policy) are the service's job.
func (r *RegisterRequest) Validate() error {
	if !govalidator.StringLength(r.FirstName, "1", "100") {
		return dErrors.New(dErrors.CodeInvalidInput, "first_name is required")
	}
	if !govalidator.StringLength(r.LastName, "1", "100") {
		return dErrors.New(dErrors.CodeInvalidInput, "last_name is required")
	}
	if !govalidator.StringLength(r.Email, "1", "255") || !govalidator.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	if !govalidator.StringLength(r.Password, "1", "255") {
		return dErrors.New(dErrors.CodeInvalidInput, "password is required")
	}
	if !govalidator.StringLength(r.Role, "1", "50") {
		return dErrors.New(dErrors.CodeInvalidInput, "role is required")
	}
	if !govalidator.StringLength(r.IDType, "1", "50") {
		return dErrors.New(dErrors.CodeInvalidInput, "id_type is required")
	}
	if !govalidator.StringLength(r.IDValue, "1", "100") {
		return dErrors.New(dErrors.CodeInvalidInput, "id_value is required")
	}
	return nil
}

// DecisionRequest carries an administrator's ruling on a pending account.
type DecisionRequest struct {
	Outcome string `json:"outcome"`
}

func (r *DecisionRequest) Validate() error {
	if !govalidator.StringLength(r.Outcome, "1", "20") {
		return dErrors.New(dErrors.CodeInvalidInput, "outcome is required")
	}
	return nil
}
