// Package httputil centralizes JSON response writing and request decoding so
// every handler produces the same envelopes.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "trustrent/pkg/domain-errors"
)

// Validatable lets request DTOs run field validation after decoding.
type Validatable interface {
	Validate() error
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorResponse is the JSON error envelope shared by all endpoints.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	State            string `json:"state,omitempty"`
}

// WriteError translates a domain error into the JSON error envelope.
// Internal and unavailable errors carry no description so infrastructure
// detail never leaks to callers. A verification_pending error additionally
// reports the account's current state.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	resp := errorResponse{Error: string(code)}
	switch code {
	case dErrors.CodeInternal, dErrors.CodeUnavailable:
		// description withheld
	default:
		var dErr *dErrors.Error
		if errors.As(err, &dErr) {
			resp.ErrorDescription = dErr.Message
		}
	}
	resp.State = dErrors.MetaValue(err, "state")

	WriteJSON(w, status, resp)
}

// DecodeAndPrepare decodes the request body into T and runs its validation.
// On failure it writes the error response and returns ok=false; handlers
// just return.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "malformed request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed request body"))
		return req, false
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			WriteError(w, err)
			return req, false
		}
	}
	return req, true
}
