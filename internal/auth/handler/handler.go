package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"trustrent/internal/auth/service"
	id "trustrent/pkg/domain"
	dErrors "trustrent/pkg/domain-errors"
	"trustrent/pkg/platform/httputil"
	"trustrent/pkg/requestcontext"
)

// Service defines the access-gate operations the handler exposes.
type Service interface {
	Authenticate(ctx context.Context, email, password string) (*service.AuthResult, error)
	Logout(ctx context.Context, sessionID id.SessionID) error
}

// LoginRequest is the login form payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if !govalidator.StringLength(r.Email, "1", "255") || !govalidator.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	if !govalidator.StringLength(r.Password, "1", "255") {
		return dErrors.New(dErrors.CodeInvalidInput, "password is required")
	}
	return nil
}

// Handler wires login endpoints to the access gate.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the public login endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

// RegisterProtected mounts endpoints that require a valid bearer token.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
}

// HandleLogin handles POST /auth/login requests.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "login handled",
		"request_id", requestID,
		"user_id", result.UserID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleLogout handles POST /auth/logout requests.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID := requestcontext.SessionID(ctx)
	if sessionID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	if err := h.service.Logout(ctx, sessionID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
