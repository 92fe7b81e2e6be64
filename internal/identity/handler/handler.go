package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustrent/internal/identity/models"
	"trustrent/internal/identity/service"
	id "trustrent/pkg/domain"
	dErrors "trustrent/pkg/domain-errors"
	"trustrent/pkg/platform/httputil"
	"trustrent/pkg/requestcontext"
)

// Service defines the identity operations the handler exposes.
type Service interface {
	Register(ctx context.Context, params service.RegisterParams) (*models.User, error)
	ListPending(ctx context.Context) ([]*models.User, error)
	Decide(ctx context.Context, userID id.UserID, outcome models.VerificationState, adminID string) (*service.DecisionResult, error)
}

// Handler wires registration and review endpoints to the identity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an identity handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the public registration endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.HandleRegister)
}

// RegisterAdmin mounts the review-queue endpoints. The router is expected to
// wrap these with the bearer-token and sys_admin middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/verifications", h.HandleListPending)
	r.Post("/admin/verifications/{userID}", h.HandleDecide)
}

// HandleRegister handles POST /auth/register requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.Register(ctx, service.RegisterParams{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Role:        req.Role,
		IDType:      req.IDType,
		IDValue:     req.IDValue,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration accepted",
		"request_id", requestID,
		"user_id", created.ID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{
		User:    FromUser(created),
		Message: "registration received; your account is pending verification",
	})
}

// HandleListPending handles GET /admin/verifications requests.
func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pending, err := h.service.ListPending(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list pending failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromPending(pending))
}

// HandleDecide handles POST /admin/verifications/{userID} requests.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := models.ParseOutcome(req.Outcome)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	adminID := requestcontext.UserID(ctx)
	if adminID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	result, err := h.service.Decide(ctx, userID, outcome, adminID.String())
	if err != nil {
		h.logger.ErrorContext(ctx, "verification decision failed",
			"request_id", requestID,
			"user_id", userID.String(),
			"outcome", req.Outcome,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification decision handled",
		"request_id", requestID,
		"user_id", userID.String(),
		"status", string(result.Status),
	)

	// A lost race still returns 200: the account is decided either way.
	httputil.WriteJSON(w, http.StatusOK, FromDecision(userID.String(), result))
}
