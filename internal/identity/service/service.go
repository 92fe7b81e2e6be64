package service

import (
	"context"
	"log/slog"
	"time"

	"trustrent/internal/audit"
	identitymetrics "trustrent/internal/identity/metrics"
	"trustrent/internal/identity/models"
	id "trustrent/pkg/domain"
)

// UserStore is the identity record store contract the workflow depends on.
// Both primitives that carry the concurrency guarantees live here: the
// unique-constrained insert and the decision compare-and-set.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListPending(ctx context.Context) ([]*models.User, error)
	ApplyDecision(ctx context.Context, userID id.UserID, decision models.Decision) (bool, error)
	RecordLogin(ctx context.Context, userID id.UserID, at time.Time) error
}

// Service orchestrates registration, the review queue, and verification
// decisions. It holds no state of its own; correctness rests on the store's
// atomic primitives, never on in-process locking.
type Service struct {
	users   UserStore
	logger  *slog.Logger
	auditor audit.Publisher
	metrics *identitymetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAudit(publisher audit.Publisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *identitymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(users UserStore, opts ...Option) *Service {
	s := &Service{
		users:  users,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor != nil {
		s.auditor.Emit(ctx, event)
	}
}
