package service

import (
	"context"
	"log/slog"
	"time"

	"trustrent/internal/audit"
	"trustrent/internal/auth/device"
	authmetrics "trustrent/internal/auth/metrics"
	authmodels "trustrent/internal/auth/models"
	"trustrent/internal/identity/models"
	id "trustrent/pkg/domain"
)

// UserStore is the slice of the identity store the access gate needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	RecordLogin(ctx context.Context, userID id.UserID, at time.Time) error
}

// SessionStore persists login sessions.
type SessionStore interface {
	Create(ctx context.Context, session *authmodels.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*authmodels.Session, error)
	RevokeSessionIfActive(ctx context.Context, sessionID id.SessionID, at time.Time) error
}

// TokenIssuer signs access tokens for authenticated sessions.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, sessionID id.SessionID, role string, issuedAt time.Time, expiresIn time.Duration) (string, error)
}

const defaultSessionTTL = 24 * time.Hour

// Service is the access gate: it authenticates credentials and enforces the
// verification requirement before any session exists.
type Service struct {
	users      UserStore
	sessions   SessionStore
	tokens     TokenIssuer
	devices    *device.Service
	sessionTTL time.Duration
	logger     *slog.Logger
	auditor    audit.Publisher
	metrics    *authmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAudit(publisher audit.Publisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *authmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.sessionTTL = ttl }
}

func WithDeviceService(d *device.Service) Option {
	return func(s *Service) { s.devices = d }
}

func NewService(users UserStore, sessions SessionStore, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		devices:    device.NewService(false),
		sessionTTL: defaultSessionTTL,
		logger:     slog.Default(),
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
