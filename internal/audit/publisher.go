package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "trustrent/pkg/domain"
)

// Publisher captures structured audit events. Implementations must be safe
// for concurrent use; emission failures are the sink's problem, never the
// workflow's.
type Publisher interface {
	Emit(ctx context.Context, event Event)
}

// SlogPublisher writes audit events to the structured log. It is the default
// sink; swap in a store-backed publisher where an audit trail query surface
// is needed.
type SlogPublisher struct {
	logger *slog.Logger
}

func NewSlogPublisher(logger *slog.Logger) *SlogPublisher {
	return &SlogPublisher{logger: logger}
}

func (p *SlogPublisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	p.logger.InfoContext(ctx, "audit",
		"action", string(event.Action),
		"user_id", event.UserID.String(),
		"actor_id", event.ActorID,
		"email", event.Email,
		"request_id", event.RequestID,
		"reason", event.Reason,
	)
}

// InMemoryStore is an append-only sink for tests and development.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.events = append(s.events, event)
}

// ListByUser returns the recorded events for one user, in emission order.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// All returns every recorded event.
func (s *InMemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...)
}
