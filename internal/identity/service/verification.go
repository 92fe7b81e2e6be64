package service

import (
	"context"
	"errors"

	"trustrent/internal/audit"
	"trustrent/internal/identity/models"
	id "trustrent/pkg/domain"
	dErrors "trustrent/pkg/domain-errors"
	"trustrent/pkg/platform/sentinel"
	"trustrent/pkg/requestcontext"
)

// DecisionStatus reports how a decision call concluded.
type DecisionStatus string

const (
	// DecisionApplied means this call's conditional update matched.
	DecisionApplied DecisionStatus = "applied"
	// DecisionAlreadyDecided means another decision won; a benign no-op
	// outcome, not a fault.
	DecisionAlreadyDecided DecisionStatus = "already_decided"
)

// DecisionResult is returned for every non-error decision call. State is the
// record's verification state after the call, whichever caller set it.
type DecisionResult struct {
	Status DecisionStatus
	State  models.VerificationState
}

// ListPending returns the review queue: every pending account, oldest
// registration first. A live projection over the store; nothing is cached.
func (s *Service) ListPending(ctx context.Context) ([]*models.User, error) {
	pending, err := s.users.ListPending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "user store unavailable")
	}
	return pending, nil
}

// Decide applies an administrator's verification ruling as a single
// conditional update: set the outcome where the record is still pending.
// Exactly one of any set of racing calls applies; the rest get a benign
// already-decided result. Invalid outcomes are rejected before any store
// access.
func (s *Service) Decide(ctx context.Context, userID id.UserID, outcome models.VerificationState, adminID string) (*DecisionResult, error) {
	decision, err := models.NewDecision(outcome, adminID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	applied, err := s.users.ApplyDecision(ctx, userID, decision)
	if err != nil {
		s.metrics.IncrementDecision(string(outcome), "error")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "user store unavailable")
	}

	if !applied {
		// Zero rows affected: either the record is already decided or it
		// never existed. Only a follow-up read can tell the two apart.
		current, err := s.users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				s.metrics.IncrementDecision(string(outcome), "not_found")
				return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			s.metrics.IncrementDecision(string(outcome), "error")
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "user store unavailable")
		}
		s.metrics.IncrementDecision(string(outcome), "already_decided")
		return &DecisionResult{Status: DecisionAlreadyDecided, State: current.VerificationState}, nil
	}

	s.metrics.IncrementDecision(string(outcome), "applied")
	s.logger.InfoContext(ctx, "verification decided",
		"user_id", userID.String(),
		"outcome", string(outcome),
		"decided_by", adminID,
		"request_id", requestcontext.RequestID(ctx),
	)

	action := audit.ActionUserVerified
	if outcome == models.StateRejected {
		action = audit.ActionUserRejected
	}
	s.emit(ctx, audit.Event{
		Action:    action,
		UserID:    userID,
		ActorID:   adminID,
		RequestID: requestcontext.RequestID(ctx),
	})

	return &DecisionResult{Status: DecisionApplied, State: outcome}, nil
}
