package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification workflow.
type Metrics struct {
	// Registrations by result ("created", "duplicate", "invalid", "error")
	Registrations *prometheus.CounterVec

	// Decisions by outcome and result ("applied", "already_decided", "not_found")
	Decisions *prometheus.CounterVec
}

// New creates a Metrics instance with all workflow metrics registered.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrent_registrations_total",
			Help: "Total registration attempts by result",
		}, []string{"result"}),

		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrent_verification_decisions_total",
			Help: "Total verification decisions by outcome and result",
		}, []string{"outcome", "result"}),
	}
}

// IncrementRegistration records a registration attempt.
func (m *Metrics) IncrementRegistration(result string) {
	if m != nil {
		m.Registrations.WithLabelValues(result).Inc()
	}
}

// IncrementDecision records a decision attempt.
func (m *Metrics) IncrementDecision(outcome, result string) {
	if m != nil {
		m.Decisions.WithLabelValues(outcome, result).Inc()
	}
}
