package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the access gate.
type Metrics struct {
	// Logins by result ("session_issued", "verification_pending", "rejected",
	// "invalid_credentials", "error")
	Logins *prometheus.CounterVec
}

// New creates a Metrics instance with all access gate metrics registered.
func New() *Metrics {
	return &Metrics{
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrent_logins_total",
			Help: "Total login attempts by result",
		}, []string{"result"}),
	}
}

// IncrementLogin records a login attempt.
func (m *Metrics) IncrementLogin(result string) {
	if m != nil {
		m.Logins.WithLabelValues(result).Inc()
	}
}
