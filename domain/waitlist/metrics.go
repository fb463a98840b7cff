package waitlist

import (
	"github.com/akeren/waitlist-service/config/router"
	"github.com/prometheus/client_golang/prometheus"
)

type registrationMetrics struct {
	registrations *prometheus.CounterVec
	entries       prometheus.Gauge
}

// newRegistrationMetrics registers on reg when it is non-nil. The collectors
// work either way, so callers never need to nil-check.
func newRegistrationMetrics(reg prometheus.Registerer) *registrationMetrics {
	m := &registrationMetrics{
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_registrations_total",
				Help: "Waitlist registration attempts by outcome.",
			},
			[]string{"outcome"},
		),
		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "waitlist_entries",
				Help: "Number of waitlist entries at the last count.",
			},
		),
	}

	if reg == nil {
		return m
	}

	m.registrations = router.RegisterCollector(reg, m.registrations).(*prometheus.CounterVec)
	m.entries = router.RegisterCollector(reg, m.entries).(prometheus.Gauge)

	return m
}

func (m *registrationMetrics) observeRegistration(err error) {
	m.registrations.WithLabelValues(outcomeOf(err)).Inc()
}

func (m *registrationMetrics) observeCount(count int64) {
	m.entries.Set(float64(count))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeCreated
	case IsValidationError(err):
		return outcomeInvalid
	case IsDuplicateError(err):
		return outcomeDuplicate
	default:
		return outcomeError
	}
}
