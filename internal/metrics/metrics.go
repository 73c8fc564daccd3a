package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful investigations.
	OutcomeSuccess = "success"
	// OutcomeError labels failed investigations (pipeline or dependency issues).
	OutcomeError = "error"
)

var (
	investigationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "strands",
			Name:      "investigations_total",
			Help:      "Total number of investigations handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	investigationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "strands",
			Name:      "investigation_seconds",
			Help:      "Investigation latency in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	specialistTimeoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "strands",
			Name:      "specialist_timeouts_total",
			Help:      "Total number of specialists that missed the investigation deadline, partitioned by specialist id.",
		},
		[]string{"specialist"},
	)

	circuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "strands",
			Name:      "circuit_breaker_state",
			Help:      "Current circuit breaker state per dependency: 0=CLOSED, 1=HALF_OPEN, 2=OPEN.",
		},
		[]string{"breaker"},
	)

	circuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "strands",
			Name:      "circuit_breaker_transitions_total",
			Help:      "Total number of circuit breaker state transitions, partitioned by breaker and destination state.",
		},
		[]string{"breaker", "to_state"},
	)

	playbookTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "strands",
			Name:      "playbook_transitions_total",
			Help:      "Total number of playbook lifecycle transitions, partitioned by event and destination status.",
		},
		[]string{"event", "to_status"},
	)

	reviewDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "strands",
			Name:      "review_decisions_total",
			Help:      "Total number of human review decisions, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	replayAlignmentRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "strands",
			Name:      "replay_alignment_rate",
			Help:      "Alignment rate (matches / total) of the most recently completed replay run.",
		},
	)
)

// circuitStateValue maps resilience.State onto circuitBreakerState's
// numeric gauge values: CLOSED=0, HALF_OPEN=1, OPEN=2, so a dashboard
// can threshold on "> 0" for any non-healthy state.
func circuitStateValue(state string) float64 {
	switch state {
	case "HALF_OPEN":
		return 1
	case "OPEN":
		return 2
	default:
		return 0
	}
}

// Register attaches Strands collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		investigationsTotal,
		investigationDurationSeconds,
		specialistTimeoutsTotal,
		circuitBreakerState,
		circuitBreakerTransitionsTotal,
		playbookTransitionsTotal,
		reviewDecisionsTotal,
		replayAlignmentRate,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveInvestigation records an investigation duration and outcome label.
func ObserveInvestigation(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	investigationsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	investigationDurationSeconds.Observe(duration.Seconds())
}

// ObserveSpecialistTimeout records one specialist missing the shared
// investigation deadline.
func ObserveSpecialistTimeout(specialistID string) {
	specialistTimeoutsTotal.WithLabelValues(specialistID).Inc()
}

// ObserveCircuitBreakerTransition records a circuit breaker's state
// change and updates its current-state gauge.
func ObserveCircuitBreakerTransition(breakerName, toState string) {
	circuitBreakerTransitionsTotal.WithLabelValues(breakerName, toState).Inc()
	circuitBreakerState.WithLabelValues(breakerName).Set(circuitStateValue(toState))
}

// ObservePlaybookTransition records one playbook lifecycle transition.
func ObservePlaybookTransition(event, toStatus string) {
	playbookTransitionsTotal.WithLabelValues(event, toStatus).Inc()
}

// ObserveReviewDecision records one human review outcome (approve/reject).
func ObserveReviewDecision(outcome string) {
	reviewDecisionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveReplayAlignment records the alignment rate of a completed
// replay run as a gauge, since replay runs are infrequent, operator-
// triggered batch jobs rather than a continuous rate.
func ObserveReplayAlignment(rate float64) {
	replayAlignmentRate.Set(rate)
}
