package resilience

import (
	"sync"
	"time"

	"github.com/strands/strands/internal/metrics"
)

// State is one of CLOSED, OPEN, HALF_OPEN.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// CircuitBreakerMetrics is a point-in-time snapshot exposed to Prometheus
// and to the CLI/HTTP health surface, generalising resilience.py's
// CircuitBreakerMetrics beyond the plain counters spec.md names.
type CircuitBreakerMetrics struct {
	State            State
	TotalCalls       int64
	SuccessfulCalls  int64
	FailedCalls      int64
	RejectedCalls    int64
	LastFailureTime  time.Time
	LastSuccessTime  time.Time
	LastStateChange  time.Time
}

// FailureRate returns the ratio of failed to total calls, 0 if no calls yet.
func (m CircuitBreakerMetrics) FailureRate() float64 {
	if m.TotalCalls == 0 {
		return 0
	}
	return float64(m.FailedCalls) / float64(m.TotalCalls)
}

// CircuitBreaker protects a single named external dependency. State is
// shared across all goroutines calling through it, guarded by one mutex,
// matching spec.md section 5's "circuit-breaker state per adapter is
// shared across all tasks of the process, updated under a single mutex".
type CircuitBreaker struct {
	Name              string
	FailureThreshold  int
	RecoveryAfter     time.Duration
	HalfOpenProbes    int

	mu              sync.Mutex
	state           State
	failureCount    int
	probesInFlight  int
	lastFailureTime time.Time
	metrics         CircuitBreakerMetrics
}

// NewCircuitBreaker constructs a breaker with spec.md section 4.1 defaults:
// failure_threshold=5, recovery_after=60s, half_open_probe_count=1.
func NewCircuitBreaker(name string) *CircuitBreaker {
	return &CircuitBreaker{
		Name:             name,
		FailureThreshold: 5,
		RecoveryAfter:    60 * time.Second,
		HalfOpenProbes:   1,
		state:            StateClosed,
	}
}

// allow reports whether a call may proceed, transitioning OPEN->HALF_OPEN
// when the recovery window has elapsed.
func (b *CircuitBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if time.Since(b.lastFailureTime) >= b.RecoveryAfter {
			b.setState(StateHalfOpen)
			b.probesInFlight = 1
			return true
		}
		b.metrics.RejectedCalls++
		return false
	case StateHalfOpen:
		if b.probesInFlight >= b.HalfOpenProbes {
			b.metrics.RejectedCalls++
			return false
		}
		b.probesInFlight++
		return true
	default:
		return true
	}
}

func (b *CircuitBreaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.metrics.TotalCalls++
	b.metrics.SuccessfulCalls++
	b.metrics.LastSuccessTime = time.Now()
	if b.state == StateHalfOpen {
		b.setState(StateClosed)
	}
	b.failureCount = 0
}

func (b *CircuitBreaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.metrics.TotalCalls++
	b.metrics.FailedCalls++
	b.metrics.LastFailureTime = time.Now()
	b.lastFailureTime = b.metrics.LastFailureTime

	if b.state == StateHalfOpen {
		b.setState(StateOpen)
		return
	}

	b.failureCount++
	if b.failureCount >= b.FailureThreshold {
		b.setState(StateOpen)
	}
}

// setState must be called with mu held.
func (b *CircuitBreaker) setState(s State) {
	b.state = s
	b.metrics.State = s
	b.metrics.LastStateChange = time.Now()
	metrics.ObserveCircuitBreakerTransition(b.Name, string(s))
}

// Snapshot returns a copy of the breaker's current metrics.
func (b *CircuitBreaker) Snapshot() CircuitBreakerMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := b.metrics
	snap.State = b.state
	return snap
}
