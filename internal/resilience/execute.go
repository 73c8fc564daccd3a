package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/strands/strands/internal/errs"
	"github.com/strands/strands/internal/utils"
)

// Counters tracks the wrapper-level statistics spec.md section 4.1 requires:
// successes, failures, rejections, retries, timeouts, average latency.
// Snapshot also reports p95/p99 from the latency tracker so the health
// surface can report tail latency alongside the mean.
type Counters struct {
	mu         sync.Mutex
	successes  int64
	failures   int64
	rejections int64
	retries    int64
	timeouts   int64
	latency    *utils.LatencyTracker
}

func (c *Counters) recordSuccess(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successes++
	c.latencyTracker().Observe(d)
}

func (c *Counters) recordFailure(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	c.latencyTracker().Observe(d)
}

// latencyTracker lazily builds the tracker so a zero-value Counters
// remains usable without an explicit constructor. Callers must hold mu.
func (c *Counters) latencyTracker() *utils.LatencyTracker {
	if c.latency == nil {
		c.latency = utils.NewLatencyTracker(512)
	}
	return c.latency
}

func (c *Counters) recordRejection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejections++
}

func (c *Counters) recordRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries++
}

func (c *Counters) recordTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeouts++
}

// Snapshot is an immutable copy of Counters for reporting.
type Snapshot struct {
	Successes      int64
	Failures       int64
	Rejections     int64
	Retries        int64
	Timeouts       int64
	AverageLatency time.Duration
	P95Latency     time.Duration
	P99Latency     time.Duration
}

func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	tracker := c.latencyTracker()
	return Snapshot{
		Successes:      c.successes,
		Failures:       c.failures,
		Rejections:     c.rejections,
		Retries:        c.retries,
		Timeouts:       c.timeouts,
		AverageLatency: tracker.Mean(),
		P95Latency:     tracker.Percentile(95),
		P99Latency:     tracker.Percentile(99),
	}
}

// Executor wraps a circuit breaker, retry policy and per-call timeout
// around a named external dependency, the way resilience.py's
// ResilienceContext combines the three. Op is the only suspension point
// the wrapper schedules: each attempt is given its own timeout context,
// and the retry loop additionally stops once an overall ceiling elapses.
type Executor struct {
	Name    string
	Breaker *CircuitBreaker
	Retry   RetryConfig
	Timeout time.Duration

	counters Counters
}

// NewExecutor builds an Executor with spec.md section 4.1 defaults:
// per-call timeout 30s, overall ceiling = max_attempts * timeout.
func NewExecutor(name string) *Executor {
	return &Executor{
		Name:    name,
		Breaker: NewCircuitBreaker(name),
		Retry:   DefaultRetryConfig(),
		Timeout: 30 * time.Second,
	}
}

// Execute runs op under the breaker, retry and timeout policy. op must
// respect ctx cancellation; Execute itself never suspends outside of op
// and the inter-attempt sleep.
func (e *Executor) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	ceiling := time.Duration(e.Retry.MaxAttempts) * e.Timeout
	deadline := time.Now().Add(ceiling)

	var lastErr error
	for attempt := 1; attempt <= e.Retry.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			break
		}

		if !e.Breaker.allow() {
			e.counters.recordRejection()
			return errs.New(e.Name, errs.CircuitOpen, "circuit breaker open", nil)
		}

		callCtx, cancel := context.WithTimeout(ctx, e.Timeout)
		start := time.Now()
		err := op(callCtx)
		cancel()
		elapsed := time.Since(start)

		if err == nil {
			e.Breaker.onSuccess()
			e.counters.recordSuccess(elapsed)
			return nil
		}

		e.Breaker.onFailure()
		e.counters.recordFailure(elapsed)

		if callCtx.Err() != nil {
			e.counters.recordTimeout()
			lastErr = errs.New(e.Name, errs.UpstreamUnavailable, "call timed out", err)
		} else {
			lastErr = errs.New(e.Name, errs.UpstreamUnavailable, "call failed", err)
		}

		if !errs.Retryable(lastErr) {
			return lastErr
		}
		if attempt == e.Retry.MaxAttempts {
			break
		}

		e.counters.recordRetry()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.Retry.Delay(attempt)):
		}
	}

	if lastErr == nil {
		lastErr = errs.New(e.Name, errs.UpstreamUnavailable, "retry budget exhausted", nil)
	}
	return lastErr
}

// CountersSnapshot returns the wrapper's cumulative call statistics.
func (e *Executor) CountersSnapshot() Snapshot {
	return e.counters.Snapshot()
}
