package resilience

import (
	"math"
	"math/rand"
	"time"
)

// RetryConfig mirrors resilience.py's RetryConfig, generalised to spec.md
// section 4.1's named parameters (base, jitter_ratio).
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Base         float64
	JitterRatio  float64
}

// DefaultRetryConfig returns spec.md section 4.1's defaults:
// max_attempts=3, base=2.0, initial_delay=1s, max_delay=60s, jitter_ratio=0.2.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     60 * time.Second,
		Base:         2.0,
		JitterRatio:  0.2,
	}
}

// Delay returns the wait before attempt n (1-indexed), per spec.md's formula:
// min(initial*base^(n-1), max_delay) * (1 + U[-jitter_ratio, +jitter_ratio]).
func (c RetryConfig) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	raw := float64(c.InitialDelay) * math.Pow(c.Base, float64(attempt-1))
	if max := float64(c.MaxDelay); raw > max {
		raw = max
	}
	if c.JitterRatio > 0 {
		jitter := raw * c.JitterRatio
		raw += (rand.Float64()*2 - 1) * jitter
	}
	if raw < 0 {
		raw = 0
	}
	return time.Duration(raw)
}
