package correlate

import (
	"time"

	"github.com/strands/strands/internal/domain"
)

// Options controls the optional cleaning steps in spec.md section 4.4
// step 2.
type Options struct {
	Detrend       bool
	Normalise     bool
	MaxLag        int // default 5
	MinSampleSize int // default 20
	Bayesian      BayesianParams
}

// DefaultOptions returns spec.md section 4.4's defaults.
func DefaultOptions() Options {
	return Options{
		Detrend:       true,
		Normalise:     true,
		MaxLag:        5,
		MinSampleSize: 20,
		Bayesian:      DefaultBayesianParams(),
	}
}

// Analyze implements the C4 contract analyze(a, b, max_lag, options) ->
// CorrelationPattern, following spec.md section 4.4's numbered algorithm.
func Analyze(corrType domain.CorrelationType, seriesAName, seriesBName string, a, b []Sample, opts Options) domain.CorrelationPattern {
	if opts.MaxLag <= 0 {
		opts.MaxLag = 5
	}
	if opts.MinSampleSize <= 0 {
		opts.MinSampleSize = 20
	}

	pattern := domain.CorrelationPattern{
		Type:    corrType,
		SeriesA: seriesAName,
		SeriesB: seriesBName,
	}

	xs, ys := Align(a, b)
	pattern.SampleCount = len(xs)
	if pattern.SampleCount < opts.MinSampleSize {
		return degenerate(pattern, "insufficient-samples")
	}

	if opts.Detrend {
		xs = Detrend(xs)
		ys = Detrend(ys)
	}

	normXs, okX := ZScoreNormalise(xs)
	normYs, okY := ZScoreNormalise(ys)
	if opts.Normalise {
		if !okX || !okY {
			return degenerate(pattern, "degenerate-series")
		}
		xs, ys = normXs, normYs
	}

	lag := SearchLag(xs, ys, opts.MaxLag)
	if !lag.OK {
		return degenerate(pattern, "degenerate-series")
	}

	pattern.PearsonR = lag.R
	pattern.LagOffset = lag.Lag
	pattern.PValue = PValue(lag.R, pattern.SampleCount)
	pattern.Significance = domain.SignificanceFromP(pattern.PValue)
	pattern.Posterior = Posterior(pattern.PValue, opts.Bayesian)
	pattern.Strength = domain.StrengthFromPosterior(pattern.Posterior)

	anomalyXs := FlagAnomalies(normXs)
	anomalyYs := FlagAnomalies(normYs)
	pattern.Noisy = noisyFraction(anomalyXs, len(xs)) > 0.05 || noisyFraction(anomalyYs, len(ys)) > 0.05

	return pattern
}

func degenerate(pattern domain.CorrelationPattern, reason string) domain.CorrelationPattern {
	pattern.Posterior = 0
	pattern.Strength = domain.StrengthVeryWeak
	pattern.DegenerateReason = reason
	return pattern
}

func noisyFraction(anomalies []int, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(len(anomalies)) / float64(total)
}

// FlagAnomalies returns the indices of samples whose |z-score| exceeds
// 3 sigma, per spec.md section 4.4 step 6. values is assumed already
// z-score normalised (mean 0, std 1), so the flag condition is simply
// |value| > 3.
func FlagAnomalies(values []float64) []int {
	var idx []int
	for i, v := range values {
		if v > 3 || v < -3 {
			idx = append(idx, i)
		}
	}
	return idx
}

// TemporalEvent is one timestamped event fed to AnalyzeTemporal, which
// reports one CorrelationPattern per monotonic chain of such events
// (spec.md section 4.4's final paragraph).
type TemporalEvent struct {
	Timestamp time.Time
	Service   string
	Label     string
}

// AnalyzeTemporal reports monotonic chains of events within a sliding
// window: a chain is a maximal run of events, each within window of the
// previous. Services are not compared: events of the same service join
// a chain like any other.
func AnalyzeTemporal(events []TemporalEvent, window time.Duration) []domain.CorrelationPattern {
	if len(events) == 0 {
		return nil
	}

	var patterns []domain.CorrelationPattern
	chain := []TemporalEvent{events[0]}

	flush := func() {
		if len(chain) < 2 {
			return
		}
		patterns = append(patterns, domain.CorrelationPattern{
			Type:        domain.CorrelationEventSequence,
			SeriesA:     chain[0].Service,
			SeriesB:     chain[len(chain)-1].Service,
			SampleCount: len(chain),
			Posterior:   1,
			Strength:    domain.StrengthVeryStrong,
		})
	}

	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Sub(chain[len(chain)-1].Timestamp) <= window {
			chain = append(chain, events[i])
			continue
		}
		flush()
		chain = []TemporalEvent{events[i]}
	}
	flush()

	return patterns
}
