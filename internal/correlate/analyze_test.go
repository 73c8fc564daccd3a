package correlate

import (
	"math"
	"testing"

	"github.com/strands/strands/internal/domain"
)

func TestAnalyzeDegenerateSeriesShortAndConstant(t *testing.T) {
	a := make([]Sample, 8)
	b := make([]Sample, 8)
	for i := range a {
		a[i] = Sample{Index: int64(i), Value: 0.5}
		b[i] = Sample{Index: int64(i), Value: 0.5}
	}

	pattern := Analyze(domain.CorrelationMetricMetric, "a", "b", a, b, DefaultOptions())

	if pattern.Posterior != 0 {
		t.Fatalf("posterior = %v, want 0", pattern.Posterior)
	}
	if pattern.Strength != domain.StrengthVeryWeak {
		t.Fatalf("strength = %v, want VERY_WEAK", pattern.Strength)
	}
	if pattern.DegenerateReason == "" {
		t.Fatalf("expected a degenerate reason to be recorded")
	}
}

func TestAnalyzeLagDetection(t *testing.T) {
	const n = 100
	a := make([]Sample, n)
	b := make([]Sample, n)
	shiftBy := 3

	for i := 0; i < n; i++ {
		av := math.Sin(2 * math.Pi * float64(i) / 20)
		a[i] = Sample{Index: int64(i), Value: av}
	}
	for i := 0; i < n; i++ {
		srcIdx := i - shiftBy
		var bv float64
		if srcIdx >= 0 {
			bv = math.Sin(2 * math.Pi * float64(srcIdx) / 20)
		} else {
			bv = math.Sin(2 * math.Pi * float64(srcIdx) / 20)
		}
		// deterministic small perturbation standing in for noise=0.05
		bv += 0.05 * math.Sin(float64(i))
		b[i] = Sample{Index: int64(i), Value: bv}
	}

	opts := DefaultOptions()
	opts.Detrend = false
	pattern := Analyze(domain.CorrelationMetricMetric, "a", "b", a, b, opts)

	if pattern.LagOffset != shiftBy {
		t.Fatalf("lag = %d, want %d", pattern.LagOffset, shiftBy)
	}
	if math.Abs(pattern.PearsonR) < 0.9 {
		t.Fatalf("|r| = %v, want >= 0.9", pattern.PearsonR)
	}
	if pattern.PValue >= 0.01 {
		t.Fatalf("p = %v, want < 0.01", pattern.PValue)
	}
	if pattern.Strength != domain.StrengthStrong && pattern.Strength != domain.StrengthVeryStrong {
		t.Fatalf("strength = %v, want STRONG or VERY_STRONG", pattern.Strength)
	}
}

func TestPosteriorMatchesSpecDefaults(t *testing.T) {
	params := DefaultBayesianParams()

	significant := Posterior(0.01, params)
	if significant <= 0.3 {
		t.Fatalf("posterior for significant p = %v, want > prior", significant)
	}

	notSignificant := Posterior(0.5, params)
	if notSignificant >= significant {
		t.Fatalf("non-significant posterior %v should be lower than significant %v", notSignificant, significant)
	}
}
