package correlate

import "math"

// Sample is one (timestamp-ordinal, value) observation. The ordinal is an
// integer index rather than a wall-clock time: callers align two series
// onto a common integer grid before calling into this package.
type Sample struct {
	Index int64
	Value float64
}

// NaN is the sentinel gap value adapters use for missing samples
// (spec.md section 4.2: "gaps represented as a sentinel NaN the analyzer
// recognises").
var NaN = math.NaN()

// Align intersects two series by Index and pairwise-drops any sample
// where either side is NaN, per spec.md section 4.4 step 1/edge cases.
func Align(a, b []Sample) (xs, ys []float64) {
	byIndex := make(map[int64]float64, len(b))
	for _, s := range b {
		byIndex[s.Index] = s.Value
	}
	for _, s := range a {
		bv, ok := byIndex[s.Index]
		if !ok {
			continue
		}
		if math.IsNaN(s.Value) || math.IsNaN(bv) {
			continue
		}
		xs = append(xs, s.Value)
		ys = append(ys, bv)
	}
	return xs, ys
}

// Detrend removes the linear least-squares fit from values, matching the
// scipy.signal.detrend behaviour the original analyzer relies on.
func Detrend(values []float64) []float64 {
	n := len(values)
	if n < 2 {
		return append([]float64(nil), values...)
	}

	var sumX, sumY, sumXY, sumXX KahanSum
	for i, v := range values {
		x := float64(i)
		sumX.Add(x)
		sumY.Add(v)
		sumXY.Add(x * v)
		sumXX.Add(x * x)
	}
	nf := float64(n)
	denom := nf*sumXX.Value() - sumX.Value()*sumX.Value()

	out := make([]float64, n)
	if denom == 0 {
		copy(out, values)
		return out
	}
	slope := (nf*sumXY.Value() - sumX.Value()*sumY.Value()) / denom
	intercept := (sumY.Value() - slope*sumX.Value()) / nf

	for i, v := range values {
		out[i] = v - (slope*float64(i) + intercept)
	}
	return out
}

// ZScoreNormalise rescales values to zero mean, unit variance. A
// constant series (std=0) is returned unchanged with ok=false so callers
// can apply the degenerate-series edge case (spec.md section 4.4).
func ZScoreNormalise(values []float64) (out []float64, ok bool) {
	n := len(values)
	if n == 0 {
		return nil, false
	}
	mean := Sum(values) / float64(n)

	var variance KahanSum
	for _, v := range values {
		d := v - mean
		variance.Add(d * d)
	}
	std := math.Sqrt(variance.Value() / float64(n))
	if std == 0 {
		return append([]float64(nil), values...), false
	}

	out = make([]float64, n)
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out, true
}
