package correlate

// BayesianParams configures the posterior calculation. Defaults follow
// spec.md section 4.4 step 5 exactly (these differ from
// original_source/src/core/advanced_correlation.py's
// BayesianConfidenceCalculator, which uses a flat 0.95/0.05 likelihood
// regardless of significance; spec.md's p-value-conditioned likelihoods
// are authoritative here since the spec states them explicitly).
type BayesianParams struct {
	Prior              float64
	LikelihoodRealSig   float64 // p < 0.05
	LikelihoodRealNotSig float64
	LikelihoodSpurSig    float64 // p < 0.05
	LikelihoodSpurNotSig float64
}

// DefaultBayesianParams returns spec.md's configured defaults.
func DefaultBayesianParams() BayesianParams {
	return BayesianParams{
		Prior:                0.3,
		LikelihoodRealSig:    0.95,
		LikelihoodRealNotSig: 0.40,
		LikelihoodSpurSig:    0.05,
		LikelihoodSpurNotSig: 0.60,
	}
}

// Posterior computes P(correlation is real | p-value) via Bayes' rule,
// per spec.md section 4.4 step 5.
func Posterior(p float64, params BayesianParams) float64 {
	significant := p < 0.05

	likelihoodReal := params.LikelihoodRealNotSig
	likelihoodSpurious := params.LikelihoodSpurNotSig
	if significant {
		likelihoodReal = params.LikelihoodRealSig
		likelihoodSpurious = params.LikelihoodSpurSig
	}

	numerator := likelihoodReal * params.Prior
	denominator := numerator + likelihoodSpurious*(1-params.Prior)
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
