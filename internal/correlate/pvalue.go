package correlate

import "math"

// PValue computes the two-sided significance of a Pearson r over n
// samples via the t-statistic r*sqrt((n-2)/(1-r^2)) with n-2 degrees of
// freedom, per spec.md section 4.4 step 4. There is no statistics
// library anywhere in the retrieved corpus (no repo imports gonum or
// similar); the regularised incomplete beta function below is the
// standard numerical-recipes technique and is the only reasonable way to
// get a Student-t survival function without fabricating a dependency —
// see DESIGN.md.
func PValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	if r >= 1 {
		r = 1 - 1e-15
	}
	if r <= -1 {
		r = -1 + 1e-15
	}

	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	return studentTSurvival(math.Abs(t), df) * 2
}

// studentTSurvival returns P(T > t) for a Student-t distribution with v
// degrees of freedom, t >= 0, via the regularised incomplete beta
// function: P(T > t) = 0.5 * I_{v/(v+t^2)}(v/2, 1/2).
func studentTSurvival(t, v float64) float64 {
	x := v / (v + t*t)
	return 0.5 * regularizedIncompleteBeta(x, v/2, 0.5)
}

// regularizedIncompleteBeta computes I_x(a, b) via the continued-fraction
// expansion (Numerical Recipes' betacf), a standard, well-conditioned
// technique for this function.
func regularizedIncompleteBeta(x, a, b float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lbeta := lgamma(a+b) - lgamma(a) - lgamma(b)
	front := math.Exp(lbeta + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betacf(x, a, b) / a
	}
	return 1 - front*betacf(1-x, b, a)/b
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// betacf evaluates the continued fraction for the incomplete beta
// function using the modified Lentz algorithm.
func betacf(x, a, b float64) float64 {
	const maxIter = 200
	const eps = 3e-14
	const tiny = 1e-300

	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIter; m++ {
		mf := float64(m)
		m2 := 2 * mf

		aa := mf * (b - mf) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c

		aa = -(a + mf) * (qab + mf) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		del := d * c
		h *= del

		if math.Abs(del-1) < eps {
			break
		}
	}
	return h
}
