package split

import "math"

// score computes the optimal leaf weight and the (negated-loss) score for
// a regularized second-order objective with gradient sum g, hessian sum
// h, L1 strength alpha and L2 strength lambda.
//
// alpha == 0 closes to the plain ridge solution; alpha > 0 applies
// soft-thresholding to g before dividing by h+lambda.
func score(g, h, alpha, lambda float64) (weight, sc float64) {
	if alpha == 0 {
		weight = -g / (h + lambda)
		loss := (h+lambda)*weight*weight/2 + g*weight
		return weight, -loss
	}
	sign := 1.0
	if g < 0 {
		sign = -1.0
	}
	mag := math.Abs(g) - alpha
	if mag < 0 {
		mag = 0
	}
	weight = -sign * mag / (h + lambda)
	loss := (h+lambda)*weight*weight/2 + g*weight + alpha*math.Abs(weight)
	return weight, -loss
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
