package neat

import "math"

// SigmoidClamp bounds the pre-activation so exp never overflows.
const SigmoidClamp = 100.0

// Sigmoid is the logistic activation 1 / (1 + e^-x) with x clamped to
// [-SigmoidClamp, SigmoidClamp]. The result never leaves
// [Sigmoid(-SigmoidClamp), Sigmoid(SigmoidClamp)] and is never NaN.
func Sigmoid(x float64) float64 {
	x = clamp(x, -SigmoidClamp, SigmoidClamp)
	return 1.0 / (1.0 + math.Exp(-x))
}
