package errors

import (
	"math"
)

// ProbabilityFloor is the minimum value class probabilities are clipped to
// before taking logarithms. Keeps log terms finite for zero-probability
// entries reported by a weak learner.
const ProbabilityFloor = 1e-15

// CheckNumericalStability checks if values contain NaN or Inf
// and returns an error if numerical instability is detected.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar checks a single scalar value for numerical instability.
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// ClipToFloor replaces every entry of values that is below floor with floor,
// in place, and returns values for chaining.
func ClipToFloor(values []float64, floor float64) []float64 {
	for i, v := range values {
		if v < floor {
			values[i] = floor
		}
	}
	return values
}

// SafeDivide performs division with protection against division by zero.
// Returns 0 if denominator is zero or close to zero.
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return numerator / denominator
}
