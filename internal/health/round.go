package health

import "math"

// roundHalfUp rounds x to the nearest integer, with halves going towards
// positive infinity (-0.5 rounds to 0, 0.5 rounds to 1).
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
