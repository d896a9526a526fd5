package health

import "fmt"

// fiberCap is the most fiber, in grams, that counts towards lowering points.
const fiberCap = 4

// ComputePoints returns the diet points of a food item:
//
//	round(kCal/50 + fatGrams/12 - min(fiberGrams, 4)/5)
func ComputePoints(kCal, fatGrams, fiberGrams int) (int, error) {
	if kCal < 0 || fatGrams < 0 || fiberGrams < 0 {
		return 0, fmt.Errorf("can't compute points for imaginary foods: %w", ErrInvalidArgument)
	}
	fiber := min(fiberGrams, fiberCap)
	points := float64(kCal)/50 + float64(fatGrams)/12 - float64(fiber)/5
	return int(roundHalfUp(points)), nil
}
