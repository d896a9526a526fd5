package health

import "github.com/samber/lo"

// poundsPerKilogram is the conversion factor between imperial and SI weights.
const poundsPerKilogram = 2.20462262

// ToKilograms converts a weight sample to whole kilograms. Weights are stored
// in whole units only, so fractional changes are not tracked.
func ToKilograms(value int, isMetric bool) int {
	if isMetric {
		return value
	}
	return int(roundHalfUp(float64(value) / poundsPerKilogram))
}

// ToPounds converts whole kilograms to whole pounds, for display.
func ToPounds(kg int) int {
	return int(roundHalfUp(float64(kg) * poundsPerKilogram))
}

// SamplesInPounds returns a copy of weight samples with values in whole pounds.
func SamplesInPounds(samples []Sample) []Sample {
	return lo.Map(samples, func(s Sample, _ int) Sample {
		return Sample{Value: ToPounds(s.Value), Created: s.Created}
	})
}
