package health

import "fmt"

const (
	// DefaultSampleDepth gives a moving average over roughly ten samples.
	DefaultSampleDepth = 10
	// DefaultPrecision rounds averages to the nearest tenth.
	DefaultPrecision = 10
)

// NewMovingAverage folds newValue into oldAverage, scaling the change by the
// depth of the average and rounding the change to 1/precision.
//
// depth and precision must stay the same for every sample of a series;
// changing either one midway makes the average meaningless. A new series is
// seeded by passing its first raw sample as oldAverage.
func NewMovingAverage(newValue int, oldAverage float64, depth, precision int) (float64, error) {
	if depth <= 0 {
		return 0, fmt.Errorf("sample depth must be positive, got %d: %w", depth, ErrInvalidArgument)
	}
	if precision <= 0 {
		return 0, fmt.Errorf("precision must be positive, got %d: %w", precision, ErrInvalidArgument)
	}
	delta := (float64(newValue) - oldAverage) / float64(depth)
	delta = roundHalfUp(delta*float64(precision)) / float64(precision)
	return oldAverage + delta, nil
}

// MovingAverage is NewMovingAverage with DefaultSampleDepth and DefaultPrecision.
func MovingAverage(newValue int, oldAverage float64) float64 {
	avg, _ := NewMovingAverage(newValue, oldAverage, DefaultSampleDepth, DefaultPrecision)
	return avg
}

// TrendPoint pairs a sample with the moving average after including it.
type TrendPoint struct {
	Sample
	Average float64
}

// Trend runs the default moving average over samples, seeding it with the
// first one.
func Trend(samples []Sample) []TrendPoint {
	if len(samples) == 0 {
		return nil
	}
	out := make([]TrendPoint, 0, len(samples))
	avg := float64(samples[0].Value)
	for _, s := range samples {
		avg = MovingAverage(s.Value, avg)
		out = append(out, TrendPoint{Sample: s, Average: avg})
	}
	return out
}
