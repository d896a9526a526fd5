package health

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies one of the record tables.
type Kind string

const (
	KindBloodPressure Kind = "blood_pressure"
	KindWeight        Kind = "weight"
	KindCalories      Kind = "calories"
	KindPoints        Kind = "points"
)

// Kinds lists every record kind in a stable order.
var Kinds = []Kind{KindBloodPressure, KindWeight, KindCalories, KindPoints}

// ParseKind accepts a kind name or one of its short aliases ("bp", "kcal").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blood_pressure", "blood-pressure", "bp":
		return KindBloodPressure, nil
	case "weight":
		return KindWeight, nil
	case "calories", "kcal":
		return KindCalories, nil
	case "points":
		return KindPoints, nil
	default:
		return "", fmt.Errorf("unknown record kind: %q", s)
	}
}

// BloodPressureRecord is a single blood pressure reading in mmHg.
type BloodPressureRecord struct {
	ID        int64
	Systolic  int
	Diastolic int
	Created   time.Time
}

// WeightRecord is a body weight sample in whole kilograms.
type WeightRecord struct {
	ID      int64
	Weight  int
	Created time.Time
}

// CaloriesRecord is a food intake sample in kilocalories.
type CaloriesRecord struct {
	ID       int64
	Calories int
	Created  time.Time
}

// PointsRecord is a food intake sample in diet points.
type PointsRecord struct {
	ID      int64
	Points  int
	Created time.Time
}

// Sample is a single point of a time series derived from any record kind.
// Blood pressure series use the systolic reading.
type Sample struct {
	Value   int
	Created time.Time
}
