package health_test

import (
	"testing"
	"time"

	"health-go/internal/health"
)

func TestToKilograms(t *testing.T) {
	tests := []struct {
		value    int
		isMetric bool
		want     int
	}{
		{70, true, 70},
		{150, false, 68},
		{220, false, 100},
		{0, false, 0},
		{1, false, 0},
	}

	for _, tt := range tests {
		if got := health.ToKilograms(tt.value, tt.isMetric); got != tt.want {
			t.Errorf("ToKilograms(%d, %v) = %d, want %d", tt.value, tt.isMetric, got, tt.want)
		}
	}
}

func TestToPounds(t *testing.T) {
	if got := health.ToPounds(68); got != 150 {
		t.Errorf("ToPounds(68) = %d, want 150", got)
	}
	if got := health.ToPounds(0); got != 0 {
		t.Errorf("ToPounds(0) = %d, want 0", got)
	}
}

func TestSamplesInPounds(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	in := []health.Sample{{Value: 68, Created: at}, {Value: 100, Created: at}}

	got := health.SamplesInPounds(in)
	if len(got) != 2 || got[0].Value != 150 || got[1].Value != 220 {
		t.Errorf("SamplesInPounds() = %+v, want values [150 220]", got)
	}
	if !got[0].Created.Equal(at) {
		t.Errorf("SamplesInPounds() changed created to %v", got[0].Created)
	}
	if in[0].Value != 68 {
		t.Errorf("SamplesInPounds() modified its input: %+v", in)
	}
}
