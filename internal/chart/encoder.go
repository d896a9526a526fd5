// Package chart builds chart service URLs from integer series. It only
// produces strings; nothing is fetched or rendered.
//
// Series are scaled into the 62-symbol simple encoding against the peak
// plus 10% headroom, so the peak never lands on the top symbol. The headroom
// is applied to every value, not just computed, and raw values are never
// written into the URL.
package chart

import (
	"fmt"
	"math"
	"strings"
)

// DefaultBaseURL is the chart service endpoint, including the trailing '?'.
const DefaultBaseURL = "http://chart.apis.google.com/chart?"

// simpleAlphabet maps 0..61 to the chart service's simple encoding.
const simpleAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// missing marks a slot with no data.
const missing = '_'

// Chart service size limits.
const (
	MaxSide   = 1000
	MaxPixels = 300000
)

// scaledMax returns the series maximum with 10% headroom. It stays a float
// so peaks near math.MaxInt do not overflow.
func scaledMax(data []int) float64 {
	peak := 0
	for _, v := range data {
		peak = max(peak, v)
	}
	return math.Floor(float64(peak)*1.1 + 0.5)
}

// SimpleEncode encodes data in the chart service's simple format, including
// the "s:" prefix. Values are scaled against the maximum plus 10% headroom;
// negative values are treated as missing.
func SimpleEncode(data []int) string {
	top := scaledMax(data)

	var sb strings.Builder
	sb.Grow(2 + len(data))
	sb.WriteString("s:")
	for _, v := range data {
		switch {
		case v < 0:
			sb.WriteByte(missing)
		case top == 0:
			sb.WriteByte(simpleAlphabet[0])
		default:
			last := len(simpleAlphabet) - 1
			idx := int(math.Floor(float64(last)*float64(v)/top + 0.5))
			sb.WriteByte(simpleAlphabet[max(0, min(idx, last))])
		}
	}
	return sb.String()
}

// Encoder builds complete chart URLs against a base URL.
type Encoder struct {
	baseURL string
}

// NewEncoder creates an Encoder. An empty baseURL means DefaultBaseURL.
func NewEncoder(baseURL string) *Encoder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Encoder{baseURL: baseURL}
}

// LineGraph returns the URL of a line chart of data at width x height pixels.
func (e *Encoder) LineGraph(width, height int, data []int) (string, error) {
	if err := checkSize(width, height); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(e.baseURL)
	fmt.Fprintf(&sb, "cht=lc&chs=%dx%d&chd=%s", width, height, SimpleEncode(data))
	return sb.String(), nil
}

func checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("chart size must be positive, got %dx%d", width, height)
	}
	if width > MaxSide || height > MaxSide {
		return fmt.Errorf("chart side exceeds %d pixels: %dx%d", MaxSide, width, height)
	}
	if width*height > MaxPixels {
		return fmt.Errorf("chart area exceeds %d pixels: %dx%d", MaxPixels, width, height)
	}
	return nil
}
