package score

import "math"

// Range is the raw-value band that maps onto 0-100.
type Range struct {
	Min float64
	Max float64
}

// Normalize maps value onto 0-100 given the [min, max] band. Values at or
// beyond either end clamp to 0 or 100; NaN yields nil. Interpolated values are
// rounded half away from zero.
func Normalize(value, min, max float64) *int {
	if math.IsNaN(value) {
		return nil
	}
	if value <= min {
		return intPtr(0)
	}
	if value >= max {
		return intPtr(100)
	}
	return intPtr(int(math.Round((value - min) / (max - min) * 100)))
}

// Normalize applies the package-level Normalize with r's bounds.
func (r Range) Normalize(value float64) *int {
	return Normalize(value, r.Min, r.Max)
}

func clampScore(v float64) int {
	r := math.Round(v)
	if math.IsNaN(r) || r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return int(r)
}

func intPtr(v int) *int {
	return &v
}
