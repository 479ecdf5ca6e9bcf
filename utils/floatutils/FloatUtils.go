// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Clip clips a floating point to within a minimum and maximum value
func Clip(value, min, max float64) float64 {
	return math.Max(math.Min(value, max), min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// AllClose returns whether a and b have equal length and every pair of
// elements is within atol
func AllClose(a, b []float64, atol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > atol {
			return false
		}
	}
	return true
}

// WrapAngle maps an angle in radians into [0, period)
func WrapAngle(angle, period float64) float64 {
	angle = math.Mod(angle, period)
	if angle < 0 {
		angle += period
	}
	return angle
}
