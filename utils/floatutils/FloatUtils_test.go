package floatutils_test

import (
	"math"
	"testing"

	"github.com/samuelfneumann/helpinghands/utils/floatutils"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	assert.Equal(t, 1.0, floatutils.Clip(3, -1, 1))
	assert.Equal(t, -1.0, floatutils.Clip(-3, -1, 1))
	assert.Equal(t, 0.5, floatutils.ClipInterval(0.5, r1.Interval{Min: 0, Max: 1}))
}

func TestAllClose(t *testing.T) {
	assert.True(t, floatutils.AllClose([]float64{1, 2}, []float64{1.005, 2}, 1e-2))
	assert.False(t, floatutils.AllClose([]float64{1, 2}, []float64{1.05, 2}, 1e-2))
	assert.False(t, floatutils.AllClose([]float64{1}, []float64{1, 2}, 1e-2))
}

func TestWrapAngle(t *testing.T) {
	assert.InDelta(t, math.Pi/2, floatutils.WrapAngle(-math.Pi/2, math.Pi), 1e-12)
	assert.InDelta(t, 0.5, floatutils.WrapAngle(0.5+2*math.Pi, 2*math.Pi), 1e-12)
}
