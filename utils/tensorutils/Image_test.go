package tensorutils_test

import (
	"math"
	"testing"

	"github.com/samuelfneumann/helpinghands/utils/tensorutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func grid(n int) *tensor.Dense {
	data := make([]float64, n*n)
	for i := range data {
		data[i] = float64(i)
	}
	return tensor.New(tensor.WithShape(n, n), tensor.WithBacking(data))
}

func TestRegion(t *testing.T) {
	img := grid(4)
	region, err := tensorutils.Region(img, 1, 3, -2, 2)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, region.Shape())
	assert.Equal(t, []float64{4, 5, 8, 9}, tensorutils.Float64s(region))
	assert.Equal(t, 9.0, tensorutils.Max(region))

	_, err = tensorutils.Region(img, 5, 6, 0, 1)
	assert.Error(t, err)
}

func TestSlice(t *testing.T) {
	s := tensorutils.NewSlice(0, 4, 2)
	assert.Equal(t, []int{0, 4, 2}, []int{s.Start(), s.End(), s.Step()})

	view, err := grid(4).Slice(s, tensorutils.NewSlice(1, 3, 1))
	require.NoError(t, err)
	rows := view.Materialize().(*tensor.Dense)
	assert.Equal(t, tensor.Shape{2, 2}, rows.Shape())
	assert.Equal(t, []float64{1, 2, 9, 10}, tensorutils.Float64s(rows))
}

func TestCrop(t *testing.T) {
	img := grid(4)
	crop, err := tensorutils.Crop(img, 0, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, tensorutils.Float64s(crop))

	crop, err = tensorutils.Crop(img, 2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6, 9, 10}, tensorutils.Float64s(crop))
}

func TestRotate(t *testing.T) {
	img := tensor.New(tensor.WithShape(3, 3), tensor.WithBacking([]float64{
		0, 1, 0,
		0, 0, 0,
		0, 0, 0,
	}))

	rotated, err := tensorutils.Rotate(img, math.Pi/2)
	require.NoError(t, err)
	assert.Equal(t, []float64{
		0, 0, 0,
		1, 0, 0,
		0, 0, 0,
	}, tensorutils.Float64s(rotated))

	same, err := tensorutils.Rotate(img, 0)
	require.NoError(t, err)
	assert.Equal(t, tensorutils.Float64s(img), tensorutils.Float64s(same))

	_, err = tensorutils.Rotate(tensorutils.Zeros(2, 3), 1)
	assert.Error(t, err)
}
