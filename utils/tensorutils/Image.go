// Package tensorutils implements helpers for cropping, rotating, and
// reading the 2D image tensors used as observations
package tensorutils

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/utils/intutils"
	"gorgonia.org/tensor"
)

// Zeros returns a rows x cols float64 tensor of zeros
func Zeros(rows, cols int) *tensor.Dense {
	return tensor.New(tensor.WithShape(rows, cols),
		tensor.WithBacking(make([]float64, rows*cols)))
}

// Float64s returns the data of a float64 tensor in row-major order
func Float64s(t *tensor.Dense) []float64 {
	if t.IsMaterializable() {
		t = t.Materialize().(*tensor.Dense)
	}
	switch data := t.Data().(type) {
	case []float64:
		return data
	case float64:
		return []float64{data}
	}
	panic(fmt.Sprintf("float64s: tensor of type %v", t.Dtype()))
}

// Region returns a copy of rows [r0, r1) and columns [c0, c1) of a 2D
// tensor. The bounds are clamped to the tensor.
func Region(t *tensor.Dense, r0, r1, c0, c1 int) (*tensor.Dense, error) {
	shape := t.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("region: expected 2D tensor, have shape %v",
			shape)
	}
	r0, r1 = intutils.Clamp(r0, 0, shape[0]), intutils.Clamp(r1, 0, shape[0])
	c0, c1 = intutils.Clamp(c0, 0, shape[1]), intutils.Clamp(c1, 0, shape[1])
	if r0 >= r1 || c0 >= c1 {
		return nil, fmt.Errorf("region: empty region [%v:%v, %v:%v]", r0, r1,
			c0, c1)
	}

	view, err := t.Slice(NewSlice(r0, r1, 1), NewSlice(c0, c1, 1))
	if err != nil {
		return nil, fmt.Errorf("region: %v", err)
	}
	return view.Materialize().(*tensor.Dense), nil
}

// Max returns the largest element of a float64 tensor
func Max(t *tensor.Dense) float64 {
	max := math.Inf(-1)
	for _, v := range Float64s(t) {
		max = math.Max(max, v)
	}
	return max
}

// Crop returns the size x size window of a 2D tensor centred on
// (row, col). Pixels outside the tensor are zero.
func Crop(t *tensor.Dense, row, col, size int) (*tensor.Dense, error) {
	shape := t.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("crop: expected 2D tensor, have shape %v",
			shape)
	}
	data := Float64s(t)

	out := make([]float64, size*size)
	r0, c0 := row-size/2, col-size/2
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			sr, sc := r0+r, c0+c
			if sr < 0 || sr >= shape[0] || sc < 0 || sc >= shape[1] {
				continue
			}
			out[r*size+c] = data[sr*shape[1]+sc]
		}
	}
	return tensor.New(tensor.WithShape(size, size), tensor.WithBacking(out)),
		nil
}

// Rotate rotates a square 2D tensor counter-clockwise by angle radians
// about its centre using nearest-neighbour sampling. Pixels rotated in
// from outside the image are zero.
func Rotate(t *tensor.Dense, angle float64) (*tensor.Dense, error) {
	shape := t.Shape()
	if len(shape) != 2 || shape[0] != shape[1] {
		return nil, fmt.Errorf("rotate: expected square 2D tensor, have "+
			"shape %v", shape)
	}
	n := shape[0]
	data := Float64s(t)
	centre := float64(n-1) / 2
	sin, cos := math.Sincos(angle)

	out := make([]float64, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			// Inverse map from output pixel to source pixel
			x, y := float64(c)-centre, centre-float64(r)
			sx := cos*x + sin*y
			sy := -sin*x + cos*y
			sc := int(math.Round(sx + centre))
			sr := int(math.Round(centre - sy))
			if sr < 0 || sr >= n || sc < 0 || sc >= n {
				continue
			}
			out[r*n+c] = data[sr*n+sc]
		}
	}
	return tensor.New(tensor.WithShape(n, n), tensor.WithBacking(out)), nil
}
