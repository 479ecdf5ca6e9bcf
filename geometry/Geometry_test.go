package geometry_test

import (
	"math"
	"testing"

	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestEulerRoundTrip(t *testing.T) {
	angles := [][3]float64{
		{0, 0, 0},
		{0.1, -0.2, 0.3},
		{0, 0, math.Pi / 2},
		{-0.4, 0.5, -2.5},
	}

	for _, a := range angles {
		q := geometry.FromEuler(a[0], a[1], a[2])
		r, p, y := q.Euler()
		assert.InDelta(t, a[0], r, 1e-9)
		assert.InDelta(t, a[1], p, 1e-9)
		assert.InDelta(t, a[2], y, 1e-9)
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	q := geometry.FromEuler(0.3, -0.7, 1.2)
	back := geometry.FromMatrix(q.Matrix())
	assert.True(t, geometry.RotationClose(q, back, 1e-9))
}

func TestRotateYaw(t *testing.T) {
	q := geometry.FromEuler(0, 0, math.Pi/2)
	v := q.Rotate(r3.Vec{X: 1})
	assert.InDelta(t, 0, v.X, 1e-9)
	assert.InDelta(t, 1, v.Y, 1e-9)
	assert.InDelta(t, 0, v.Z, 1e-9)
}

func TestPoseInverse(t *testing.T) {
	p := geometry.NewPose(geometry.Vec(0.3, -0.1, 0.2),
		geometry.FromEuler(0.1, 0.2, 0.3))

	id := p.Mul(p.Inverse())
	assert.True(t, geometry.PositionClose(id.Position, r3.Vec{}, 1e-9))
	assert.True(t, geometry.RotationClose(id.Orientation, geometry.Identity(),
		1e-9))

	// The homogeneous matrices must agree with composition
	var m mat.Dense
	m.Mul(p.Matrix(), p.Inverse().Matrix())
	assert.True(t, mat.EqualApprox(&m, geometry.IdentityPose().Matrix(), 1e-9))
}

func TestRelative(t *testing.T) {
	a := geometry.NewPose(geometry.Vec(1, 0, 0), geometry.FromEuler(0, 0, 1))
	b := geometry.NewPose(geometry.Vec(1, 1, 0.5), geometry.FromEuler(0, 0, -0.5))

	rel := geometry.Relative(a, b)
	got := a.Mul(rel)
	assert.True(t, geometry.PositionClose(got.Position, b.Position, 1e-9))
	assert.True(t, geometry.RotationClose(got.Orientation, b.Orientation, 1e-9))

	fromMat := geometry.PoseFromMatrix(b.Matrix())
	assert.True(t, geometry.PositionClose(fromMat.Position, b.Position, 1e-9))
}
