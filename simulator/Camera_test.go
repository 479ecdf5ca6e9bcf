package simulator_test

import (
	"testing"

	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestViewMatrixTopDown(t *testing.T) {
	eye := r3.Vec{X: 0.5, Y: 0, Z: 10}
	target := r3.Vec{X: 0.5}
	view := simulator.Matrix(simulator.ComputeViewMatrix(eye, target,
		r3.Vec{X: -1}))

	// The camera looks down -z in eye space, so the target lies 10
	// units in front of it
	p := mat.NewVecDense(4, []float64{target.X, target.Y, target.Z, 1})
	var out mat.VecDense
	out.MulVec(view, p)

	assert.InDelta(t, 0, out.AtVec(0), 1e-9)
	assert.InDelta(t, 0, out.AtVec(1), 1e-9)
	assert.InDelta(t, -10, out.AtVec(2), 1e-9)

	// World +y is image right with an up vector of -x
	p = mat.NewVecDense(4, []float64{0.5, 1, 0, 1})
	out.MulVec(view, p)
	assert.InDelta(t, 1, out.AtVec(0), 1e-9)
}

func TestProjectionDepthRange(t *testing.T) {
	near, far := 0.1, 10.0
	proj := simulator.Matrix(simulator.ComputeProjectionMatrixFOV(60, 1, near,
		far))

	for _, z := range []float64{near, 1, far} {
		p := mat.NewVecDense(4, []float64{0, 0, -z, 1})
		var clip mat.VecDense
		clip.MulVec(proj, p)
		ndc := clip.AtVec(2) / clip.AtVec(3)

		d := (ndc + 1) / 2
		require.InDelta(t, z, simulator.LinearDepth(d, near, far), 1e-6)
		require.InDelta(t, d, simulator.BufferDepth(z, near, far), 1e-9)
	}
}

func TestPhysicsModes(t *testing.T) {
	_, err := simulator.PhysicsFast.Params()
	assert.NoError(t, err)

	slow, err := simulator.PhysicsSlow.Params()
	assert.NoError(t, err)
	assert.Greater(t, slow.SolverIterations, 50)

	_, err = simulator.PhysicsMode("medium").Params()
	assert.Error(t, err)
}
