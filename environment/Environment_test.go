package environment_test

import (
	"errors"
	"testing"

	"github.com/samuelfneumann/helpinghands/environment"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestStepLimit(t *testing.T) {
	ender := environment.NewStepLimit(3)

	step := ts.New(ts.Mid, 0, 1, ts.Observation{}, 2)
	done, err := ender.End(&step)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, ts.Mid, step.StepType)

	step.Number = 3
	done, err = ender.End(&step)
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, step.Last())
	assert.Equal(t, ts.Timeout, step.EndType)
}

func TestFunctionEnder(t *testing.T) {
	success := false
	ender := environment.NewFunctionEnder(func() (bool, error) {
		return success, nil
	}, ts.TerminalStateReached)

	step := ts.New(ts.Mid, 0, 1, ts.Observation{}, 1)
	done, err := ender.End(&step)
	require.NoError(t, err)
	assert.False(t, done)

	success = true
	done, err = ender.End(&step)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, ts.TerminalStateReached, step.EndType)

	failing := environment.NewFunctionEnder(func() (bool, error) {
		return false, errors.New("engine gone")
	}, ts.TerminalStateReached)
	_, err = failing.End(&step)
	assert.Error(t, err)
}

func TestIntervalLimit(t *testing.T) {
	bounds := [3]r1.Interval{{Min: 0, Max: 1}, {Min: -1, Max: 1}, {Min: 0, Max: 1}}
	positions := []r3.Vec{{X: 0.5}}
	ender := environment.NewIntervalLimit(bounds, func() ([]r3.Vec, error) {
		return positions, nil
	}, ts.Invalid)

	step := ts.New(ts.Mid, 0, 1, ts.Observation{}, 1)
	done, err := ender.End(&step)
	require.NoError(t, err)
	assert.False(t, done)

	positions = append(positions, r3.Vec{X: 0.5, Y: 1.5})
	done, err = ender.End(&step)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, ts.Invalid, step.EndType)

	assert.Panics(t, func() {
		environment.NewIntervalLimit([3]r1.Interval{{Min: 1, Max: 0}}, nil,
			ts.Invalid)
	})
}

func TestUniformStarter(t *testing.T) {
	bounds := []r1.Interval{{Min: 0.3, Max: 0.7}, {Min: -0.2, Max: 0.2}}
	starter := environment.NewUniformStarter(bounds, rand.NewSource(1))
	for i := 0; i < 100; i++ {
		v := starter.Start()
		require.Equal(t, 2, v.Len())
		for j, b := range bounds {
			assert.GreaterOrEqual(t, v.AtVec(j), b.Min)
			assert.LessOrEqual(t, v.AtVec(j), b.Max)
		}
	}
}

func TestCategoricalStarter(t *testing.T) {
	starter := environment.NewCategoricalStarter([]int{3}, rand.NewSource(1))
	seen := make(map[float64]bool)
	for i := 0; i < 200; i++ {
		seen[starter.Start().AtVec(0)] = true
	}
	assert.Equal(t, map[float64]bool{0: true, 1: true, 2: true}, seen)
}

func TestSpec(t *testing.T) {
	spec := environment.NewSpec(mat.NewVecDense(2, nil), environment.Action,
		mat.NewVecDense(2, []float64{0, -1}), mat.NewVecDense(2, []float64{1, 1}),
		environment.Continuous)
	assert.True(t, spec.Contains(mat.NewVecDense(2, []float64{0.5, 0})))
	assert.False(t, spec.Contains(mat.NewVecDense(2, []float64{0.5, 2})))

	assert.Panics(t, func() {
		environment.NewSpec(mat.NewVecDense(2, nil), environment.Action,
			mat.NewVecDense(1, nil), mat.NewVecDense(2, nil),
			environment.Continuous)
	})
}
