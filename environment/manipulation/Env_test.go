package manipulation_test

import (
	"errors"
	"testing"

	"github.com/samuelfneumann/helpinghands/assets"
	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/manipulation"
	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/logging"
	"github.com/samuelfneumann/helpinghands/objects"
	"github.com/samuelfneumann/helpinghands/robots"
	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/samuelfneumann/helpinghands/simulator/kinematic"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"github.com/samuelfneumann/helpinghands/utils/tensorutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gorgonia.org/tensor"
)

func newEnv(t *testing.T, modify func(*envconfig.Config)) *manipulation.Env {
	t.Helper()
	config := envconfig.Default()
	config.ObsSize = 64
	if modify != nil {
		modify(&config)
	}
	e, err := manipulation.New(config, kinematic.New(assets.FS),
		logging.NoOp{})
	require.NoError(t, err)
	return e
}

// resetCubes resets e with cubes at the given x-y positions
func resetCubes(t *testing.T, e *manipulation.Env,
	positions ...r3.Vec) []*objects.Object {
	t.Helper()
	var cubes []*objects.Object
	_, err := e.ResetWith(func() error {
		var err error
		cubes, err = e.GenerateShapes(objects.Cube, len(positions),
			manipulation.GenerateOptions{Positions: positions})
		return err
	})
	require.NoError(t, err)
	return cubes
}

func TestNewInvalidConfig(t *testing.T) {
	config := envconfig.Default()
	config.MaxSteps = 0
	_, err := manipulation.New(config, kinematic.New(assets.FS), nil)
	assert.Error(t, err)
}

func TestResetObservation(t *testing.T) {
	e := newEnv(t, nil)
	cubes := resetCubes(t, e, r3.Vec{X: 0.5})
	require.Len(t, e.Objects(), 1)

	step := e.CurrentTimeStep()
	assert.True(t, step.First())
	assert.False(t, step.Observation.Holding)
	assert.Equal(t, tensor.Shape{64, 64}, step.Observation.Heightmap.Shape())
	assert.Equal(t, tensor.Shape{24, 24}, step.Observation.InHand.Shape())
	assert.Equal(t, 0.0, tensorutils.Max(step.Observation.InHand))

	// The cube settles on the floor and shows in the heightmap
	z, err := cubes[0].ZPosition()
	require.NoError(t, err)
	assert.InDelta(t, 0.015, z, 1e-9)
	assert.InDelta(t, 0.03, tensorutils.Max(step.Observation.Heightmap), 1e-6)

	row, col := e.Pixel(0.5, 0)
	assert.Equal(t, 32, row)
	assert.Equal(t, 32, col)
	region, err := e.LocalRegion(0.5, 0, 0.01)
	require.NoError(t, err)
	assert.InDelta(t, 0.03, tensorutils.Max(region), 1e-6)

	ground, err := e.IsObjOnGround(cubes[0])
	require.NoError(t, err)
	assert.True(t, ground)
}

func TestValidPositions(t *testing.T) {
	e := newEnv(t, nil)
	existing := []r3.Vec{{X: 0.5}}
	positions, err := e.ValidPositions(0.05, 0.09, existing, 3)
	require.NoError(t, err)
	require.Len(t, positions, 3)

	all := append(positions, existing...)
	for i, p := range positions {
		assert.GreaterOrEqual(t, p.X, 0.35)
		assert.LessOrEqual(t, p.X, 0.65)
		assert.GreaterOrEqual(t, p.Y, -0.15)
		assert.LessOrEqual(t, p.Y, 0.15)
		for j, q := range all {
			if i == j {
				continue
			}
			assert.GreaterOrEqual(t, r3.Norm(r3.Sub(p, q)), 0.09)
		}
	}

	_, err = e.ValidPositions(0.05, 1, nil, 2)
	assert.True(t, errors.Is(err, simulator.ErrNoValidPosition))
	_, err = e.ValidPositions(0.3, 0.01, nil, 1)
	assert.True(t, errors.Is(err, simulator.ErrNoValidPosition))
}

func TestGenerateSpacing(t *testing.T) {
	e := newEnv(t, nil)
	resetCubes(t, e, r3.Vec{X: 0.5})

	// A padding of 0.195 leaves a 0.01 square around the cube
	_, err := e.GenerateShapes(objects.Cube, 1, manipulation.GenerateOptions{
		Padding: manipulation.Float64(0.195),
	})
	assert.True(t, errors.Is(err, simulator.ErrNoValidPosition),
		"configured minimum distance applies")

	cubes, err := e.GenerateShapes(objects.Cube, 1, manipulation.GenerateOptions{
		Padding:     manipulation.Float64(0.195),
		MinDistance: manipulation.Float64(0),
	})
	require.NoError(t, err, "zero minimum distance is kept")
	assert.Len(t, e.Objects(), 2)

	pos, err := cubes[0].Position()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pos.X, 0.01)
	assert.InDelta(t, 0, pos.Y, 0.01)
}

func TestResetRetries(t *testing.T) {
	e := newEnv(t, nil)

	calls := 0
	_, err := e.ResetWith(func() error {
		calls++
		if calls < 3 {
			_, err := e.GenerateShapes(objects.Cube, 1,
				manipulation.GenerateOptions{})
			require.NoError(t, err)
			return simulator.ErrNoValidPosition
		}
		_, err := e.GenerateShapes(objects.Cube, 2,
			manipulation.GenerateOptions{})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, e.Objects(), 2, "failed attempts are cleaned up")
	assert.Equal(t, 1, e.Episodes())

	_, err = e.ResetWith(func() error {
		return simulator.ErrNoValidPosition
	})
	assert.True(t, errors.Is(err, manipulation.ErrResetFailed))

	_, err = e.ResetWith(func() error {
		return errors.New("engine gone")
	})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, manipulation.ErrResetFailed))
}

func TestSoftReset(t *testing.T) {
	e := newEnv(t, func(c *envconfig.Config) { c.HardResetFreq = 2 })
	resetCubes(t, e, r3.Vec{X: 0.5})
	assert.True(t, e.WasHardReset())
	plane := e.PlaneID()

	resetCubes(t, e, r3.Vec{X: 0.4})
	assert.False(t, e.WasHardReset())
	assert.Equal(t, plane, e.PlaneID())
	assert.Len(t, e.Objects(), 1)

	resetCubes(t, e, r3.Vec{X: 0.4})
	assert.True(t, e.WasHardReset())
}

func TestDecodeAction(t *testing.T) {
	e := newEnv(t, nil)
	resetCubes(t, e, r3.Vec{X: 0.5})

	a, err := e.DecodeAction(mat.NewVecDense(5, []float64{1, 0.4, 0.1, 0.2, 0.5}))
	require.NoError(t, err)
	assert.Equal(t, robots.Place, a.Primitive)
	assert.Equal(t, r3.Vec{X: 0.4, Y: 0.1, Z: 0.2}, a.Position)
	assert.Equal(t, 0.5, a.Rotation)

	_, err = e.DecodeAction(mat.NewVecDense(3, nil))
	assert.Error(t, err)
	_, err = e.DecodeAction(mat.NewVecDense(5, []float64{7, 0.4, 0, 0, 0}))
	assert.Error(t, err)

	e = newEnv(t, func(c *envconfig.Config) { c.ActionSequence = "xyr" })
	resetCubes(t, e, r3.Vec{X: 0.5})
	a, err = e.DecodeAction(mat.NewVecDense(3, []float64{0.5, 0, 0}))
	require.NoError(t, err)
	assert.Equal(t, robots.Pick, a.Primitive, "empty gripper picks")
	assert.InDelta(t, 0.02, a.Position.Z, 1e-6)

	z, err := e.PrimitiveHeight(robots.Place, 0.5, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, z, 1e-6)
}

func TestStepStack(t *testing.T) {
	e := newEnv(t, nil)
	cubes := resetCubes(t, e, r3.Vec{X: 0.45, Y: -0.05}, r3.Vec{X: 0.55, Y: 0.05})
	e.SetTermination(func() (bool, error) {
		return e.CheckStack(nil)
	})

	pick := mat.NewVecDense(5, []float64{0, 0.45, -0.05, 0.02, 0})
	step, done, err := e.Step(pick)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 0.0, step.Reward)
	assert.True(t, step.Observation.Holding)
	assert.True(t, e.IsObjectHeld(cubes[0]))
	assert.InDelta(t, 0.03, tensorutils.Max(step.Observation.InHand), 1e-6)

	lifted, err := e.IsObjectLifted(cubes[0])
	require.NoError(t, err)
	assert.True(t, lifted)

	valid, err := e.IsSimValid()
	require.NoError(t, err)
	assert.True(t, valid, "held objects are not checked")

	place := mat.NewVecDense(5, []float64{1, 0.55, 0.05, 0.08, 0})
	step, done, err = e.Step(place)
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, step.Last())
	assert.Equal(t, ts.TerminalStateReached, step.EndType)
	assert.Equal(t, 1.0, step.Reward)
	assert.Equal(t, 2, step.Number)

	onTop, err := e.CheckOnTop(cubes[1], cubes[0])
	require.NoError(t, err)
	assert.True(t, onTop)
	top, err := e.IsObjOnTop(cubes[1])
	require.NoError(t, err)
	assert.False(t, top)
	heights, err := e.ObjectHeights()
	require.NoError(t, err)
	assert.InDelta(t, 0.045, heights[0], 1e-6)
}

func TestRewards(t *testing.T) {
	e := newEnv(t, func(c *envconfig.Config) { c.RewardType = envconfig.Dense })
	resetCubes(t, e, r3.Vec{X: 0.5})

	// Push in empty space
	push := mat.NewVecDense(5, []float64{2, 0.35, 0.15, 0.02, 0})
	step, done, err := e.Step(push)
	require.NoError(t, err)
	assert.False(t, done)
	assert.InDelta(t, -0.01, step.Reward, 1e-12)

	e = newEnv(t, func(c *envconfig.Config) {
		c.RewardType = envconfig.StepLeft
		c.MaxSteps = 1
	})
	resetCubes(t, e, r3.Vec{X: 0.5})
	e.SetStepsLeft(func() (int, error) { return 3, nil })
	step, done, err = e.Step(push)
	require.NoError(t, err)
	assert.Equal(t, -3.0, step.Reward)
	assert.True(t, done)
	assert.Equal(t, ts.Timeout, step.EndType)
}

func TestWorkspaceCheck(t *testing.T) {
	for _, check := range []envconfig.WorkspaceCheck{envconfig.Point,
		envconfig.Box} {
		e := newEnv(t, func(c *envconfig.Config) { c.WorkspaceCheck = check })
		cubes := resetCubes(t, e, r3.Vec{X: 0.5})

		valid, err := e.IsSimValid()
		require.NoError(t, err)
		assert.True(t, valid)

		// Just inside the padded workspace by its centre only
		require.NoError(t, cubes[0].ResetPose(geometry.NewPose(
			r3.Vec{X: 0.745, Z: 0.015}, geometry.Identity())))
		valid, err = e.IsSimValid()
		require.NoError(t, err)
		assert.Equal(t, check == envconfig.Point, valid, string(check))

		require.NoError(t, cubes[0].ResetPose(geometry.NewPose(
			r3.Vec{X: 1, Z: 0.015}, geometry.Identity())))
		valid, err = e.IsSimValid()
		require.NoError(t, err)
		assert.False(t, valid)
	}
}

func TestSpecs(t *testing.T) {
	e := newEnv(t, nil)
	action := e.ActionSpec()
	assert.Equal(t, 5, action.Shape.Len())
	assert.True(t, action.Contains(mat.NewVecDense(5,
		[]float64{1, 0.5, 0, 0.1, 1})))
	assert.False(t, action.Contains(mat.NewVecDense(5,
		[]float64{1, 0.5, 0, 0.1, 4})), "half rotation")

	obs := e.ObservationSpec()
	assert.Equal(t, 1+24*24+64*64, obs.Shape.Len())
	assert.Equal(t, 1, e.DiscountSpec().Shape.Len())
}

func TestPerfectGrasp(t *testing.T) {
	e := newEnv(t, func(c *envconfig.Config) {
		c.PerfectGrasp = true
		c.SimulateGrasp = false
	})
	cubes := resetCubes(t, e, r3.Vec{X: 0.5})

	// Without simulating the grasp the fingers never close
	pick := mat.NewVecDense(5, []float64{0, 0.5, 0, 0.02, 0})
	step, _, err := e.Step(pick)
	require.NoError(t, err)
	assert.True(t, step.Observation.Holding)
	assert.True(t, e.IsObjectHeld(cubes[0]))

	place := mat.NewVecDense(5, []float64{1, 0.4, 0.1, 0.05, 0})
	_, _, err = e.Step(place)
	require.NoError(t, err)
	assert.False(t, e.IsHolding())

	pos, err := cubes[0].Position()
	require.NoError(t, err)
	assert.InDelta(t, 0.4, pos.X, 2e-3)
	assert.InDelta(t, 0.1, pos.Y, 2e-3)
	assert.InDelta(t, 0.015, pos.Z, 1e-6)
}
