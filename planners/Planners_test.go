package planners_test

import (
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/tasks"
	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/objects"
	"github.com/samuelfneumann/helpinghands/planners"
	"github.com/samuelfneumann/helpinghands/robots"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func setup(t *testing.T, name string,
	modify func(*envconfig.Config)) (tasks.Task, planners.Planner) {
	t.Helper()
	config := envconfig.Default()
	config.ObsSize = 64
	config.Seed = 3
	if modify != nil {
		modify(&config)
	}
	task, _, err := tasks.Create(name, config)
	require.NoError(t, err)
	planner, err := planners.New(name, task, config)
	require.NoError(t, err)
	return task, planner
}

// run steps task with the planner's actions until the episode ends
func run(t *testing.T, task tasks.Task, planner planners.Planner,
	maxSteps int) ts.TimeStep {
	t.Helper()
	var step ts.TimeStep
	for i := 0; i < maxSteps; i++ {
		action, err := planner.NextAction()
		require.NoError(t, err)
		var done bool
		step, done, err = task.Step(action)
		require.NoError(t, err)
		if done {
			break
		}
	}
	return step
}

func TestRegistry(t *testing.T) {
	for _, name := range tasks.Names() {
		assert.Contains(t, planners.Registry, name)
	}
	assert.Contains(t, planners.Names(), "random")

	task, _ := setup(t, "block_stacking", nil)
	_, err := planners.New("pyramid_stacking", task, envconfig.Default())
	assert.True(t, errors.Is(err, planners.ErrUnknownPlanner))

	_, err = planners.New("drawer_opening", task, envconfig.Default())
	assert.Error(t, err, "block stacking has no drawer")
}

func TestEncodeAction(t *testing.T) {
	config := envconfig.Default()
	base := planners.NewBase(nil, config)

	action := base.EncodeAction(robots.Place, 0.4, 0.1, 0.05, 3*math.Pi/2)
	want := []float64{1, 0.4, 0.1, 0.05, math.Pi / 2}
	require.Equal(t, 5, action.Len())
	for i := range want {
		assert.InDelta(t, want[i], action.AtVec(i), 1e-12)
	}

	config.ActionSequence = "xyr"
	config.HalfRotation = false
	base = planners.NewBase(nil, config)
	action = base.EncodeAction(robots.Pick, 0.4, 0.1, 0.05, -math.Pi/2)
	assert.True(t, mat.EqualApprox(mat.NewVecDense(3,
		[]float64{0.4, 0.1, 3 * math.Pi / 2}), action, 1e-12))
}

func TestRandom(t *testing.T) {
	task, _ := setup(t, "block_stacking", nil)
	planner, err := planners.New("random", task, task.Base().Config())
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		action, err := planner.NextAction()
		require.NoError(t, err)
		assert.Equal(t, float64(robots.Pick), action.AtVec(0))
		assert.True(t, task.ActionSpec().Contains(action), "%v",
			mat.Formatted(action.T()))
	}
	steps, err := planner.StepsLeft()
	require.NoError(t, err)
	assert.Equal(t, 100, steps)
}

func TestBlockPicking(t *testing.T) {
	task, planner := setup(t, "block_picking", func(c *envconfig.Config) {
		c.NumObjects = 1
	})
	steps, err := planner.StepsLeft()
	require.NoError(t, err)
	assert.Equal(t, 1, steps)

	step := run(t, task, planner, 1)
	assert.Equal(t, ts.TerminalStateReached, step.EndType)

	steps, err = planner.StepsLeft()
	require.NoError(t, err)
	assert.Equal(t, 0, steps)
}

func TestBlockStacking(t *testing.T) {
	task, planner := setup(t, "block_stacking", func(c *envconfig.Config) {
		c.RewardType = envconfig.StepLeft
	})
	task.Base().SetStepsLeft(planner.StepsLeft)

	steps, err := planner.StepsLeft()
	require.NoError(t, err)
	assert.Equal(t, 2, steps)

	action, err := planner.NextAction()
	require.NoError(t, err)
	step, done, err := task.Step(action)
	require.NoError(t, err)
	require.False(t, done)
	assert.True(t, step.Observation.Holding)
	assert.Equal(t, -1.0, step.Reward)

	step = run(t, task, planner, 1)
	assert.True(t, step.Last())
	assert.Equal(t, ts.TerminalStateReached, step.EndType)
	assert.Equal(t, 0.0, step.Reward)
}

func TestDeconstruct(t *testing.T) {
	task, planner := setup(t, "house_building_1_deconstruct", nil)

	steps, err := planner.StepsLeft()
	require.NoError(t, err)
	assert.Equal(t, 2, steps, "only the triangle is off the ground")

	step := run(t, task, planner, 4)
	assert.Equal(t, ts.TerminalStateReached, step.EndType)
	assert.Equal(t, 2, step.Number)
}

func TestDrawerOpening(t *testing.T) {
	task, planner := setup(t, "drawer_opening", nil)
	drawer := task.(*tasks.DrawerOpening).Drawer()

	handle, err := drawer.HandlePosition()
	require.NoError(t, err)

	action, err := planner.NextAction()
	require.NoError(t, err)
	want := []float64{float64(robots.Pull), handle.X, handle.Y, handle.Z, 0}
	for i := range want {
		assert.InDelta(t, want[i], action.AtVec(i), 1e-9)
	}

	steps, err := planner.StepsLeft()
	require.NoError(t, err)
	assert.Equal(t, 1, steps)
}

func TestSolveAll(t *testing.T) {
	for _, name := range tasks.Names() {
		for seed := uint64(1); seed <= 3; seed++ {
			task, planner := setup(t, name, func(c *envconfig.Config) {
				c.Seed = seed
				c.NumObjects = 3
				c.MaxSteps = 30
			})

			step := run(t, task, planner, 30)
			assert.Equal(t, ts.TerminalStateReached, step.EndType,
				"%v seed %v after %v steps", name, seed, step.Number)

			if d, ok := task.(*tasks.DrawerOpening); ok {
				open, err := d.Drawer().IsOpen()
				require.NoError(t, err)
				assert.True(t, open, "seed %v", seed)
			}
			require.NoError(t, task.Close())
		}
	}
}

func TestHouseBuilding2Seeds(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		task, planner := setup(t, "house_building_2", func(c *envconfig.Config) {
			c.Seed = seed
			c.RandomOrientation = seed%2 == 0
			c.MaxSteps = 30
		})

		step := run(t, task, planner, 30)
		assert.Equal(t, ts.TerminalStateReached, step.EndType,
			"seed %v after %v steps", seed, step.Number)
		require.NoError(t, task.Close())
	}
}

func TestHouseBuilding2RoofBesideWall(t *testing.T) {
	task, planner := setup(t, "house_building_2", func(c *envconfig.Config) {
		c.MaxSteps = 30
	})
	env := task.Base()
	walls := env.ObjectsOfShape(objects.Cube)
	roof := env.ObjectsOfShape(objects.Roof)[0]

	// The roof covers both free spots beside the wall in the corner
	for obj, pos := range map[*objects.Object]r3.Vec{
		walls[0]: {X: 0.36, Y: -0.14, Z: 0.015},
		walls[1]: {X: 0.6, Y: 0.1, Z: 0.015},
		roof:     {X: 0.42, Y: -0.08, Z: 0.015},
	} {
		require.NoError(t, obj.ResetPose(geometry.NewPose(pos,
			geometry.Identity())))
	}
	require.NoError(t, env.Wait(10))
	_, err := env.Observation()
	require.NoError(t, err)

	action, err := planner.NextAction()
	require.NoError(t, err)
	assert.Equal(t, float64(robots.Pick), action.AtVec(0))
	assert.InDelta(t, 0.36, action.AtVec(1), 1e-6, "corner wall moves")
	assert.InDelta(t, -0.14, action.AtVec(2), 1e-6, "corner wall moves")

	_, _, err = task.Step(action)
	require.NoError(t, err)
	action, err = planner.NextAction()
	require.NoError(t, err)
	assert.Equal(t, float64(robots.Place), action.AtVec(0))
	assert.InDelta(t, 0.54, action.AtVec(1), 1e-6)
	assert.InDelta(t, 0.1, action.AtVec(2), 1e-6)

	step := run(t, task, planner, 28)
	assert.Equal(t, ts.TerminalStateReached, step.EndType)
}
