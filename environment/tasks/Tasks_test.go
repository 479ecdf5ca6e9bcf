package tasks_test

import (
	"errors"
	"testing"

	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/tasks"
	"github.com/samuelfneumann/helpinghands/geometry"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func config(modify func(*envconfig.Config)) envconfig.Config {
	c := envconfig.Default()
	c.ObsSize = 64
	c.Seed = 7
	if modify != nil {
		modify(&c)
	}
	return c
}

func TestNames(t *testing.T) {
	names := tasks.Names()
	assert.Len(t, names, 13)
	assert.Contains(t, names, "house_building_2_deconstruct")
	assert.Contains(t, names, "drawer_opening")
}

func TestCreateUnknown(t *testing.T) {
	_, _, err := tasks.Create("pyramid_stacking", config(nil))
	assert.True(t, errors.Is(err, tasks.ErrUnknownTask))

	_, _, err = tasks.Create("block_stacking", config(func(c *envconfig.Config) {
		c.NumObjects = 1
	}))
	assert.Error(t, err, "a single block cannot be stacked")
}

// Every task starts unsolved with its objects inside the workspace
func TestCreateAll(t *testing.T) {
	for _, name := range tasks.Names() {
		task, step, err := tasks.Create(name, config(nil))
		require.NoError(t, err, name)
		assert.True(t, step.First(), name)
		assert.Equal(t, ts.Unended, step.EndType, name)

		env := task.Base()
		solved, err := env.CheckTermination()
		require.NoError(t, err, name)
		assert.False(t, solved, name)

		ws := env.Config().Workspace
		for _, obj := range env.Objects() {
			pos, err := obj.Position()
			require.NoError(t, err, name)
			assert.True(t, ws[0].Min <= pos.X && pos.X <= ws[0].Max,
				"%v: %v at %v", name, obj, pos)
			assert.True(t, ws[1].Min <= pos.Y && pos.Y <= ws[1].Max,
				"%v: %v at %v", name, obj, pos)
		}

		valid, err := env.IsSimValid()
		require.NoError(t, err, name)
		assert.True(t, valid, name)
		require.NoError(t, task.Close())
	}
}

func TestCupStacking(t *testing.T) {
	task, _, err := tasks.Create("cup_stacking", config(nil))
	require.NoError(t, err)

	cups := task.Base().Objects()
	require.Len(t, cups, 2)
	for i, y := range []float64{-0.1, 0.1} {
		pos, err := cups[i].Position()
		require.NoError(t, err)
		assert.True(t, geometry.PositionClose(r3.Vec{X: 0.5, Y: y, Z: 0.024},
			pos, 1e-9), "cup at %v", pos)
	}
}

func TestBlockPickingSolved(t *testing.T) {
	task, _, err := tasks.Create("block_picking", config(
		func(c *envconfig.Config) { c.NumObjects = 1 }))
	require.NoError(t, err)

	pos, err := task.Base().Objects()[0].Position()
	require.NoError(t, err)

	step, done, err := task.Step(mat.NewVecDense(5,
		[]float64{0, pos.X, pos.Y, 0.02, 0}))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, ts.TerminalStateReached, step.EndType)
	assert.Equal(t, 1.0, step.Reward)
}

func TestHouseBuilding2Deconstruct(t *testing.T) {
	task, _, err := tasks.Create("house_building_2_deconstruct", config(nil))
	require.NoError(t, err)
	d, ok := task.(*tasks.Deconstruct)
	require.True(t, ok)

	env := task.Base()
	structure := d.Structure()
	require.Len(t, structure, 3)
	assert.Len(t, env.Objects(), 3, "the configured object count is ignored")

	roof := structure[2]
	z, err := roof.ZPosition()
	require.NoError(t, err)
	assert.InDelta(t, 0.045, z, 1e-9)
	for _, wall := range structure[:2] {
		onTop, err := env.CheckOnTop(wall, roof)
		require.NoError(t, err)
		assert.True(t, onTop)
	}

	// Taking the house apart solves the task
	for i, obj := range structure {
		pos := r3.Vec{X: 0.35 + 0.15*float64(i), Y: -0.15 + 0.15*float64(i),
			Z: 0.015}
		require.NoError(t, obj.ResetPose(geometry.NewPose(pos,
			geometry.Identity())))
	}
	require.NoError(t, env.Wait(1))
	solved, err := env.CheckTermination()
	require.NoError(t, err)
	assert.True(t, solved)
}

func TestHouseBuilding1Deconstruct(t *testing.T) {
	task, _, err := tasks.Create("house_building_1_deconstruct",
		config(func(c *envconfig.Config) { c.NumObjects = 3 }))
	require.NoError(t, err)

	structure := task.(*tasks.Deconstruct).Structure()
	require.Len(t, structure, 3)
	for i, want := range []float64{0.015, 0.045, 0.075} {
		z, err := structure[i].ZPosition()
		require.NoError(t, err)
		assert.InDelta(t, want, z, 1e-9)
	}

	onTop, err := task.Base().IsObjOnTop(structure[2])
	require.NoError(t, err)
	assert.True(t, onTop)
}

func TestDrawerOpening(t *testing.T) {
	task, _, err := tasks.Create("drawer_opening", config(
		func(c *envconfig.Config) { c.HardResetFreq = 2 }))
	require.NoError(t, err)
	d, ok := task.(*tasks.DrawerOpening)
	require.True(t, ok)
	env := task.Base()

	handle, err := d.Drawer().HandlePosition()
	require.NoError(t, err)
	assert.True(t, handle.X > 0.3 && handle.X < 0.7, "handle at %v", handle)

	require.NoError(t, env.Engine.ResetJointState(d.Drawer().ID(), 1, 0.1))
	solved, err := env.CheckTermination()
	require.NoError(t, err)
	assert.True(t, solved)

	// The second episode moves the loaded drawer and closes it
	_, err = task.Reset()
	require.NoError(t, err)
	assert.False(t, env.WasHardReset())
	solved, err = env.CheckTermination()
	require.NoError(t, err)
	assert.False(t, solved)
}
