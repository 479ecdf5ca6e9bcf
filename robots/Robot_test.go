package robots_test

import (
	"errors"
	"testing"

	"github.com/samuelfneumann/helpinghands/assets"
	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/objects"
	"github.com/samuelfneumann/helpinghands/robots"
	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/samuelfneumann/helpinghands/simulator/kinematic"
	"github.com/samuelfneumann/helpinghands/urdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func setup(t *testing.T, name string) (*kinematic.World, *robots.Robot) {
	t.Helper()
	w := kinematic.New(assets.FS)
	_, err := w.LoadURDF(urdf.Path("plane.urdf"), simulator.LoadOptions{
		UseFixedBase: true,
	})
	require.NoError(t, err)

	r, err := robots.New(w, name)
	require.NoError(t, err)
	require.NoError(t, r.Initialize())
	return w, r
}

func cubeAt(t *testing.T, w *kinematic.World, pos r3.Vec) *objects.Object {
	t.Helper()
	obj, err := objects.Generate(w, objects.Cube,
		geometry.NewPose(pos, geometry.Identity()), 1, objects.Options{})
	require.NoError(t, err)
	return obj
}

func TestNew(t *testing.T) {
	_, err := robots.New(kinematic.New(assets.FS), "baxter")
	assert.True(t, errors.Is(err, robots.ErrUnknownRobot))
	assert.Equal(t, []string{"kuka", "panda", "ur5"}, robots.Names())
}

func TestInitializeHome(t *testing.T) {
	for _, name := range robots.Names() {
		_, r := setup(t, name)

		q, err := r.JointPositions()
		require.NoError(t, err)
		assert.Equal(t, r.HomeJoints(), q, name)

		fingers, err := r.GripperJointPosition()
		require.NoError(t, err)
		assert.Len(t, fingers, 2)
		assert.Greater(t, fingers[0], 0.04, name)

		end, err := r.EndToHoldingObj()
		require.NoError(t, err)
		assert.True(t, mat.Equal(mat.NewDense(4, 4, nil), end))
	}
}

func TestPickAndPlace(t *testing.T) {
	for _, dynamic := range []bool{false, true} {
		w, r := setup(t, "kuka")
		cube := cubeAt(t, w, r3.Vec{X: 0.5, Z: 0.025})

		err := r.Pick(r3.Vec{X: 0.5, Z: 0.025}, geometry.Identity(), 0.1,
			robots.PickOptions{
				Dynamic:       dynamic,
				Objects:       []*objects.Object{cube},
				SimulateGrasp: true,
			})
		require.NoError(t, err)
		require.Equal(t, cube, r.HoldingObj, "dynamic %v", dynamic)
		assert.True(t, r.GripperClosed)

		z, err := cube.ZPosition()
		require.NoError(t, err)
		assert.Greater(t, z, 0.2, "cube lifted home")

		err = r.Place(r3.Vec{X: 0.6, Y: 0.1, Z: 0.04}, geometry.Identity(), 0.1,
			robots.PlaceOptions{Dynamic: dynamic, SimulateGrasp: true})
		require.NoError(t, err)
		assert.Nil(t, r.HoldingObj)

		pos, err := cube.Position()
		require.NoError(t, err)
		assert.True(t, geometry.PositionClose(r3.Vec{X: 0.6, Y: 0.1, Z: 0.025},
			pos, 2e-3), "cube at %v", pos)
	}
}

func TestPickNothing(t *testing.T) {
	w, r := setup(t, "kuka")
	cube := cubeAt(t, w, r3.Vec{X: 0.5, Z: 0.025})

	err := r.Pick(r3.Vec{X: 0.5, Y: 0.15, Z: 0.025}, geometry.Identity(), 0.1,
		robots.PickOptions{Objects: []*objects.Object{cube}, SimulateGrasp: true})
	require.NoError(t, err)
	assert.Nil(t, r.HoldingObj)

	fingers, err := r.GripperJointPosition()
	require.NoError(t, err)
	assert.Greater(t, fingers[0], 0.04, "gripper reopened")
}

func TestSaveRestoreState(t *testing.T) {
	w, r := setup(t, "kuka")
	cube := cubeAt(t, w, r3.Vec{X: 0.5, Z: 0.025})

	r.SaveState()
	r.HoldingObj = cube
	r.GripperClosed = true
	require.NoError(t, r.RestoreState())
	assert.Nil(t, r.HoldingObj)
	assert.False(t, r.GripperClosed)
}

func TestMoveToJ(t *testing.T) {
	_, r := setup(t, "ur5")

	target := []float64{0.5, 0.1, 0.2, 0.3, 0}
	require.NoError(t, r.MoveToJ(target, true))
	q, err := r.JointPositions()
	require.NoError(t, err)
	for i := range target {
		assert.InDelta(t, target[i], q[i], 1e-2)
	}

	require.Error(t, r.MoveToJ([]float64{1}, false))
}

func TestPushPullLeaveGripperOpen(t *testing.T) {
	_, r := setup(t, "kuka")
	pos := r3.Vec{X: 0.5, Z: 0.1}

	require.NoError(t, r.Push(pos, geometry.Identity(), 0.1, false))
	assert.False(t, r.GripperClosed, "push")
	require.NoError(t, r.Pull(pos, geometry.Identity(), 0.1, false))
	assert.False(t, r.GripperClosed, "pull")
	require.NoError(t, r.RoundPull(pos, geometry.Identity(), 0.1, 0.05,
		true, false))

	fingers, err := r.GripperJointPosition()
	require.NoError(t, err)
	assert.Greater(t, fingers[0], 0.04)
	assert.Nil(t, r.HoldingObj)

	q, err := r.JointPositions()
	require.NoError(t, err)
	for i, home := range r.HomeJoints() {
		assert.InDelta(t, home, q[i], 1e-2)
	}
}
