package kinematic_test

import (
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/helpinghands/assets"
	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/samuelfneumann/helpinghands/simulator/kinematic"
	"github.com/samuelfneumann/helpinghands/urdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	eeLink      = 5
	fingerLeft  = 6
	fingerRight = 7
)

func newWorld(t *testing.T) (*kinematic.World, simulator.BodyID) {
	t.Helper()
	w := kinematic.New(assets.FS)
	plane, err := w.LoadURDF(urdf.Path("plane.urdf"), simulator.LoadOptions{
		UseFixedBase: true,
	})
	require.NoError(t, err)
	return w, plane
}

func loadCube(t *testing.T, w *kinematic.World, pos r3.Vec) simulator.BodyID {
	t.Helper()
	id, err := w.LoadURDF(urdf.Path("cube.urdf"), simulator.NewLoadOptions(
		geometry.NewPose(pos, geometry.Identity()), 1))
	require.NoError(t, err)
	return id
}

func loadRobot(t *testing.T, w *kinematic.World) simulator.BodyID {
	t.Helper()
	id, err := w.LoadURDF(urdf.Path("robots/kuka.urdf"), simulator.LoadOptions{
		UseFixedBase: true,
	})
	require.NoError(t, err)
	return id
}

func step(t *testing.T, w *kinematic.World, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, w.StepSimulation())
	}
}

func TestUnknownBody(t *testing.T) {
	w, _ := newWorld(t)
	_, err := w.BasePose(42)
	assert.True(t, errors.Is(err, simulator.ErrUnknownBody))

	_, err = w.JointState(0, 3)
	assert.True(t, errors.Is(err, simulator.ErrUnknownJoint))
}

func TestSettle(t *testing.T) {
	w, _ := newWorld(t)
	bottom := loadCube(t, w, r3.Vec{X: 0.5, Z: 0.3})
	top := loadCube(t, w, r3.Vec{X: 0.51, Z: 0.6})
	aside := loadCube(t, w, r3.Vec{X: 0.7, Z: 0.2})

	step(t, w, 1)

	for id, want := range map[simulator.BodyID]float64{
		bottom: 0.025,
		top:    0.075,
		aside:  0.025,
	} {
		pose, err := w.BasePose(id)
		require.NoError(t, err)
		assert.InDelta(t, want, pose.Position.Z, 1e-9, "body %v", id)
	}

	contacts, err := w.ContactPoints(bottom, top)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	contacts, err = w.ContactPoints(aside, simulator.AnyBody)
	require.NoError(t, err)
	assert.Len(t, contacts, 1, "only the plane touches the lone cube")
}

func TestCalculateIK(t *testing.T) {
	w, _ := newWorld(t)
	robot := loadRobot(t, w)

	pos := r3.Vec{X: 0.5, Y: 0.1, Z: 0.2}
	orn := geometry.FromEuler(0, 0, 0.3)
	q, err := w.CalculateIK(robot, eeLink, pos, orn)
	require.NoError(t, err)
	require.Len(t, q, 7)

	want := []float64{0.5, 0.1, 0.2, 0.3, 0}
	for i, qi := range want {
		assert.InDelta(t, qi, q[i], 1e-9, "joint %v", i)
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, w.ResetJointState(robot, i, q[i]))
	}
	ls, err := w.LinkState(robot, eeLink)
	require.NoError(t, err)
	assert.True(t, geometry.PositionClose(pos, ls.WorldPosition, 1e-9))
	assert.True(t, geometry.RotationClose(orn, ls.WorldOrientation, 1e-9))
}

func TestCalculateIKSideways(t *testing.T) {
	w, _ := newWorld(t)
	robot := loadRobot(t, w)

	orn := geometry.FromEuler(0, -math.Pi/2, 0)
	q, err := w.CalculateIK(robot, eeLink, r3.Vec{X: 0.4, Z: 0.1}, orn)
	require.NoError(t, err)
	assert.InDelta(t, 0, q[3], 1e-9)
	assert.InDelta(t, -math.Pi/2, q[4], 1e-9)
}

func TestGraspAndCarry(t *testing.T) {
	w, _ := newWorld(t)
	robot := loadRobot(t, w)
	cube := loadCube(t, w, r3.Vec{X: 0.5, Z: 0.025})

	for j, q := range map[int]float64{0: 0.5, 2: 0.2, fingerLeft: 0.05,
		fingerRight: 0.05} {
		require.NoError(t, w.ResetJointState(robot, j, q))
	}

	// Lower onto the cube; the palm stops on its top face
	require.NoError(t, w.SetJointTargets(robot, []int{2}, []float64{0.0}, 0.02))
	step(t, w, 200)
	ee, err := w.LinkState(robot, eeLink)
	require.NoError(t, err)
	assert.InDelta(t, 0.035, ee.WorldPosition.Z, 5e-3)

	pose, err := w.BasePose(cube)
	require.NoError(t, err)
	assert.InDelta(t, 0.025, pose.Position.Z, 1e-9, "cube pushed into floor")

	// Fingers stop on the cube's sides
	require.NoError(t, w.SetJointTargets(robot, []int{fingerLeft, fingerRight},
		[]float64{0, 0}, 0.02))
	step(t, w, 200)
	for _, j := range []int{fingerLeft, fingerRight} {
		js, err := w.JointState(robot, j)
		require.NoError(t, err)
		assert.InDelta(t, 0.03, js.Position, 1e-3)
	}

	// Lifting carries the cube
	require.NoError(t, w.SetJointTargets(robot, []int{2}, []float64{0.2}, 0.02))
	step(t, w, 100)
	pose, err = w.BasePose(cube)
	require.NoError(t, err)
	assert.Greater(t, pose.Position.Z, 0.15)

	// Releasing drops it back onto the floor
	require.NoError(t, w.SetJointTargets(robot, []int{fingerLeft, fingerRight},
		[]float64{0.05, 0.05}, 0.02))
	step(t, w, 100)
	pose, err = w.BasePose(cube)
	require.NoError(t, err)
	assert.InDelta(t, 0.025, pose.Position.Z, 1e-9)
}

func TestConstraint(t *testing.T) {
	w, _ := newWorld(t)
	robot := loadRobot(t, w)
	cube := loadCube(t, w, r3.Vec{X: 0.5, Z: 0.025})

	_, err := w.CreateConstraint(simulator.Constraint{
		Parent:      robot,
		ParentLink:  eeLink,
		Child:       cube,
		ChildLink:   simulator.BaseLink,
		ParentFrame: geometry.NewPose(r3.Vec{Z: -0.1}, geometry.Identity()),
	})
	require.NoError(t, err)

	require.NoError(t, w.ResetJointState(robot, 0, 0.4))
	require.NoError(t, w.ResetJointState(robot, 2, 0.5))
	step(t, w, 1)

	pose, err := w.BasePose(cube)
	require.NoError(t, err)
	assert.True(t, geometry.PositionClose(r3.Vec{X: 0.4, Z: 0.4},
		pose.Position, 1e-9))

	require.NoError(t, w.RemoveBody(robot))
	step(t, w, 1)
	pose, err = w.BasePose(cube)
	require.NoError(t, err)
	assert.InDelta(t, 0.025, pose.Position.Z, 1e-9)
}

func TestCameraImage(t *testing.T) {
	w, plane := newWorld(t)
	cube := loadCube(t, w, r3.Vec{Z: 0.025})

	near, far := 0.1, 10.0
	view := simulator.ComputeViewMatrix(r3.Vec{Z: 10}, r3.Vec{}, r3.Vec{X: -1})
	proj := simulator.ComputeProjectionMatrixFOV(2.3, 1, near, far)

	const size = 9
	img, err := w.CameraImage(size, size, view, proj)
	require.NoError(t, err)
	require.Len(t, img.Depth, size*size)

	centre := (size/2)*size + size/2
	assert.Equal(t, int(cube), img.Segmentation[centre])
	assert.InDelta(t, 9.95, simulator.LinearDepth(img.Depth[centre], near, far),
		1e-6)

	assert.Equal(t, int(plane), img.Segmentation[0])
	assert.InDelta(t, 10, simulator.LinearDepth(img.Depth[0], near, far), 1e-6)
}

func TestContactAlignedEdges(t *testing.T) {
	for _, yaw := range []float64{0, 0.7, math.Pi / 2} {
		w, _ := newWorld(t)
		rot := geometry.FromEuler(0, 0, yaw)
		centre := r3.Vec{X: 0.5, Y: 0.0545, Z: 0.015}
		brick, err := w.LoadURDF(urdf.Path("brick.urdf"),
			simulator.NewLoadOptions(geometry.NewPose(centre, rot), 0.6))
		require.NoError(t, err)
		cube, err := w.LoadURDF(urdf.Path("cube.urdf"),
			simulator.NewLoadOptions(geometry.NewPose(r3.Vec{X: 0.3}, rot), 0.6))
		require.NoError(t, err)

		// The cube is as wide as the brick, so their long edges line up
		for i := -30; i <= 30; i++ {
			along := float64(i) * 0.001
			pos := r3.Vec{
				X: centre.X + along*math.Cos(yaw),
				Y: centre.Y + along*math.Sin(yaw),
				Z: 0.045,
			}
			require.NoError(t, w.ResetBasePose(cube, geometry.NewPose(pos, rot)))
			contacts, err := w.ContactPoints(brick, cube)
			require.NoError(t, err)
			assert.Len(t, contacts, 1, "yaw %v offset %v", yaw, along)
		}

		// Beside the brick with a gap
		pos := r3.Vec{
			X: centre.X - 0.035*math.Sin(yaw),
			Y: centre.Y + 0.035*math.Cos(yaw),
			Z: 0.015,
		}
		require.NoError(t, w.ResetBasePose(cube, geometry.NewPose(pos, rot)))
		contacts, err := w.ContactPoints(brick, cube)
		require.NoError(t, err)
		assert.Empty(t, contacts, "yaw %v", yaw)
	}
}
