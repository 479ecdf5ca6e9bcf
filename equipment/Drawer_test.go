package equipment_test

import (
	"testing"

	"github.com/samuelfneumann/helpinghands/assets"
	"github.com/samuelfneumann/helpinghands/equipment"
	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/objects"
	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/samuelfneumann/helpinghands/simulator/kinematic"
	"github.com/samuelfneumann/helpinghands/urdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func newDrawer(t *testing.T) (*kinematic.World, *equipment.Drawer) {
	t.Helper()
	w := kinematic.New(assets.FS)
	_, err := w.LoadURDF(urdf.Path("plane.urdf"), simulator.LoadOptions{
		UseFixedBase: true,
	})
	require.NoError(t, err)

	d, err := equipment.NewDrawer(w, 1)
	require.NoError(t, err)
	require.NoError(t, d.Initialize(r3.Vec{X: 0.7}, geometry.Identity()))
	return w, d
}

func TestNewDrawerModel(t *testing.T) {
	_, err := equipment.NewDrawer(kinematic.New(assets.FS), 3)
	assert.Error(t, err)
}

func TestDrawerHandle(t *testing.T) {
	w, d := newDrawer(t)

	pos, err := d.HandlePosition()
	require.NoError(t, err)
	assert.True(t, geometry.PositionClose(r3.Vec{X: 0.555, Z: 0.075}, pos, 1e-9))

	closed, err := d.IsClosed()
	require.NoError(t, err)
	assert.True(t, closed)

	// Pull the drawer out along -x
	require.NoError(t, w.ResetJointState(d.ID(), 1, 0.1))
	open, err := d.IsOpen()
	require.NoError(t, err)
	assert.True(t, open)

	pos, err = d.HandlePosition()
	require.NoError(t, err)
	assert.InDelta(t, 0.455, pos.X, 1e-9)

	require.NoError(t, d.Reset(r3.Vec{X: 0.7}, geometry.Identity()))
	closed, err = d.IsClosed()
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestConstrainObjects(t *testing.T) {
	w, d := newDrawer(t)

	init, err := d.ObjInitPos()
	require.NoError(t, err)
	assert.True(t, geometry.PositionClose(r3.Vec{X: 0.7, Z: 0.04}, init, 1e-9))

	cube, err := objects.Generate(w, objects.Cube, geometry.NewPose(
		r3.Add(init, r3.Vec{Z: 0.02}), geometry.Identity()), 1, objects.Options{})
	require.NoError(t, err)
	require.NoError(t, d.ConstrainObjects([]*objects.Object{cube}))

	inside, err := d.IsObjInsideDrawer(cube)
	require.NoError(t, err)
	assert.True(t, inside)

	require.NoError(t, w.ResetJointState(d.ID(), 1, 0.1))
	require.NoError(t, w.StepSimulation())
	pos, err := cube.Position()
	require.NoError(t, err)
	assert.True(t, geometry.PositionClose(r3.Vec{X: 0.6, Z: 0.06}, pos, 1e-9))

	require.NoError(t, d.ReleaseObjectConstraints())
	require.NoError(t, d.Remove())
	require.NoError(t, d.Remove(), "second remove is a no-op")
}
