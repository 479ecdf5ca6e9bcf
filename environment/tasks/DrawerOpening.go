package tasks

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/environment"
	"github.com/samuelfneumann/helpinghands/environment/manipulation"
	"github.com/samuelfneumann/helpinghands/equipment"
	"github.com/samuelfneumann/helpinghands/geometry"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// drawerDepth is how far behind the far workspace border the
	// drawer base may be placed, so that the handle lies in reach
	drawerDepth = 0.05

	drawerSpread = 0.1
	drawerMaxYaw = math.Pi / 6
)

// DrawerOpening places a closed drawer at the far side of the
// workspace. It is solved once the drawer is pulled open.
type DrawerOpening struct {
	*manipulation.Env
	drawer *equipment.Drawer
}

func newDrawerOpening(env *manipulation.Env) (Task, error) {
	drawer, err := equipment.NewDrawer(env.Engine, env.Config().ModelID)
	if err != nil {
		return nil, fmt.Errorf("newDrawerOpening: %v", err)
	}
	d := &DrawerOpening{Env: env, drawer: drawer}
	env.SetTermination(drawer.IsOpen)
	return d, nil
}

// Base implements the Task interface
func (d *DrawerOpening) Base() *manipulation.Env {
	return d.Env
}

// Drawer returns the drawer of the task
func (d *DrawerOpening) Drawer() *equipment.Drawer {
	return d.drawer
}

// Reset starts a new episode with the drawer closed at a random
// position. The drawer is reloaded after hard resets and moved
// otherwise.
func (d *DrawerOpening) Reset() (ts.TimeStep, error) {
	step, err := d.ResetWith(func() error {
		pos, rot := d.sample()
		if d.WasHardReset() {
			return d.drawer.Initialize(pos, rot)
		}
		return d.drawer.Reset(pos, rot)
	})
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	return step, nil
}

// sample returns a random base pose of the drawer
func (d *DrawerOpening) sample() (r3.Vec, geometry.Quaternion) {
	cfg := d.Config()
	_, cy, _ := cfg.WorkspaceCentre()
	xMax := cfg.Workspace[0].Max

	bounds := []r1.Interval{
		{Min: xMax - drawerDepth, Max: xMax + drawerDepth},
		{Min: cy - drawerSpread, Max: cy + drawerSpread},
		{Min: -drawerMaxYaw, Max: drawerMaxYaw},
	}
	v := environment.NewUniformStarter(bounds, d.Source()).Start()

	rot := geometry.Identity()
	if cfg.RandomOrientation {
		rot = geometry.FromEuler(0, 0, v.AtVec(2))
	}
	return r3.Vec{X: v.AtVec(0), Y: v.AtVec(1), Z: cfg.Workspace[2].Min}, rot
}
