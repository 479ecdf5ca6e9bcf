package planners

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/tasks"
	"github.com/samuelfneumann/helpinghands/equipment"
	"github.com/samuelfneumann/helpinghands/robots"
	"gonum.org/v1/gonum/mat"
)

// drawerTask is a task with a drawer to open
type drawerTask interface {
	tasks.Task
	Drawer() *equipment.Drawer
}

// DrawerOpening pulls the drawer handle along the drawer
type DrawerOpening struct {
	*Base
	drawer *equipment.Drawer
}

// NewDrawerOpening returns a new DrawerOpening planner. The task must
// have a drawer.
func NewDrawerOpening(task tasks.Task, config envconfig.Config) (Planner,
	error) {
	d, ok := task.(drawerTask)
	if !ok {
		return nil, fmt.Errorf("newDrawerOpening: task %T has no drawer", task)
	}
	return &DrawerOpening{Base: NewBase(task.Base(), config),
		drawer: d.Drawer()}, nil
}

// NextAction implements the Planner interface
func (p *DrawerOpening) NextAction() (*mat.VecDense, error) {
	pos, err := p.drawer.HandlePosition()
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}
	rot, err := p.drawer.HandleRotation()
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}

	x, y, r := p.addNoise(pos.X, pos.Y, rot.Yaw())
	return p.EncodeAction(robots.Pull, x, y, pos.Z, r), nil
}

// StepsLeft implements the Planner interface
func (p *DrawerOpening) StepsLeft() (int, error) {
	open, err := p.drawer.IsOpen()
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	if open {
		return 0, nil
	}
	return 1, nil
}
