package planners

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/tasks"
	"github.com/samuelfneumann/helpinghands/robots"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// randomStepsLeft is reported by Random, which never solves a task on
// purpose
const randomStepsLeft = 100

// Random picks when empty-handed and places otherwise, at uniformly
// random positions and rotations in the workspace
type Random struct {
	*Base
	x, y, r distuv.Uniform
}

// NewRandom returns a new Random planner
func NewRandom(task tasks.Task, config envconfig.Config) (Planner, error) {
	base := NewBase(task.Base(), config)
	ws := config.Workspace
	return &Random{
		Base: base,
		x:    distuv.Uniform{Min: ws[0].Min, Max: ws[0].Max, Src: base.src},
		y:    distuv.Uniform{Min: ws[1].Min, Max: ws[1].Max, Src: base.src},
		r:    distuv.Uniform{Min: 0, Max: base.rotationPeriod(), Src: base.src},
	}, nil
}

// NextAction implements the Planner interface
func (p *Random) NextAction() (*mat.VecDense, error) {
	primitive := robots.Pick
	if p.env.IsHolding() {
		primitive = robots.Place
	}
	x, y := p.x.Rand(), p.y.Rand()
	z, err := p.env.PrimitiveHeight(primitive, x, y)
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}
	return p.EncodeAction(primitive, x, y, z, p.r.Rand()), nil
}

// StepsLeft implements the Planner interface
func (p *Random) StepsLeft() (int, error) {
	return randomStepsLeft, nil
}
