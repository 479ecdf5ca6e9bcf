package planners

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/tasks"
	"gonum.org/v1/gonum/mat"
)

// Deconstruct takes a structure apart from the top, setting every
// object down apart from the others
type Deconstruct struct {
	*BlockStructure
}

// NewDeconstruct returns a new Deconstruct planner
func NewDeconstruct(task tasks.Task, config envconfig.Config) (Planner,
	error) {
	return &Deconstruct{NewBlockStructure(task.Base(), config)}, nil
}

// NextAction implements the Planner interface
func (p *Deconstruct) NextAction() (*mat.VecDense, error) {
	var action *mat.VecDense
	var err error
	if p.env.IsHolding() {
		action, err = p.PlaceOnGround(p.config.MinBoarderPadding,
			p.config.MinObjectDistance)
	} else {
		action, err = p.PickTallestObjOnTop(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}
	return action, nil
}

// StepsLeft implements the Planner interface
func (p *Deconstruct) StepsLeft() (int, error) {
	done, err := p.env.CheckTermination()
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	if done {
		return 0, nil
	}

	moves := 0
	for _, obj := range p.env.Objects() {
		ground, err := p.env.IsObjOnGround(obj)
		if err != nil {
			return 0, fmt.Errorf("stepsLeft: %v", err)
		}
		if !ground {
			moves++
		}
	}
	return p.pickPlaceSteps(moves), nil
}
