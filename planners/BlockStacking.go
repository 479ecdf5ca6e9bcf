package planners

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/tasks"
	"gonum.org/v1/gonum/mat"
)

// BlockStacking builds a single stack by moving the lowest free object
// onto the highest one. It also stacks cups and bowls.
type BlockStacking struct {
	*BlockStructure
}

// NewBlockStacking returns a new BlockStacking planner
func NewBlockStacking(task tasks.Task, config envconfig.Config) (Planner,
	error) {
	return &BlockStacking{NewBlockStructure(task.Base(), config)}, nil
}

// NextAction implements the Planner interface
func (p *BlockStacking) NextAction() (*mat.VecDense, error) {
	var action *mat.VecDense
	var err error
	if p.env.IsHolding() {
		action, err = p.PlaceOnHighestObj(nil)
	} else {
		action, err = p.PickShortestObjOnTop(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}
	return action, nil
}

// StepsLeft implements the Planner interface
func (p *BlockStacking) StepsLeft() (int, error) {
	done, err := p.env.CheckTermination()
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	if done {
		return 0, nil
	}

	objs := p.env.Objects()
	height, err := p.TallestStack(objs)
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	return p.pickPlaceSteps(len(objs) - height), nil
}
