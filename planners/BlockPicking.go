package planners

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/tasks"
	"gonum.org/v1/gonum/mat"
)

// BlockPicking picks the highest object with nothing on it
type BlockPicking struct {
	*BlockStructure
}

// NewBlockPicking returns a new BlockPicking planner
func NewBlockPicking(task tasks.Task, config envconfig.Config) (Planner,
	error) {
	return &BlockPicking{NewBlockStructure(task.Base(), config)}, nil
}

// NextAction implements the Planner interface
func (p *BlockPicking) NextAction() (*mat.VecDense, error) {
	action, err := p.PickTallestObjOnTop(nil)
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}
	return action, nil
}

// StepsLeft implements the Planner interface
func (p *BlockPicking) StepsLeft() (int, error) {
	done, err := p.env.CheckTermination()
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	if done {
		return 0, nil
	}
	return 1, nil
}
