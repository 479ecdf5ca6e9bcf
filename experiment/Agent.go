package experiment

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/planners"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"gonum.org/v1/gonum/mat"
)

// Agent acts in an environment during an experiment
type Agent interface {
	// ObserveFirst observes the first timestep of an episode
	ObserveFirst(t ts.TimeStep) error

	// SelectAction returns the action to take at timestep t
	SelectAction(t ts.TimeStep) (*mat.VecDense, error)

	// Observe observes the action taken and the timestep it led to
	Observe(action mat.Vector, next ts.TimeStep) error
}

// PlannerAgent acts with the expert actions of a planner. The planner
// reads the state of its environment directly, so the timesteps are
// not needed.
type PlannerAgent struct {
	planners.Planner
}

// NewPlannerAgent returns a new PlannerAgent acting with p
func NewPlannerAgent(p planners.Planner) *PlannerAgent {
	return &PlannerAgent{p}
}

// ObserveFirst implements the Agent interface
func (p *PlannerAgent) ObserveFirst(ts.TimeStep) error { return nil }

// Observe implements the Agent interface
func (p *PlannerAgent) Observe(mat.Vector, ts.TimeStep) error { return nil }

// SelectAction implements the Agent interface
func (p *PlannerAgent) SelectAction(ts.TimeStep) (*mat.VecDense, error) {
	action, err := p.NextAction()
	if err != nil {
		return nil, fmt.Errorf("selectAction: %v", err)
	}
	return action, nil
}
