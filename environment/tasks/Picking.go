package tasks

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/environment/manipulation"
	"github.com/samuelfneumann/helpinghands/objects"
	ts "github.com/samuelfneumann/helpinghands/timestep"
)

// Picking is solved once any object is held above the workspace
// floor. The block, random block, and household picking tasks differ
// only in the objects they spawn.
type Picking struct {
	*manipulation.Env
	shape          objects.Shape
	index          int
	randomRotation bool
}

func newPicking(env *manipulation.Env, shape objects.Shape, index int,
	randomRotation bool) *Picking {
	p := &Picking{Env: env, shape: shape, index: index,
		randomRotation: randomRotation}
	env.SetTermination(p.checkTermination)
	return p
}

func newBlockPicking(env *manipulation.Env) (Task, error) {
	return newPicking(env, objects.Cube, 0, env.Config().RandomOrientation), nil
}

func newRandomBlockPicking(env *manipulation.Env) (Task, error) {
	return newPicking(env, objects.RandomBlock, 0, true), nil
}

// Household objects are drawn uniformly from every model
func newRandomHouseholdPicking(env *manipulation.Env) (Task, error) {
	return newPicking(env, objects.RandomHousehold, -1, true), nil
}

// Base implements the Task interface
func (p *Picking) Base() *manipulation.Env {
	return p.Env
}

// Reset starts a new episode with the configured number of objects at
// random positions
func (p *Picking) Reset() (ts.TimeStep, error) {
	step, err := p.ResetWith(func() error {
		_, err := p.GenerateShapes(p.shape, p.Config().NumObjects,
			manipulation.GenerateOptions{
				RandomOrientation: p.randomRotation,
				Index:             p.index,
			})
		return err
	})
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	return step, nil
}

func (p *Picking) checkTermination() (bool, error) {
	for _, obj := range p.Objects() {
		lifted, err := p.IsObjectLifted(obj)
		if err != nil {
			return false, err
		}
		if lifted {
			return true, nil
		}
	}
	return false, nil
}
