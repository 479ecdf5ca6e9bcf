package tasks

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/environment/manipulation"
	"github.com/samuelfneumann/helpinghands/objects"
	ts "github.com/samuelfneumann/helpinghands/timestep"
)

// BlockAdjacent is solved once every cube lies on the ground in one
// connected row or cluster
type BlockAdjacent struct {
	*manipulation.Env
}

func newBlockAdjacent(env *manipulation.Env) (Task, error) {
	if env.Config().NumObjects < 2 {
		return nil, fmt.Errorf("newBlockAdjacent: need at least 2 objects, "+
			"have %d", env.Config().NumObjects)
	}
	b := &BlockAdjacent{env}
	env.SetTermination(b.checkTermination)
	return b, nil
}

// Base implements the Task interface
func (b *BlockAdjacent) Base() *manipulation.Env {
	return b.Env
}

// Reset starts a new episode with the cubes spread apart
func (b *BlockAdjacent) Reset() (ts.TimeStep, error) {
	step, err := b.ResetWith(func() error {
		_, err := b.GenerateShapes(objects.Cube, b.Config().NumObjects,
			manipulation.GenerateOptions{
				RandomOrientation: b.Config().RandomOrientation,
			})
		return err
	})
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	return step, nil
}

func (b *BlockAdjacent) checkTermination() (bool, error) {
	return b.CheckAdjacent(nil)
}
