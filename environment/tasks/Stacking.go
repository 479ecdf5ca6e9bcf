package tasks

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/environment/manipulation"
	"github.com/samuelfneumann/helpinghands/objects"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	cupScale   = 0.6
	cupSpacing = 0.1

	// bowlDistance keeps bowls from overlapping at the largest scale
	bowlDistance = 0.15

	// brickPadding is the extra border padding that keeps a rotated
	// brick inside the workspace
	brickPadding = 0.05
)

// Stacking is solved once every object rests on another in a single
// stack
type Stacking struct {
	*manipulation.Env
	shape objects.Shape
	opts  manipulation.GenerateOptions
}

func newStacking(env *manipulation.Env, shape objects.Shape,
	opts manipulation.GenerateOptions) (*Stacking, error) {
	if env.Config().NumObjects < 2 {
		return nil, fmt.Errorf("newStacking: need at least 2 objects to "+
			"stack, have %d", env.Config().NumObjects)
	}
	s := &Stacking{Env: env, shape: shape, opts: opts}
	env.SetTermination(s.checkTermination)
	return s, nil
}

func newBlockStacking(env *manipulation.Env) (Task, error) {
	return newStacking(env, objects.Cube, manipulation.GenerateOptions{
		RandomOrientation: env.Config().RandomOrientation,
	})
}

func newBowlStacking(env *manipulation.Env) (Task, error) {
	return newStacking(env, objects.Bowl, manipulation.GenerateOptions{
		RandomOrientation: env.Config().RandomOrientation,
		MinDistance:       manipulation.Float64(bowlDistance),
	})
}

// Cup stacking always uses two cups placed side by side across the
// workspace centre
func newCupStacking(env *manipulation.Env) (Task, error) {
	cfg := env.Config()
	cx, cy, _ := cfg.WorkspaceCentre()
	floor := cfg.Workspace[2].Min

	s := &Stacking{Env: env, shape: objects.Cup,
		opts: manipulation.GenerateOptions{
			Scale: cupScale,
			Positions: []r3.Vec{
				{X: cx, Y: cy - cupSpacing, Z: floor},
				{X: cx, Y: cy + cupSpacing, Z: floor},
			},
			RandomOrientation: cfg.RandomOrientation,
		}}
	env.SetTermination(s.checkTermination)
	return s, nil
}

// Base implements the Task interface
func (s *Stacking) Base() *manipulation.Env {
	return s.Env
}

// Reset starts a new episode with the objects spread over the
// workspace
func (s *Stacking) Reset() (ts.TimeStep, error) {
	n := s.Config().NumObjects
	if s.opts.Positions != nil {
		n = len(s.opts.Positions)
	}
	step, err := s.ResetWith(func() error {
		_, err := s.GenerateShapes(s.shape, n, s.opts)
		return err
	})
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	return step, nil
}

func (s *Stacking) checkTermination() (bool, error) {
	return s.CheckStack(nil)
}

// BrickStacking spawns one brick and cubes, and is solved once every
// cube rests on the brick
type BrickStacking struct {
	*manipulation.Env
	brick *objects.Object
	cubes []*objects.Object
}

func newBrickStacking(env *manipulation.Env) (Task, error) {
	if env.Config().NumObjects < 2 {
		return nil, fmt.Errorf("newBrickStacking: need a brick and at "+
			"least 1 cube, have %d objects", env.Config().NumObjects)
	}
	b := &BrickStacking{Env: env}
	env.SetTermination(b.checkTermination)
	return b, nil
}

// Base implements the Task interface
func (b *BrickStacking) Base() *manipulation.Env {
	return b.Env
}

// Reset starts a new episode with the brick and cubes spread over the
// workspace
func (b *BrickStacking) Reset() (ts.TimeStep, error) {
	cfg := b.Config()
	step, err := b.ResetWith(func() error {
		bricks, err := b.GenerateShapes(objects.Brick, 1,
			manipulation.GenerateOptions{
				RandomOrientation: cfg.RandomOrientation,
				Padding:           manipulation.Float64(cfg.MinBoarderPadding + brickPadding),
			})
		if err != nil {
			return err
		}
		cubes, err := b.GenerateShapes(objects.Cube, cfg.NumObjects-1,
			manipulation.GenerateOptions{
				RandomOrientation: cfg.RandomOrientation,
			})
		if err != nil {
			return err
		}
		b.brick, b.cubes = bricks[0], cubes
		return nil
	})
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	return step, nil
}

func (b *BrickStacking) checkTermination() (bool, error) {
	for _, cube := range b.cubes {
		onTop, err := b.CheckOnTop(b.brick, cube)
		if err != nil {
			return false, err
		}
		if !onTop {
			return false, nil
		}
	}
	return true, nil
}
