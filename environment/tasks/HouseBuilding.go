package tasks

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/environment/manipulation"
	"github.com/samuelfneumann/helpinghands/objects"
	ts "github.com/samuelfneumann/helpinghands/timestep"
)

// HouseBuilding1 spawns cubes and a triangle. It is solved once all
// objects form one stack with the triangle on top.
type HouseBuilding1 struct {
	*manipulation.Env
	triangle *objects.Object
}

func newHouseBuilding1(env *manipulation.Env) (Task, error) {
	if env.Config().NumObjects < 2 {
		return nil, fmt.Errorf("newHouseBuilding1: need a triangle and at "+
			"least 1 cube, have %d objects", env.Config().NumObjects)
	}
	h := &HouseBuilding1{Env: env}
	env.SetTermination(h.checkTermination)
	return h, nil
}

// Base implements the Task interface
func (h *HouseBuilding1) Base() *manipulation.Env {
	return h.Env
}

// Reset starts a new episode with the cubes and the triangle spread
// over the workspace
func (h *HouseBuilding1) Reset() (ts.TimeStep, error) {
	cfg := h.Config()
	opts := manipulation.GenerateOptions{
		RandomOrientation: cfg.RandomOrientation,
	}
	step, err := h.ResetWith(func() error {
		if _, err := h.GenerateShapes(objects.Cube, cfg.NumObjects-1,
			opts); err != nil {
			return err
		}
		triangles, err := h.GenerateShapes(objects.Triangle, 1, opts)
		if err != nil {
			return err
		}
		h.triangle = triangles[0]
		return nil
	})
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	return step, nil
}

func (h *HouseBuilding1) checkTermination() (bool, error) {
	stacked, err := h.CheckStack(nil)
	if err != nil || !stacked {
		return false, err
	}
	return h.IsObjOnTop(h.triangle)
}

// HouseBuilding2 spawns two cubes and a roof. It is solved once the
// roof rests on both cubes and lies between them.
type HouseBuilding2 struct {
	*manipulation.Env
	roof  *objects.Object
	walls []*objects.Object
}

// The number of objects is fixed by the structure; the configured
// number is ignored.
func newHouseBuilding2(env *manipulation.Env) (Task, error) {
	h := &HouseBuilding2{Env: env}
	env.SetTermination(h.checkTermination)
	return h, nil
}

// Base implements the Task interface
func (h *HouseBuilding2) Base() *manipulation.Env {
	return h.Env
}

// Reset starts a new episode with the roof and two cubes spread over
// the workspace
func (h *HouseBuilding2) Reset() (ts.TimeStep, error) {
	cfg := h.Config()
	step, err := h.ResetWith(func() error {
		roofs, err := h.GenerateShapes(objects.Roof, 1,
			manipulation.GenerateOptions{
				RandomOrientation: cfg.RandomOrientation,
				Padding:           manipulation.Float64(cfg.MinBoarderPadding + brickPadding),
			})
		if err != nil {
			return err
		}
		walls, err := h.GenerateShapes(objects.Cube, 2,
			manipulation.GenerateOptions{
				RandomOrientation: cfg.RandomOrientation,
			})
		if err != nil {
			return err
		}
		h.roof, h.walls = roofs[0], walls
		return nil
	})
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	return step, nil
}

func (h *HouseBuilding2) checkTermination() (bool, error) {
	return roofOnWalls(h.Env, h.roof, h.walls)
}

// roofOnWalls returns whether roof rests on both walls, in between
// them
func roofOnWalls(env *manipulation.Env, roof *objects.Object,
	walls []*objects.Object) (bool, error) {
	for _, wall := range walls {
		onTop, err := env.CheckOnTop(wall, roof)
		if err != nil || !onTop {
			return false, err
		}
	}
	return env.CheckInBetween(roof, walls[0], walls[1])
}
