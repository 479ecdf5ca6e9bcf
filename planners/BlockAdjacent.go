package planners

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/tasks"
	"github.com/samuelfneumann/helpinghands/objects"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// adjacentSpacing scales the object size into the distance between
	// neighbouring objects of the row
	adjacentSpacing = 1.3

	// slotTolerance is how close an object must be to a slot to fill it
	slotTolerance = 0.01
)

// BlockAdjacent lines the objects up in a row along y next to the first
// object. Objects are placed with the fingers closing along x so that
// they open clear of their neighbours.
type BlockAdjacent struct {
	*BlockStructure
}

// NewBlockAdjacent returns a new BlockAdjacent planner
func NewBlockAdjacent(task tasks.Task, config envconfig.Config) (Planner,
	error) {
	return &BlockAdjacent{NewBlockStructure(task.Base(), config)}, nil
}

// slots returns the row positions next to the anchor object that lie
// inside the workspace, nearest first
func (p *BlockAdjacent) slots(anchor *objects.Object, n int) ([]r3.Vec,
	error) {
	centre, err := anchor.Position()
	if err != nil {
		return nil, err
	}
	ws := p.config.Workspace
	spacing := adjacentSpacing * anchor.Size()

	var slots []r3.Vec
	for i := 1; len(slots) < n-1 && i < 2*n; i++ {
		for _, sign := range []float64{1, -1} {
			y := centre.Y + sign*float64(i)*spacing
			if y < ws[1].Min || y > ws[1].Max || len(slots) == n-1 {
				continue
			}
			slots = append(slots, r3.Vec{X: centre.X, Y: y})
		}
	}
	if len(slots) < n-1 {
		return nil, fmt.Errorf("only %d of %d slots fit beside %v",
			len(slots), n-1, anchor)
	}
	return slots, nil
}

// assign returns the objects of objs other than the anchor that do not
// fill a slot, and the slots no object fills
func (p *BlockAdjacent) assign(objs []*objects.Object,
	slots []r3.Vec) ([]*objects.Object, []r3.Vec, error) {
	filled := make([]bool, len(slots))
	var loose []*objects.Object
	for _, obj := range objs[1:] {
		if p.env.IsObjectHeld(obj) {
			loose = append(loose, obj)
			continue
		}
		pos, err := obj.Position()
		if err != nil {
			return nil, nil, err
		}
		in := false
		for i, s := range slots {
			if !filled[i] && math.Hypot(pos.X-s.X, pos.Y-s.Y) < slotTolerance {
				filled[i], in = true, true
				break
			}
		}
		if !in {
			loose = append(loose, obj)
		}
	}

	var free []r3.Vec
	for i, s := range slots {
		if !filled[i] {
			free = append(free, s)
		}
	}
	return loose, free, nil
}

func (p *BlockAdjacent) plan() ([]*objects.Object, []r3.Vec, error) {
	objs := p.env.Objects()
	if len(objs) == 0 {
		return nil, nil, fmt.Errorf("no objects")
	}
	slots, err := p.slots(objs[0], len(objs))
	if err != nil {
		return nil, nil, err
	}
	return p.assign(objs, slots)
}

// NextAction implements the Planner interface
func (p *BlockAdjacent) NextAction() (*mat.VecDense, error) {
	loose, free, err := p.plan()
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}

	var action *mat.VecDense
	switch {
	case p.env.IsHolding() && len(free) > 0:
		action, err = p.Place(free[0].X, free[0].Y, math.Pi/2)
	case p.env.IsHolding():
		action, err = p.PlaceOnGround(p.config.MinBoarderPadding,
			p.config.MinObjectDistance)
	case len(loose) > 0:
		action, err = p.PickObject(loose[0])
	default:
		action, err = p.PickObject(p.env.Objects()[0])
	}
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}
	return action, nil
}

// StepsLeft implements the Planner interface
func (p *BlockAdjacent) StepsLeft() (int, error) {
	done, err := p.env.CheckTermination()
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	if done {
		return 0, nil
	}
	loose, _, err := p.plan()
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	return p.pickPlaceSteps(len(loose)), nil
}
