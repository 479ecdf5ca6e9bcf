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

// BrickStacking lines the cubes up along the top of the brick
type BrickStacking struct {
	*BlockStructure
}

// NewBrickStacking returns a new BrickStacking planner
func NewBrickStacking(task tasks.Task, config envconfig.Config) (Planner,
	error) {
	return &BrickStacking{NewBlockStructure(task.Base(), config)}, nil
}

func (p *BrickStacking) brick() (*objects.Object, error) {
	bricks := p.env.ObjectsOfShape(objects.Brick)
	if len(bricks) != 1 {
		return nil, fmt.Errorf("have %d bricks, want 1", len(bricks))
	}
	return bricks[0], nil
}

// looseCubes returns the cubes not resting on the brick
func (p *BrickStacking) looseCubes(brick *objects.Object) ([]*objects.Object,
	error) {
	var loose []*objects.Object
	for _, cube := range p.env.ObjectsOfShape(objects.Cube) {
		onTop, err := p.env.CheckOnTop(brick, cube)
		if err != nil {
			return nil, err
		}
		if !onTop {
			loose = append(loose, cube)
		}
	}
	return loose, nil
}

// slot returns the free position along the top of the brick nearest
// its first end. The n cubes share the brick length evenly.
func (p *BrickStacking) slot(brick *objects.Object) (r3.Vec, float64, error) {
	pose, err := brick.Pose()
	if err != nil {
		return r3.Vec{}, 0, err
	}
	cubes := p.env.ObjectsOfShape(objects.Cube)
	n := len(cubes)
	spacing := brick.Length() / float64(n)
	yaw := pose.Orientation.Yaw()

	for i := 0; i < n; i++ {
		offset := (float64(i) - float64(n-1)/2) * spacing
		s := pose.Apply(r3.Vec{X: offset})
		taken := false
		for _, cube := range cubes {
			onTop, err := p.env.CheckOnTop(brick, cube)
			if err != nil {
				return r3.Vec{}, 0, err
			}
			pos, err := cube.Position()
			if err != nil {
				return r3.Vec{}, 0, err
			}
			if onTop && math.Hypot(pos.X-s.X, pos.Y-s.Y) < spacing/2 {
				taken = true
				break
			}
		}
		if !taken {
			return s, yaw, nil
		}
	}
	return r3.Vec{}, 0, fmt.Errorf("no free slot on %v", brick)
}

// NextAction implements the Planner interface
func (p *BrickStacking) NextAction() (*mat.VecDense, error) {
	brick, err := p.brick()
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}

	var action *mat.VecDense
	if p.env.IsHolding() {
		var s r3.Vec
		var yaw float64
		s, yaw, err = p.slot(brick)
		if err == nil {
			// Fingers close across the brick, clear of neighbouring cubes
			action, err = p.Place(s.X, s.Y, yaw)
		}
	} else {
		var loose []*objects.Object
		loose, err = p.looseCubes(brick)
		if err == nil && len(loose) == 0 {
			err = fmt.Errorf("every cube is on the brick")
		}
		if err == nil {
			action, err = p.PickObject(loose[0])
		}
	}
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}
	return action, nil
}

// StepsLeft implements the Planner interface
func (p *BrickStacking) StepsLeft() (int, error) {
	brick, err := p.brick()
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	loose, err := p.looseCubes(brick)
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	return p.pickPlaceSteps(len(loose)), nil
}
