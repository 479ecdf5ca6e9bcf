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

// HouseBuilding1 stacks the cubes and then puts the triangle on top.
// A triangle in the way is first moved to the ground.
type HouseBuilding1 struct {
	*BlockStructure
}

// NewHouseBuilding1 returns a new HouseBuilding1 planner
func NewHouseBuilding1(task tasks.Task, config envconfig.Config) (Planner,
	error) {
	return &HouseBuilding1{NewBlockStructure(task.Base(), config)}, nil
}

func (p *HouseBuilding1) parts() ([]*objects.Object, *objects.Object, error) {
	triangles := p.env.ObjectsOfShape(objects.Triangle)
	if len(triangles) != 1 {
		return nil, nil, fmt.Errorf("have %d triangles, want 1",
			len(triangles))
	}
	return p.env.ObjectsOfShape(objects.Cube), triangles[0], nil
}

// cubesStacked returns whether the cubes form a single stack
func (p *HouseBuilding1) cubesStacked(cubes []*objects.Object) (bool, error) {
	h, err := p.TallestStack(cubes)
	return h == len(cubes), err
}

// NextAction implements the Planner interface
func (p *HouseBuilding1) NextAction() (*mat.VecDense, error) {
	cubes, triangle, err := p.parts()
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}
	stacked, err := p.cubesStacked(cubes)
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}
	triangleGround, err := p.env.IsObjOnGround(triangle)
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}

	var action *mat.VecDense
	switch {
	case p.holdingShape(objects.Triangle) && stacked:
		action, err = p.PlaceOnHighestObj(cubes)
	case p.holdingShape(objects.Triangle):
		action, err = p.PlaceOnGround(p.config.MinBoarderPadding,
			p.config.MinObjectDistance)
	case p.env.IsHolding():
		action, err = p.PlaceOnHighestObj(cubes)
	case !stacked && !triangleGround:
		action, err = p.PickObject(triangle)
	case !stacked:
		action, err = p.PickShortestObjOnTop(cubes)
	default:
		action, err = p.PickObject(triangle)
	}
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}
	return action, nil
}

// StepsLeft implements the Planner interface
func (p *HouseBuilding1) StepsLeft() (int, error) {
	done, err := p.env.CheckTermination()
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	if done {
		return 0, nil
	}

	cubes, triangle, err := p.parts()
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	h, err := p.TallestStack(cubes)
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	moves := len(cubes) - h + 1

	ground, err := p.env.IsObjOnGround(triangle)
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	if !ground && h < len(cubes) {
		moves++
	}
	return p.pickPlaceSteps(moves), nil
}

// wallGap is the tolerance on the distance between the walls beyond
// the largest distance the roof spans
const wallGap = 0.005

// HouseBuilding2 places the two cubes side by side as walls and rests
// the roof across them
type HouseBuilding2 struct {
	*BlockStructure
}

// NewHouseBuilding2 returns a new HouseBuilding2 planner
func NewHouseBuilding2(task tasks.Task, config envconfig.Config) (Planner,
	error) {
	return &HouseBuilding2{NewBlockStructure(task.Base(), config)}, nil
}

func (p *HouseBuilding2) parts() ([]*objects.Object, *objects.Object, error) {
	walls := p.env.ObjectsOfShape(objects.Cube)
	roofs := p.env.ObjectsOfShape(objects.Roof)
	if len(walls) != 2 || len(roofs) != 1 {
		return nil, nil, fmt.Errorf("have %d cubes and %d roofs, want 2 "+
			"and 1", len(walls), len(roofs))
	}
	return walls, roofs[0], nil
}

// wallsReady returns whether both walls stand on the ground close
// enough for the roof to span them
func (p *HouseBuilding2) wallsReady(walls []*objects.Object,
	roof *objects.Object) (bool, error) {
	for _, wall := range walls {
		ground, err := p.env.IsObjOnGround(wall)
		if err != nil || !ground || p.env.IsObjectHeld(wall) {
			return false, err
		}
	}
	pos, err := positions(walls)
	if err != nil {
		return false, err
	}
	d := math.Hypot(pos[0].X-pos[1].X, pos[0].Y-pos[1].Y)
	return d >= walls[0].Size() && d <= p.span(walls[0], roof)+wallGap, nil
}

// span returns the distance between wall centres at which the roof
// ends flush with the outer wall faces
func (p *HouseBuilding2) span(wall, roof *objects.Object) float64 {
	return roof.Length() - wall.Size()
}

// wallTarget returns where to put mover next to anchor: on a line
// along x unless objects are randomly oriented, inside the workspace,
// and clear of every object but the two walls. ok is false when every
// direction is blocked.
func (p *HouseBuilding2) wallTarget(anchor, mover,
	roof *objects.Object) (t r3.Vec, theta float64, ok bool, err error) {
	centre, err := anchor.Position()
	if err != nil {
		return r3.Vec{}, 0, false, err
	}
	var others []*objects.Object
	for _, obj := range p.unheld(p.env.Objects()) {
		if obj != anchor && obj != mover {
			others = append(others, obj)
		}
	}
	blockers, err := positions(others)
	if err != nil {
		return r3.Vec{}, 0, false, err
	}

	d := p.span(anchor, roof)
	ws := p.config.Workspace
	pad := p.config.MinBoarderPadding
	start := p.randomRotation()
	for i := 0; i < 4; i++ {
		theta = start + float64(i)*math.Pi/2
		t = r3.Vec{
			X: centre.X + d*math.Cos(theta),
			Y: centre.Y + d*math.Sin(theta),
		}
		if t.X >= ws[0].Min+pad && t.X <= ws[0].Max-pad &&
			t.Y >= ws[1].Min+pad && t.Y <= ws[1].Max-pad &&
			clearOf(t, blockers, p.config.MinObjectDistance) {
			return t, theta, true, nil
		}
	}
	return r3.Vec{}, 0, false, nil
}

// wallMove returns the wall to move and the wall on the ground to move
// it beside. ok is false when neither wall has a free spot beside the
// other.
func (p *HouseBuilding2) wallMove(walls []*objects.Object,
	roof *objects.Object) (mover, anchor *objects.Object, ok bool, err error) {
	for _, pair := range [2][2]*objects.Object{
		{walls[1], walls[0]},
		{walls[0], walls[1]},
	} {
		mover, anchor = pair[0], pair[1]
		ground, err := p.env.IsObjOnGround(anchor)
		if err != nil {
			return nil, nil, false, err
		}
		if !ground || p.env.IsObjectHeld(anchor) {
			continue
		}
		_, _, ok, err = p.wallTarget(anchor, mover, roof)
		if err != nil || ok {
			return mover, anchor, ok, err
		}
	}
	return nil, nil, false, nil
}

// NextAction implements the Planner interface
func (p *HouseBuilding2) NextAction() (*mat.VecDense, error) {
	walls, roof, err := p.parts()
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}
	ready, err := p.wallsReady(walls, roof)
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}
	roofGround, err := p.env.IsObjOnGround(roof)
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}

	var action *mat.VecDense
	switch {
	case p.holdingShape(objects.Roof) && ready:
		action, err = p.placeRoof(walls)
	case p.holdingShape(objects.Roof):
		action, err = p.PlaceOnGround(p.config.MinBoarderPadding,
			p.config.MinObjectDistance)
	case p.env.IsHolding():
		action, err = p.placeWall(walls, roof)
	case !ready && !roofGround:
		action, err = p.PickObject(roof)
	case !ready:
		var mover *objects.Object
		var ok bool
		mover, _, ok, err = p.wallMove(walls, roof)
		if err == nil && ok {
			action, err = p.PickObject(mover)
		} else if err == nil {
			// The roof blocks every spot beside the walls
			action, err = p.PickObject(roof)
		}
	default:
		action, err = p.PickObject(roof)
	}
	if err != nil {
		return nil, fmt.Errorf("nextAction: %v", err)
	}
	return action, nil
}

// placeWall places the held wall beside the other one, or on the
// ground when the other wall is not standing or has no free spot
func (p *HouseBuilding2) placeWall(walls []*objects.Object,
	roof *objects.Object) (*mat.VecDense, error) {
	mover, anchor := walls[0], walls[1]
	if p.env.IsObjectHeld(anchor) {
		mover, anchor = anchor, mover
	}
	ground, err := p.env.IsObjOnGround(anchor)
	if err != nil {
		return nil, err
	}
	if ground {
		t, theta, ok, err := p.wallTarget(anchor, mover, roof)
		if err != nil {
			return nil, err
		}
		if ok {
			// Fingers close across the wall line
			return p.Place(t.X, t.Y, theta)
		}
	}
	return p.PlaceOnGround(p.config.MinBoarderPadding,
		p.config.MinObjectDistance)
}

// placeRoof places the held roof midway between the walls, turned
// along the line through them
func (p *HouseBuilding2) placeRoof(walls []*objects.Object) (*mat.VecDense,
	error) {
	pos, err := positions(walls)
	if err != nil {
		return nil, err
	}
	theta := math.Atan2(pos[1].Y-pos[0].Y, pos[1].X-pos[0].X)
	mid := r3.Scale(0.5, r3.Add(pos[0], pos[1]))
	return p.Place(mid.X, mid.Y, theta)
}

// StepsLeft implements the Planner interface
func (p *HouseBuilding2) StepsLeft() (int, error) {
	done, err := p.env.CheckTermination()
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	if done {
		return 0, nil
	}

	walls, roof, err := p.parts()
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	ready, err := p.wallsReady(walls, roof)
	if err != nil {
		return 0, fmt.Errorf("stepsLeft: %v", err)
	}
	moves := 1
	if !ready {
		moves++
		ground, err := p.env.IsObjOnGround(roof)
		if err != nil {
			return 0, fmt.Errorf("stepsLeft: %v", err)
		}
		if !ground {
			moves++
		} else if _, _, ok, err := p.wallMove(walls, roof); err != nil {
			return 0, fmt.Errorf("stepsLeft: %v", err)
		} else if !ok && !p.env.IsHolding() {
			moves++
		}
	}
	return p.pickPlaceSteps(moves), nil
}
