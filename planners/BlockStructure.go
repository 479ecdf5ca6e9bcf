package planners

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/manipulation"
	"github.com/samuelfneumann/helpinghands/objects"
	"github.com/samuelfneumann/helpinghands/simulator"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// maxNearAttempts is the number of positions tried around an object
// before PlaceNearAnother fails
const maxNearAttempts = 100

// BlockStructure adds helpers for building and taking apart structures
// of stacked objects
type BlockStructure struct {
	*Base
}

// NewBlockStructure returns a BlockStructure planning over env
func NewBlockStructure(env *manipulation.Env,
	config envconfig.Config) *BlockStructure {
	return &BlockStructure{NewBase(env, config)}
}

// objsOnTop returns the unheld objects of objs on which nothing rests,
// with their heights. If objs is nil, all task objects are considered.
func (b *BlockStructure) objsOnTop(objs []*objects.Object) ([]*objects.Object,
	[]float64, error) {
	if objs == nil {
		objs = b.env.Objects()
	}
	var top []*objects.Object
	var heights []float64
	for _, obj := range b.unheld(objs) {
		onTop, err := b.env.IsObjOnTop(obj)
		if err != nil {
			return nil, nil, err
		}
		if !onTop {
			continue
		}
		z, err := obj.ZPosition()
		if err != nil {
			return nil, nil, err
		}
		top = append(top, obj)
		heights = append(heights, z)
	}
	if len(top) == 0 {
		return nil, nil, fmt.Errorf("no free object among %v", objs)
	}
	return top, heights, nil
}

// extreme returns the object of objs on top with the largest height if
// highest is set, and with the smallest otherwise
func (b *BlockStructure) extreme(objs []*objects.Object,
	highest bool) (*objects.Object, error) {
	top, heights, err := b.objsOnTop(objs)
	if err != nil {
		return nil, err
	}
	best := 0
	for i := range top {
		if (highest && heights[i] > heights[best]) ||
			(!highest && heights[i] < heights[best]) {
			best = i
		}
	}
	return top[best], nil
}

// PickTallestObjOnTop picks the highest of objs with nothing on it
func (b *BlockStructure) PickTallestObjOnTop(
	objs []*objects.Object) (*mat.VecDense, error) {
	obj, err := b.extreme(objs, true)
	if err != nil {
		return nil, fmt.Errorf("pickTallestObjOnTop: %v", err)
	}
	return b.PickObject(obj)
}

// PickShortestObjOnTop picks the lowest of objs with nothing on it
func (b *BlockStructure) PickShortestObjOnTop(
	objs []*objects.Object) (*mat.VecDense, error) {
	obj, err := b.extreme(objs, false)
	if err != nil {
		return nil, fmt.Errorf("pickShortestObjOnTop: %v", err)
	}
	return b.PickObject(obj)
}

// PlaceOnHighestObj places the held object on the highest of objs
// with nothing on it
func (b *BlockStructure) PlaceOnHighestObj(
	objs []*objects.Object) (*mat.VecDense, error) {
	obj, err := b.extreme(objs, true)
	if err != nil {
		return nil, fmt.Errorf("placeOnHighestObj: %v", err)
	}
	return b.PlaceOn(obj)
}

// PlaceOnShortestObj places the held object on the lowest of objs
// with nothing on it
func (b *BlockStructure) PlaceOnShortestObj(
	objs []*objects.Object) (*mat.VecDense, error) {
	obj, err := b.extreme(objs, false)
	if err != nil {
		return nil, fmt.Errorf("placeOnShortestObj: %v", err)
	}
	return b.PlaceOn(obj)
}

// PlaceOnGround places the held object at a free position of the
// workspace at least minDistance from every other object
func (b *BlockStructure) PlaceOnGround(padding,
	minDistance float64) (*mat.VecDense, error) {
	existing, err := positions(b.unheld(b.env.Objects()))
	if err != nil {
		return nil, fmt.Errorf("placeOnGround: %v", err)
	}
	pos, err := b.env.ValidPositions(padding, minDistance, existing, 1)
	if err != nil {
		return nil, fmt.Errorf("placeOnGround: %w", err)
	}
	return b.Place(pos[0].X, pos[0].Y, b.randomRotation())
}

// PlaceNearAnother places the held object on the ground between
// minDistance and maxDistance from another, and at least minDistance
// from every other object
func (b *BlockStructure) PlaceNearAnother(another *objects.Object,
	minDistance, maxDistance float64) (*mat.VecDense, error) {
	centre, err := another.Position()
	if err != nil {
		return nil, fmt.Errorf("placeNearAnother: %v", err)
	}
	var others []*objects.Object
	for _, obj := range b.unheld(b.env.Objects()) {
		if obj != another {
			others = append(others, obj)
		}
	}
	existing, err := positions(others)
	if err != nil {
		return nil, fmt.Errorf("placeNearAnother: %v", err)
	}

	angle := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: b.src}
	dist := distuv.Uniform{Min: minDistance, Max: maxDistance, Src: b.src}
	ws := b.config.Workspace
	pad := b.config.MinBoarderPadding
	for i := 0; i < maxNearAttempts; i++ {
		theta, d := angle.Rand(), dist.Rand()
		p := r3.Vec{
			X: centre.X + d*math.Cos(theta),
			Y: centre.Y + d*math.Sin(theta),
		}
		if p.X < ws[0].Min+pad || p.X > ws[0].Max-pad ||
			p.Y < ws[1].Min+pad || p.Y > ws[1].Max-pad {
			continue
		}
		if !clearOf(p, existing, minDistance) {
			continue
		}
		return b.Place(p.X, p.Y, b.randomRotation())
	}
	return nil, fmt.Errorf("placeNearAnother: %w: no position near %v",
		simulator.ErrNoValidPosition, another)
}

// StackHeight returns the number of objects of objs in the stack whose
// bottom is bottom
func (b *BlockStructure) StackHeight(bottom *objects.Object,
	objs []*objects.Object) (int, error) {
	height := 1
	current := bottom
	for {
		var next *objects.Object
		for _, obj := range objs {
			if obj == current {
				continue
			}
			onTop, err := b.env.CheckOnTop(current, obj)
			if err != nil {
				return 0, fmt.Errorf("stackHeight: %v", err)
			}
			if onTop {
				next = obj
				break
			}
		}
		if next == nil || height >= len(objs) {
			return height, nil
		}
		height++
		current = next
	}
}

// TallestStack returns the number of objects of objs in their tallest
// stack standing on the ground, or zero if none stands on the ground
func (b *BlockStructure) TallestStack(objs []*objects.Object) (int, error) {
	tallest := 0
	for _, obj := range b.unheld(objs) {
		ground, err := b.env.IsObjOnGround(obj)
		if err != nil {
			return 0, fmt.Errorf("tallestStack: %v", err)
		}
		if !ground {
			continue
		}
		h, err := b.StackHeight(obj, objs)
		if err != nil {
			return 0, fmt.Errorf("tallestStack: %v", err)
		}
		if h > tallest {
			tallest = h
		}
	}
	return tallest, nil
}

func positions(objs []*objects.Object) ([]r3.Vec, error) {
	out := make([]r3.Vec, len(objs))
	for i, obj := range objs {
		pos, err := obj.Position()
		if err != nil {
			return nil, err
		}
		out[i] = pos
	}
	return out, nil
}

// clearOf returns whether p is at least d from every point of others
// in the x-y plane
func clearOf(p r3.Vec, others []r3.Vec, d float64) bool {
	for _, o := range others {
		if math.Hypot(p.X-o.X, p.Y-o.Y) < d {
			return false
		}
	}
	return true
}
