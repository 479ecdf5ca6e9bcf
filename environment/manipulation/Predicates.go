package manipulation

import (
	"fmt"
	"math"
	"sort"

	"github.com/samuelfneumann/helpinghands/objects"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// inBetweenThreshold is the largest distance of an object from the
	// segment between two others for it to be in between them
	inBetweenThreshold = 0.02

	// adjacentFactor scales the object size into the largest centre
	// distance of adjacent objects
	adjacentFactor = 1.5

	// liftedHeight is how far above the workspace floor a held object
	// must be for it to count as picked
	liftedHeight = 0.1
)

// IsHolding returns whether the robot holds an object
func (e *Env) IsHolding() bool {
	return e.Robot.HoldingObj != nil
}

// IsObjectHeld returns whether the robot holds obj
func (e *Env) IsObjectHeld(obj *objects.Object) bool {
	return e.Robot.HoldingObj == obj
}

// IsObjectLifted returns whether the robot holds obj above the
// workspace floor
func (e *Env) IsObjectLifted(obj *objects.Object) (bool, error) {
	if !e.IsObjectHeld(obj) {
		return false, nil
	}
	z, err := obj.ZPosition()
	if err != nil {
		return false, fmt.Errorf("isObjectLifted: %v", err)
	}
	return z > e.config.Workspace[2].Min+liftedHeight, nil
}

// CheckOnTop returns whether top rests on bottom: top is higher and the
// two touch
func (e *Env) CheckOnTop(bottom, top *objects.Object) (bool, error) {
	if e.IsObjectHeld(bottom) || e.IsObjectHeld(top) {
		return false, nil
	}
	bz, err := bottom.ZPosition()
	if err != nil {
		return false, fmt.Errorf("checkOnTop: %v", err)
	}
	tz, err := top.ZPosition()
	if err != nil {
		return false, fmt.Errorf("checkOnTop: %v", err)
	}
	if tz <= bz {
		return false, nil
	}
	touching, err := top.IsTouching(bottom)
	if err != nil {
		return false, fmt.Errorf("checkOnTop: %v", err)
	}
	return touching, nil
}

// CheckStack returns whether objs form a single stack, each resting on
// the one below it. If objs is nil, all task objects are checked.
func (e *Env) CheckStack(objs []*objects.Object) (bool, error) {
	if objs == nil {
		objs = e.objects
	}
	sorted, err := sortByHeight(objs)
	if err != nil {
		return false, fmt.Errorf("checkStack: %v", err)
	}
	for i := 0; i+1 < len(sorted); i++ {
		onTop, err := e.CheckOnTop(sorted[i], sorted[i+1])
		if err != nil {
			return false, fmt.Errorf("checkStack: %v", err)
		}
		if !onTop {
			return false, nil
		}
	}
	return true, nil
}

func sortByHeight(objs []*objects.Object) ([]*objects.Object, error) {
	z := make(map[*objects.Object]float64, len(objs))
	for _, obj := range objs {
		h, err := obj.ZPosition()
		if err != nil {
			return nil, err
		}
		z[obj] = h
	}
	sorted := append([]*objects.Object(nil), objs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return z[sorted[i]] < z[sorted[j]]
	})
	return sorted, nil
}

// CheckAdjacent returns whether objs all lie on the ground in a single
// connected group, where two objects are connected when their centres
// are closer than adjacentFactor times the larger object size. If objs
// is nil, all task objects are checked.
func (e *Env) CheckAdjacent(objs []*objects.Object) (bool, error) {
	if objs == nil {
		objs = e.objects
	}
	if len(objs) == 0 {
		return false, nil
	}

	positions := make([]r3.Vec, len(objs))
	for i, obj := range objs {
		ground, err := e.IsObjOnGround(obj)
		if err != nil {
			return false, fmt.Errorf("checkAdjacent: %v", err)
		}
		if !ground || e.IsObjectHeld(obj) {
			return false, nil
		}
		positions[i], err = obj.Position()
		if err != nil {
			return false, fmt.Errorf("checkAdjacent: %v", err)
		}
	}

	// Flood fill from the first object
	reached := make([]bool, len(objs))
	reached[0] = true
	queue := []int{0}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		for j := range objs {
			if reached[j] {
				continue
			}
			d := math.Hypot(positions[i].X-positions[j].X,
				positions[i].Y-positions[j].Y)
			if d < adjacentFactor*math.Max(objs[i].Size(), objs[j].Size()) {
				reached[j] = true
				queue = append(queue, j)
			}
		}
	}
	for _, r := range reached {
		if !r {
			return false, nil
		}
	}
	return true, nil
}

// CheckInBetween returns whether obj lies in the x-y plane on the
// segment between a and b
func (e *Env) CheckInBetween(obj, a, b *objects.Object) (bool, error) {
	var p [3]r3.Vec
	for i, o := range []*objects.Object{obj, a, b} {
		pos, err := o.Position()
		if err != nil {
			return false, fmt.Errorf("checkInBetween: %v", err)
		}
		p[i] = r3.Vec{X: pos.X, Y: pos.Y}
	}

	ab := r3.Sub(p[2], p[1])
	length := r3.Norm(ab)
	if length == 0 {
		return r3.Norm(r3.Sub(p[0], p[1])) < inBetweenThreshold, nil
	}
	dir := r3.Scale(1/length, ab)
	along := r3.Dot(r3.Sub(p[0], p[1]), dir)
	if along < 0 || along > length {
		return false, nil
	}
	off := r3.Sub(r3.Sub(p[0], p[1]), r3.Scale(along, dir))
	return r3.Norm(off) < inBetweenThreshold, nil
}

// IsObjOnTop returns whether nothing rests on obj
func (e *Env) IsObjOnTop(obj *objects.Object) (bool, error) {
	for _, other := range e.objects {
		if other == obj {
			continue
		}
		onTop, err := e.CheckOnTop(obj, other)
		if err != nil {
			return false, fmt.Errorf("isObjOnTop: %v", err)
		}
		if onTop {
			return false, nil
		}
	}
	return true, nil
}

// IsObjOnGround returns whether obj touches the ground plane
func (e *Env) IsObjOnGround(obj *objects.Object) (bool, error) {
	touching, err := obj.IsTouchingID(e.planeID)
	if err != nil {
		return false, fmt.Errorf("isObjOnGround: %v", err)
	}
	return touching, nil
}

// ObjectsOnGroundSeparated returns whether every task object lies on
// the ground without touching another
func (e *Env) ObjectsOnGroundSeparated() (bool, error) {
	for i, obj := range e.objects {
		if e.IsObjectHeld(obj) {
			return false, nil
		}
		ground, err := e.IsObjOnGround(obj)
		if err != nil {
			return false, fmt.Errorf("objectsOnGroundSeparated: %v", err)
		}
		if !ground {
			return false, nil
		}
		for _, other := range e.objects[i+1:] {
			touching, err := obj.IsTouching(other)
			if err != nil {
				return false, fmt.Errorf("objectsOnGroundSeparated: %v", err)
			}
			if touching {
				return false, nil
			}
		}
	}
	return true, nil
}

// ObjectHeights returns the z position of every task object
func (e *Env) ObjectHeights() ([]float64, error) {
	heights := make([]float64, len(e.objects))
	for i, obj := range e.objects {
		z, err := obj.ZPosition()
		if err != nil {
			return nil, fmt.Errorf("objectHeights: %v", err)
		}
		heights[i] = z
	}
	return heights, nil
}
