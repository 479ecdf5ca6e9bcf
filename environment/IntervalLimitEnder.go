package environment

import (
	"fmt"

	ts "github.com/samuelfneumann/helpinghands/timestep"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

// IntervalLimit implements the Ender interface to end episodes
// whenever a tracked position leaves a box given by one interval per
// axis
type IntervalLimit struct {
	bounds    [3]r1.Interval
	positions func() ([]r3.Vec, error)
	endType   ts.EndType
}

// NewIntervalLimit creates and returns a new interval limit over the
// positions returned by positions. The endType argument determines what
// the episode end should be considered as.
func NewIntervalLimit(bounds [3]r1.Interval, positions func() ([]r3.Vec, error),
	endType ts.EndType) Ender {
	for i, b := range bounds {
		if b.Min > b.Max {
			panic(fmt.Sprintf("interval %v has min %v > max %v", i, b.Min,
				b.Max))
		}
	}
	return &IntervalLimit{bounds, positions, endType}
}

// End determines whether or not the current episode should be ended.
// If so, End() will modify the timestep so that its StepType field is
// timestep.Last and its EndType is the appropriate ending type.
func (i *IntervalLimit) End(t *ts.TimeStep) (bool, error) {
	positions, err := i.positions()
	if err != nil {
		return false, fmt.Errorf("end: %v", err)
	}

	for _, p := range positions {
		if !Inside(i.bounds, p) {
			t.StepType = ts.Last
			t.SetEnd(i.endType)
			return true, nil
		}
	}
	return false, nil
}

// Inside returns whether p lies within bounds
func Inside(bounds [3]r1.Interval, p r3.Vec) bool {
	for i, v := range [3]float64{p.X, p.Y, p.Z} {
		if v < bounds[i].Min || v > bounds[i].Max {
			return false
		}
	}
	return true
}
