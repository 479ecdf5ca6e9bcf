package manipulation

import (
	"math"

	"github.com/samuelfneumann/helpinghands/environment"
	"github.com/samuelfneumann/helpinghands/robots"
	"gonum.org/v1/gonum/mat"
)

// ObservationSpec returns the observation specification of the
// environment. Observations flatten to the holding flag followed by
// the in-hand image and the heightmap, both row-major.
func (e *Env) ObservationSpec() environment.Spec {
	n := 1 + e.config.InHandSize*e.config.InHandSize +
		e.config.ObsSize*e.config.ObsSize
	shape := mat.NewVecDense(n, nil)

	low := mat.NewVecDense(n, nil)
	high := mat.NewVecDense(n, nil)
	high.SetVec(0, 1)
	for i := 1; i < n; i++ {
		high.SetVec(i, math.Inf(1))
	}

	return environment.NewSpec(shape, environment.Observation, low, high,
		environment.Continuous)
}

// ActionSpec returns the action specification of the environment, with
// one element per character of the action sequence
func (e *Env) ActionSpec() environment.Spec {
	seq := e.config.ActionSequence
	ws := e.config.Workspace
	maxRot := 2 * math.Pi
	if e.config.HalfRotation {
		maxRot = math.Pi
	}

	shape := mat.NewVecDense(len(seq), nil)
	low := mat.NewVecDense(len(seq), nil)
	high := mat.NewVecDense(len(seq), nil)
	for i, c := range seq {
		switch c {
		case 'p':
			low.SetVec(i, float64(robots.Pick))
			high.SetVec(i, float64(robots.Pull))
		case 'x':
			low.SetVec(i, ws[0].Min)
			high.SetVec(i, ws[0].Max)
		case 'y':
			low.SetVec(i, ws[1].Min)
			high.SetVec(i, ws[1].Max)
		case 'z':
			low.SetVec(i, ws[2].Min)
			high.SetVec(i, ws[2].Max)
		case 'r':
			high.SetVec(i, maxRot)
		}
	}

	return environment.NewSpec(shape, environment.Action, low, high,
		environment.Continuous)
}

// DiscountSpec returns the discount specification of the environment
func (e *Env) DiscountSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{0})
	high := mat.NewVecDense(1, []float64{1})

	return environment.NewSpec(shape, environment.Discount, low, high,
		environment.Continuous)
}
