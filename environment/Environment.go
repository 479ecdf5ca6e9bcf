// Package environment outlines the interfaces and structs needed to
// implement concrete manipulation environments
package environment

import (
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter samples vectors from a start distribution, such as object
// positions or model indices
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines whether an episode should end. If so, End marks the
// timestep as last and records why the episode ended.
type Ender interface {
	End(t *ts.TimeStep) (bool, error)
}

// Environment implements a simulated manipulation environment
type Environment interface {
	// Reset starts a new episode
	Reset() (ts.TimeStep, error)

	// Step takes an action in the environment, returning the next
	// timestep and whether the episode has ended
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)

	CurrentTimeStep() ts.TimeStep

	ObservationSpec() Spec
	ActionSpec() Spec
	DiscountSpec() Spec

	// Close releases the underlying simulation
	Close() error
}
