// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gorgonia.org/tensor"
)

// StepType denotes the type of step that a TimeStep can be, either the
// first environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType denotes why an episode ended
type EndType int

const (
	// Unended is the EndType of timesteps that are not last
	Unended EndType = iota

	// TerminalStateReached means the task was completed
	TerminalStateReached

	// Timeout means the episode step limit was reached
	Timeout

	// Invalid means the simulation left its valid region, for example
	// an object was knocked out of the workspace
	Invalid
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	case Invalid:
		return "Invalid"
	default:
		return "Unended"
	}
}

// Observation is what an agent sees of a manipulation environment
type Observation struct {
	// Holding is whether the gripper holds an object
	Holding bool

	// InHand is the image of the held object taken before it was
	// picked, shape (InHandSize, InHandSize). It is all zeros when
	// nothing is held.
	InHand *tensor.Dense

	// Heightmap is the top-down heightmap of the workspace, shape
	// (ObsSize, ObsSize)
	Heightmap *tensor.Dense
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType    StepType
	EndType     EndType
	Reward      float64
	Discount    float64
	Observation Observation
	Number      int
}

// New returns a new TimeStep
func New(t StepType, r, d float64, o Observation, n int) TimeStep {
	return TimeStep{
		StepType:    t,
		Reward:      r,
		Discount:    d,
		Observation: o,
		Number:      n,
	}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd sets the reason the episode ended. Only the first reason set
// is kept.
func (t *TimeStep) SetEnd(e EndType) {
	if t.EndType == Unended {
		t.EndType = e
	}
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  End: %v  |  Reward:  %.2f  |  " +
		"Discount: %.2f  |  Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.EndType, t.Reward, t.Discount,
		t.Number)
}
