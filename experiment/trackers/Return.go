// Package trackers implements Trackers of episodic data: returns,
// episode lengths, successes, and full demonstrations
package trackers

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/experiment/tracker"
	ts "github.com/samuelfneumann/helpinghands/timestep"
)

// Return tracks and saves the episodic return in an experiment.
//
// Note: An episode must finish for this Tracker to save its data.
// If the last episode in an experiment does not finish, that episode's
// return will not be saved.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) *Return {
	return &Return{lastTimeStep: -1, filename: filename}
}

// Track accumulates the reward of a timestep into the return of the
// current episode. The first timestep of an episode starts a new
// return.
//
// Track panics if it is called for non-sequential timesteps
func (r *Return) Track(step ts.TimeStep) {
	if step.First() {
		r.currentReturn = 0
		r.lastTimeStep = -1
	}
	if r.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("track: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v", r.lastTimeStep,
			step.Number))
	}

	r.currentReturn += step.Reward
	r.lastTimeStep = step.Number
	if step.Last() {
		r.episodeReturns = append(r.episodeReturns, r.currentReturn)
		r.currentReturn = 0
		r.lastTimeStep = -1
	}
}

// Returns returns the returns of all finished episodes
func (r *Return) Returns() []float64 {
	return r.episodeReturns
}

// Save saves the episodic returns to disk
func (r *Return) Save() error {
	if err := tracker.Encode(r.filename, r.episodeReturns); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
