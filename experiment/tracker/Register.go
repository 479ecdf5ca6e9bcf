package tracker

import (
	"github.com/samuelfneumann/helpinghands/environment"
	ts "github.com/samuelfneumann/helpinghands/timestep"
)

// registeredTracker tracks the current timestep of a registered
// Environment rather than the timestep it is given. This lets a
// Tracker follow one environment while an experiment drives another,
// for example a task evaluated alongside the one collecting
// demonstrations.
type registeredTracker struct {
	Tracker
	env environment.Environment
}

// Register returns a copy of t which tracks env only.
//
// The concrete type of t is lost, so a registered ActionTracker no
// longer receives actions.
func Register(t Tracker, env environment.Environment) Tracker {
	return &registeredTracker{t, env}
}

// Track calls Track on the embedded Tracker with the current timestep
// of the registered Environment. The argument is ignored.
func (r *registeredTracker) Track(ts.TimeStep) {
	r.Tracker.Track(r.env.CurrentTimeStep())
}
