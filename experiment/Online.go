package experiment

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/environment"
	"github.com/samuelfneumann/helpinghands/experiment/tracker"
	"github.com/samuelfneumann/helpinghands/logging"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"gonum.org/v1/gonum/mat"
)

// Online is an Experiment that runs an agent online only. The
// experiment ends after maxSteps actions or maxEpisodes episodes,
// whichever comes first. A limit of 0 is no limit.
type Online struct {
	environment.Environment
	Agent

	maxSteps     int
	maxEpisodes  int
	currentSteps int
	episodes     int

	trackers []tracker.Tracker
	logger   logging.Logger
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. At least one of steps and episodes
// must be positive.
func NewOnline(e environment.Environment, a Agent, steps, episodes int,
	logger logging.Logger, t ...tracker.Tracker) (*Online, error) {
	if steps <= 0 && episodes <= 0 {
		return nil, fmt.Errorf("newOnline: experiment must have a step " +
			"or episode limit")
	}
	if logger == nil {
		logger = logging.NoOp{}
	}
	return &Online{
		Environment: e,
		Agent:       a,
		maxSteps:    steps,
		maxEpisodes: episodes,
		trackers:    t,
		logger:      logger,
	}, nil
}

// Register registers a Tracker with the experiment so that data
// generated from now on is tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// Episodes returns the number of episodes run so far
func (o *Online) Episodes() int {
	return o.episodes
}

// Steps returns the number of actions taken so far
func (o *Online) Steps() int {
	return o.currentSteps
}

// Done returns whether a limit of the experiment has been reached
func (o *Online) Done() bool {
	return (o.maxSteps > 0 && o.currentSteps >= o.maxSteps) ||
		(o.maxEpisodes > 0 && o.episodes >= o.maxEpisodes)
}

// RunEpisode runs a single episode of the experiment and returns
// whether the experiment has ended
func (o *Online) RunEpisode() (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return true, fmt.Errorf("runEpisode: could not reset: %v", err)
	}
	if err := o.Agent.ObserveFirst(step); err != nil {
		return true, fmt.Errorf("runEpisode: %v", err)
	}
	o.track(nil, step)

	ret := step.Reward
	done := false
	for !done && (o.maxSteps <= 0 || o.currentSteps < o.maxSteps) {
		o.currentSteps++

		action, err := o.Agent.SelectAction(step)
		if err != nil {
			return true, fmt.Errorf("runEpisode: %v", err)
		}
		step, done, err = o.Environment.Step(action)
		if err != nil {
			return true, fmt.Errorf("runEpisode: %v", err)
		}
		o.track(action, step)
		ret += step.Reward

		if err := o.Agent.Observe(action, step); err != nil {
			return true, fmt.Errorf("runEpisode: %v", err)
		}
	}
	o.episodes++

	o.logger.Info("episode finished", "episode", o.episodes,
		"steps", step.Number, "return", ret, "end", step.EndType)
	return o.Done(), nil
}

// Run runs episodes until the experiment ends
func (o *Online) Run() error {
	for !o.Done() {
		if _, err := o.RunEpisode(); err != nil {
			return fmt.Errorf("run: %v", err)
		}
	}
	return nil
}

// Save saves all the data cached by the trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// track sends the timestep to each tracker, and the action that led to
// it to those that track actions
func (o *Online) track(action mat.Vector, t ts.TimeStep) {
	for _, tr := range o.trackers {
		if at, ok := tr.(tracker.ActionTracker); ok && action != nil {
			at.TrackAction(action, t)
		}
		tr.Track(t)
	}
}
