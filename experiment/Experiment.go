// Package experiment implements functionality for running an experiment
// in which an agent, usually a planner, acts in a task environment
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/assets"
	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/tasks"
	"github.com/samuelfneumann/helpinghands/experiment/tracker"
	"github.com/samuelfneumann/helpinghands/logging"
	"github.com/samuelfneumann/helpinghands/planners"
	"github.com/samuelfneumann/helpinghands/simulator/kinematic"
)

// Experiment runs episodes of an agent in an environment. Timesteps
// are sent to Trackers, which cache the data they need in RAM until
// Save is called, usually once the experiment has been run.
type Experiment interface {
	// Run runs all episodes until the experiment ends
	Run() error

	// RunEpisode runs a single episode and returns whether the
	// experiment has ended
	RunEpisode() (bool, error)

	// Save saves all tracked data to disk
	Save() error

	// Register adds a new Tracker to a possibly running experiment
	Register(t tracker.Tracker)
}

// Config represents a configuration of an experiment
type Config struct {
	// Task is the name of the task to run
	Task string

	// Planner names the planner to act with, which defaults to the
	// planner of Task
	Planner string

	// MaxSteps and MaxEpisodes limit the experiment, 0 is no limit
	MaxSteps    int
	MaxEpisodes int

	EnvConf envconfig.Config
}

// CreateExp creates an online experiment in which the configured planner
// acts in the configured task. The reward of the task is given the
// steps left of the planner. The task is returned so that the caller
// can close it.
func (c Config) CreateExp(logger logging.Logger,
	t ...tracker.Tracker) (*Online, tasks.Task, error) {
	if logger == nil {
		logger = logging.NoOp{}
	}
	name := c.Planner
	if name == "" {
		name = c.Task
	}

	task, _, err := tasks.CreateWith(c.Task, c.EnvConf,
		kinematic.New(assets.FS), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("createExp: %w", err)
	}

	planner, err := planners.New(name, task, c.EnvConf)
	if err != nil {
		task.Close()
		return nil, nil, fmt.Errorf("createExp: %w", err)
	}
	task.Base().SetStepsLeft(planner.StepsLeft)

	exp, err := NewOnline(task, NewPlannerAgent(planner), c.MaxSteps,
		c.MaxEpisodes, logger, t...)
	if err != nil {
		task.Close()
		return nil, nil, fmt.Errorf("createExp: %v", err)
	}
	return exp, task, nil
}
