// Package tasks implements the manipulation tasks on top of the base
// manipulation environment and maps task names to their constructors
package tasks

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samuelfneumann/helpinghands/assets"
	"github.com/samuelfneumann/helpinghands/environment"
	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/manipulation"
	"github.com/samuelfneumann/helpinghands/logging"
	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/samuelfneumann/helpinghands/simulator/kinematic"
	ts "github.com/samuelfneumann/helpinghands/timestep"
)

// ErrUnknownTask is returned when no task is registered under a name
var ErrUnknownTask = errors.New("unknown task")

// Task is a manipulation environment with a task-specific reset and
// success predicate
type Task interface {
	environment.Environment

	// Base returns the underlying manipulation environment, which
	// planners query for object state
	Base() *manipulation.Env
}

// constructor builds a task around a freshly created base environment
type constructor func(*manipulation.Env) (Task, error)

var registry = map[string]constructor{
	"block_picking":                newBlockPicking,
	"random_block_picking":         newRandomBlockPicking,
	"random_household_picking":     newRandomHouseholdPicking,
	"block_stacking":               newBlockStacking,
	"cup_stacking":                 newCupStacking,
	"bowl_stacking":                newBowlStacking,
	"brick_stacking":               newBrickStacking,
	"block_adjacent":               newBlockAdjacent,
	"house_building_1":             newHouseBuilding1,
	"house_building_2":             newHouseBuilding2,
	"house_building_1_deconstruct": newHouseBuilding1Deconstruct,
	"house_building_2_deconstruct": newHouseBuilding2Deconstruct,
	"drawer_opening":               newDrawerOpening,
}

// Names returns the registered task names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create creates the named task on a kinematic engine and resets it,
// returning the task and its first timestep
func Create(name string, config envconfig.Config) (Task, ts.TimeStep, error) {
	return CreateWith(name, config, kinematic.New(assets.FS), logging.NoOp{})
}

// CreateWith creates the named task on engine, logging to logger, and
// resets it
func CreateWith(name string, config envconfig.Config, engine simulator.Engine,
	logger logging.Logger) (Task, ts.TimeStep, error) {
	construct, ok := registry[name]
	if !ok {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w: %q", ErrUnknownTask,
			name)
	}

	env, err := manipulation.New(config, engine, logger)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
	}
	task, err := construct(env)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
	}

	step, err := task.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
	}
	logger.Info("created task", "task", name, "robot", config.Robot,
		"objects", config.NumObjects)
	return task, step, nil
}
