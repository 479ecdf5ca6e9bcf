// Package planners implements scripted policies that produce expert
// actions for the manipulation tasks. Planners are used to generate
// demonstrations rather than to learn.
package planners

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/tasks"
	"gonum.org/v1/gonum/mat"
)

// ErrUnknownPlanner is returned when no planner is registered under a
// name
var ErrUnknownPlanner = errors.New("unknown planner")

// Planner produces the next expert action of a task
type Planner interface {
	// NextAction returns the next action, encoded in the action
	// sequence of the environment
	NextAction() (*mat.VecDense, error)

	// StepsLeft returns the number of actions needed to solve the
	// task from the current state
	StepsLeft() (int, error)
}

// Constructor creates a planner for a task
type Constructor func(task tasks.Task, config envconfig.Config) (Planner, error)

// Registry maps task names to the planner that solves them
var Registry = map[string]Constructor{
	"random":                       NewRandom,
	"block_picking":                NewBlockPicking,
	"random_block_picking":         NewBlockPicking,
	"random_household_picking":     NewBlockPicking,
	"block_stacking":               NewBlockStacking,
	"cup_stacking":                 NewBlockStacking,
	"bowl_stacking":                NewBlockStacking,
	"brick_stacking":               NewBrickStacking,
	"block_adjacent":               NewBlockAdjacent,
	"house_building_1":             NewHouseBuilding1,
	"house_building_2":             NewHouseBuilding2,
	"house_building_1_deconstruct": NewDeconstruct,
	"house_building_2_deconstruct": NewDeconstruct,
	"drawer_opening":               NewDrawerOpening,
}

// Names returns the registered planner names in sorted order
func Names() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the planner registered under name for task
func New(name string, task tasks.Task, config envconfig.Config) (Planner,
	error) {
	construct, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("new: %w: %q", ErrUnknownPlanner, name)
	}
	p, err := construct(task, config)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	return p, nil
}
