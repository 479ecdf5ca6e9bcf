// Package envconfig provides the configuration of manipulation
// environments: workspace bounds, episode length, observation sizes,
// robot and physics choices, and the reward and action encodings.
// Configurations can be loaded from HCL files.
package envconfig

import (
	"fmt"
	"strings"

	"github.com/samuelfneumann/helpinghands/robots"
	"github.com/samuelfneumann/helpinghands/simulator"
	"gonum.org/v1/gonum/spatial/r1"
)

// RewardType determines how rewards are computed from task success
type RewardType string

const (
	// Sparse gives a reward of 1 on success and 0 otherwise
	Sparse RewardType = "sparse"

	// StepLeft gives the negative number of steps the planner still
	// needs, which is 0 on success
	StepLeft RewardType = "step_left"

	// Dense gives the sparse reward minus 0.01 per step
	Dense RewardType = "dense"
)

// WorkspaceCheck determines what must stay inside the workspace for a
// simulation to be valid
type WorkspaceCheck string

const (
	// Point requires the position of every object inside the workspace
	Point WorkspaceCheck = "point"

	// Box requires the position of every object inside the workspace
	// after the workspace is grown by each object's half size
	Box WorkspaceCheck = "box"
)

// ActionChars are the characters allowed in an action sequence: the
// primitive, the x, y, and z positions, and the rotation
const ActionChars = "pxyzr"

// Config implements a configuration of a manipulation environment
type Config struct {
	// Workspace holds the x, y, and z bounds of the workspace
	Workspace [3]r1.Interval

	MaxSteps   int
	ObsSize    int
	InHandSize int
	Render     bool
	FastMode   bool
	Seed       uint64

	// ActionSequence orders the action vector, e.g. "pxyzr". Missing
	// characters are filled in when actions are decoded.
	ActionSequence string

	NumObjects        int
	RandomOrientation bool
	RewardType        RewardType
	SimulateGrasp     bool
	PerfectGrasp      bool
	Robot             string
	WorkspaceCheck    WorkspaceCheck
	PhysicsMode       simulator.PhysicsMode

	// HardResetFreq is the number of episodes between full engine
	// resets
	HardResetFreq int

	ObjectScaleRange  r1.Interval
	MinObjectDistance float64
	MinBoarderPadding float64
	Discount          float64

	// Planner noise
	PosNoise     float64
	RotNoise     float64
	HalfRotation bool

	// ModelID selects the drawer and plate models
	ModelID int

	// OutDir is where rendered images and demonstrations are saved
	OutDir string
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Workspace: [3]r1.Interval{
			{Min: 0.3, Max: 0.7},
			{Min: -0.2, Max: 0.2},
			{Min: 0, Max: 0.4},
		},
		MaxSteps:          10,
		ObsSize:           128,
		InHandSize:        24,
		FastMode:          true,
		ActionSequence:    ActionChars,
		NumObjects:        2,
		RewardType:        Sparse,
		SimulateGrasp:     true,
		Robot:             "kuka",
		WorkspaceCheck:    Box,
		PhysicsMode:       simulator.PhysicsFast,
		HardResetFreq:     1,
		ObjectScaleRange:  r1.Interval{Min: 0.6, Max: 0.6},
		MinObjectDistance: 0.09,
		MinBoarderPadding: 0.05,
		Discount:          0.99,
		HalfRotation:      true,
		ModelID:           1,
	}
}

// WorkspaceCentre returns the centre of the workspace in the x-y
// plane at the workspace floor
func (c Config) WorkspaceCentre() (x, y, z float64) {
	return (c.Workspace[0].Min + c.Workspace[0].Max) / 2,
		(c.Workspace[1].Min + c.Workspace[1].Max) / 2,
		c.Workspace[2].Min
}

// WorkspaceSize returns the side length of the square observed by the
// camera
func (c Config) WorkspaceSize() float64 {
	return c.Workspace[0].Max - c.Workspace[0].Min
}

// Validate returns an error if the configuration is unusable
func (c Config) Validate() error {
	for i, b := range c.Workspace {
		if b.Min >= b.Max {
			return fmt.Errorf("validate: workspace dimension %d has min %v "+
				">= max %v", i, b.Min, b.Max)
		}
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("validate: max steps must be positive, have %d",
			c.MaxSteps)
	}
	if c.ObsSize <= 0 || c.InHandSize <= 0 {
		return fmt.Errorf("validate: observation sizes must be positive, "+
			"have %d and %d", c.ObsSize, c.InHandSize)
	}
	if err := validateActionSequence(c.ActionSequence); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if c.NumObjects < 0 {
		return fmt.Errorf("validate: negative number of objects %d",
			c.NumObjects)
	}

	switch c.RewardType {
	case Sparse, StepLeft, Dense:
	default:
		return fmt.Errorf("validate: no such reward type %q", c.RewardType)
	}
	switch c.WorkspaceCheck {
	case Point, Box:
	default:
		return fmt.Errorf("validate: no such workspace check %q",
			c.WorkspaceCheck)
	}
	if _, err := c.PhysicsMode.Params(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if !validRobot(c.Robot) {
		return fmt.Errorf("validate: %w %q", robots.ErrUnknownRobot, c.Robot)
	}

	if c.HardResetFreq <= 0 {
		return fmt.Errorf("validate: hard reset frequency must be positive, "+
			"have %d", c.HardResetFreq)
	}
	if c.ObjectScaleRange.Min <= 0 ||
		c.ObjectScaleRange.Min > c.ObjectScaleRange.Max {
		return fmt.Errorf("validate: invalid object scale range %v",
			c.ObjectScaleRange)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1], have %v",
			c.Discount)
	}
	if c.ModelID != 1 && c.ModelID != 2 {
		return fmt.Errorf("validate: model id must be 1 or 2, have %d",
			c.ModelID)
	}
	return nil
}

func validateActionSequence(seq string) error {
	if !strings.ContainsRune(seq, 'x') || !strings.ContainsRune(seq, 'y') {
		return fmt.Errorf("action sequence %q needs x and y", seq)
	}
	seen := make(map[rune]bool)
	for _, c := range seq {
		if !strings.ContainsRune(ActionChars, c) {
			return fmt.Errorf("action sequence %q has invalid character %q",
				seq, c)
		}
		if seen[c] {
			return fmt.Errorf("action sequence %q repeats %q", seq, c)
		}
		seen[c] = true
	}
	return nil
}

func validRobot(name string) bool {
	for _, n := range robots.Names() {
		if n == name {
			return true
		}
	}
	return false
}
