// Package manipulation implements the base environment that every
// manipulation task embeds. The base environment owns the engine, the
// robot, and the camera. It loads and tracks task objects, renders
// observations, decodes and executes actions, computes rewards, and
// provides the predicates that tasks build their success checks from.
//
// Tasks implement Reset by calling ResetWith with a function that
// generates their objects, and register their success check with
// SetTermination.
package manipulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/environment"
	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/logging"
	"github.com/samuelfneumann/helpinghands/objects"
	"github.com/samuelfneumann/helpinghands/robots"
	"github.com/samuelfneumann/helpinghands/sensor"
	"github.com/samuelfneumann/helpinghands/simulator"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"github.com/samuelfneumann/helpinghands/urdf"
	"github.com/samuelfneumann/helpinghands/utils/tensorutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
	"gorgonia.org/tensor"
)

const (
	// MaxResetAttempts bounds the number of times a reset is retried
	// after object placement fails
	MaxResetAttempts = 100

	// waitSteps is the number of simulation steps taken after every
	// action so that released objects come to rest
	waitSteps = 100

	// Camera placement above the workspace
	cameraHeight = 10.0
	cameraNear   = 0.1
	cameraFar    = 10.0

	// workspacePadding is how far objects may leave the workspace
	// before the simulation is considered invalid
	workspacePadding = 0.05
)

// ErrResetFailed is returned when no valid object placement is found in
// MaxResetAttempts resets
var ErrResetFailed = errors.New("reset failed")

// Env is the base manipulation environment
type Env struct {
	Engine simulator.Engine
	Robot  *robots.Robot
	Sensor *sensor.Sensor
	Logger logging.Logger

	config envconfig.Config
	src    rand.Source

	planeID simulator.BodyID
	objects []*objects.Object

	episodes  int
	hardReset bool

	// heightmap is the last rendered heightmap, inHand the image of the
	// held object
	heightmap *tensor.Dense
	inHand    *tensor.Dense

	graspConstraint *simulator.ConstraintID

	terminate func() (bool, error)
	stepsLeft func() (int, error)
	succeeded bool
	enders    []environment.Ender

	currentTimeStep ts.TimeStep
}

// New returns a base environment over engine. The configuration is
// validated, the plane and robot are loaded, and the camera is centred
// over the workspace. Tasks must call SetTermination before stepping.
func New(config envconfig.Config, engine simulator.Engine,
	logger logging.Logger) (*Env, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if logger == nil {
		logger = logging.NoOp{}
	}

	robot, err := robots.New(engine, config.Robot)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	cx, cy, cz := config.WorkspaceCentre()
	cam := sensor.New(engine,
		r3.Vec{X: cx, Y: cy, Z: cameraHeight},
		r3.Vec{X: -1},
		r3.Vec{X: cx, Y: cy, Z: cz},
		config.WorkspaceSize(), cameraNear, cameraFar)

	src := rand.NewSource(config.Seed)
	e := &Env{
		Engine: engine,
		Robot:  robot,
		Sensor: cam,
		Logger: logger,
		config: config,
		src:    src,
		terminate: func() (bool, error) {
			return false, nil
		},
	}
	e.stepsLeft = e.remainingSteps

	e.enders = []environment.Ender{
		environment.NewFunctionEnder(func() (bool, error) {
			return e.succeeded, nil
		}, ts.TerminalStateReached),
		environment.NewIntervalLimit(e.validBounds(), e.checkedPositions,
			ts.Invalid),
		environment.NewStepLimit(config.MaxSteps),
	}

	if err := e.initialize(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	return e, nil
}

// initialize resets the engine and loads the plane and robot
func (e *Env) initialize() error {
	if err := e.Engine.ResetSimulation(); err != nil {
		return err
	}
	params, err := e.config.PhysicsMode.Params()
	if err != nil {
		return err
	}
	if err := e.Engine.SetPhysics(params); err != nil {
		return err
	}

	e.planeID, err = e.Engine.LoadURDF(urdf.Path("plane.urdf"),
		simulator.LoadOptions{UseFixedBase: true})
	if err != nil {
		return err
	}
	if err := e.Robot.Initialize(); err != nil {
		return err
	}

	e.objects = nil
	e.graspConstraint = nil
	return nil
}

// Config returns the configuration of the environment
func (e *Env) Config() envconfig.Config {
	return e.config
}

// Source returns the random source shared by everything sampled in the
// environment
func (e *Env) Source() rand.Source {
	return e.src
}

// PlaneID returns the engine handle of the ground plane
func (e *Env) PlaneID() simulator.BodyID {
	return e.planeID
}

// Objects returns the task objects in the order they were generated
func (e *Env) Objects() []*objects.Object {
	return e.objects
}

// ObjectsOfShape returns the task objects of the given shape
func (e *Env) ObjectsOfShape(shape objects.Shape) []*objects.Object {
	var objs []*objects.Object
	for _, obj := range e.objects {
		if obj.Shape() == shape {
			objs = append(objs, obj)
		}
	}
	return objs
}

// Episodes returns the number of episodes started
func (e *Env) Episodes() int {
	return e.episodes
}

// WasHardReset returns whether the last reset reloaded the engine.
// Equipment loaded by a task must then be loaded again.
func (e *Env) WasHardReset() bool {
	return e.hardReset
}

// Heightmap returns the last rendered heightmap
func (e *Env) Heightmap() *tensor.Dense {
	return e.heightmap
}

// CurrentTimeStep returns the current timestep
func (e *Env) CurrentTimeStep() ts.TimeStep {
	return e.currentTimeStep
}

// StepsTaken returns the number of steps taken in the current episode
func (e *Env) StepsTaken() int {
	return e.currentTimeStep.Number
}

// SetTermination sets the success check of the task
func (e *Env) SetTermination(f func() (bool, error)) {
	e.terminate = f
}

// CheckTermination runs the success check of the task
func (e *Env) CheckTermination() (bool, error) {
	return e.terminate()
}

// SetStepsLeft sets the function that reports how many steps the task
// still needs, used by the step_left reward. By default it reports the
// steps remaining before the episode times out.
func (e *Env) SetStepsLeft(f func() (int, error)) {
	e.stepsLeft = f
}

func (e *Env) remainingSteps() (int, error) {
	return e.config.MaxSteps - e.currentTimeStep.Number, nil
}

// ResetBase starts a new episode. Every HardResetFreq episodes the
// engine is reset and the plane and robot reloaded. Otherwise the
// task objects are removed and the robot sent home.
func (e *Env) ResetBase() error {
	e.hardReset = e.episodes%e.config.HardResetFreq == 0
	e.episodes++
	if err := e.reset(e.hardReset); err != nil {
		return fmt.Errorf("resetBase: %v", err)
	}
	return nil
}

func (e *Env) reset(hard bool) error {
	if err := e.releaseGrasp(); err != nil {
		return err
	}

	if hard {
		e.Logger.Debug("hard reset", "episode", e.episodes)
		if err := e.initialize(); err != nil {
			return err
		}
	} else {
		if err := e.removeObjects(); err != nil {
			return err
		}
		if err := e.Robot.Reset(); err != nil {
			return err
		}
	}

	e.succeeded = false
	e.heightmap = nil
	e.inHand = tensorutils.Zeros(e.config.InHandSize, e.config.InHandSize)
	e.currentTimeStep = ts.TimeStep{}
	return nil
}

func (e *Env) removeObjects() error {
	for _, obj := range e.objects {
		if err := obj.Remove(); err != nil {
			return err
		}
	}
	e.objects = nil
	return nil
}

// ResetWith resets the environment and calls generate to load the task
// objects. If generate fails with simulator.ErrNoValidPosition the
// objects are removed and generate is retried, at most
// MaxResetAttempts times.
func (e *Env) ResetWith(generate func() error) (ts.TimeStep, error) {
	if err := e.ResetBase(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("resetWith: %v", err)
	}

	for attempt := 1; ; attempt++ {
		err := generate()
		if err == nil {
			break
		}
		if !errors.Is(err, simulator.ErrNoValidPosition) {
			return ts.TimeStep{}, fmt.Errorf("resetWith: %v", err)
		}
		if attempt >= MaxResetAttempts {
			return ts.TimeStep{}, fmt.Errorf("resetWith: %w after %d "+
				"attempts: %v", ErrResetFailed, attempt, err)
		}

		e.Logger.Debug("retrying reset", "episode", e.episodes,
			"attempt", attempt, "err", err)
		if err := e.reset(false); err != nil {
			return ts.TimeStep{}, fmt.Errorf("resetWith: %v", err)
		}
	}

	obs, err := e.Observation()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("resetWith: %v", err)
	}
	e.currentTimeStep = ts.New(ts.First, 0, e.config.Discount, obs, 0)
	if err := e.render(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("resetWith: %v", err)
	}
	return e.currentTimeStep, nil
}

// Wait steps the simulation n times
func (e *Env) Wait(n int) error {
	for i := 0; i < n; i++ {
		if err := e.Engine.StepSimulation(); err != nil {
			return fmt.Errorf("wait: %v", err)
		}
	}
	return nil
}

// validBounds returns the region objects must stay in
func (e *Env) validBounds() [3]r1.Interval {
	ws := e.config.Workspace
	return [3]r1.Interval{
		{Min: ws[0].Min - workspacePadding, Max: ws[0].Max + workspacePadding},
		{Min: ws[1].Min - workspacePadding, Max: ws[1].Max + workspacePadding},
		{Min: math.Inf(-1), Max: math.Inf(1)},
	}
}

// checkedPositions returns the points of unheld objects that must lie
// inside the workspace: object positions for point checks and the
// corners of object footprints for box checks
func (e *Env) checkedPositions() ([]r3.Vec, error) {
	var points []r3.Vec
	for _, obj := range e.objects {
		if e.IsObjectHeld(obj) {
			continue
		}
		pose, err := obj.Pose()
		if err != nil {
			return nil, err
		}
		if e.config.WorkspaceCheck == envconfig.Point {
			points = append(points, pose.Position)
			continue
		}

		h := obj.HalfExtents()
		for _, corner := range []r3.Vec{
			{X: h.X, Y: h.Y}, {X: h.X, Y: -h.Y},
			{X: -h.X, Y: h.Y}, {X: -h.X, Y: -h.Y},
		} {
			points = append(points, pose.Apply(corner))
		}
	}
	return points, nil
}

// IsSimValid returns whether every unheld object is inside the
// workspace
func (e *Env) IsSimValid() (bool, error) {
	points, err := e.checkedPositions()
	if err != nil {
		return false, fmt.Errorf("isSimValid: %v", err)
	}
	bounds := e.validBounds()
	for _, p := range points {
		if !environment.Inside(bounds, p) {
			return false, nil
		}
	}
	return true, nil
}

// Close releases the engine
func (e *Env) Close() error {
	return e.Engine.Close()
}
