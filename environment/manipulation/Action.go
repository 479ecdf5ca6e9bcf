package manipulation

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/render"
	"github.com/samuelfneumann/helpinghands/robots"
	"github.com/samuelfneumann/helpinghands/simulator"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"github.com/samuelfneumann/helpinghands/utils/tensorutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// Approach offsets of the motion primitives
	pickOffset  = 0.1
	placeOffset = 0.1
	pushOffset  = 0.1
	pullOffset  = 0.15

	// regionHalfWidth is the half width of the heightmap window used to
	// choose primitive heights
	regionHalfWidth = 0.025

	// Primitive height margins
	pickDepth      = 0.01
	minPickHeight  = 0.02
	placeClearance = 0.02

	// stepPenalty is the per-step cost of the dense reward
	stepPenalty = 0.01
)

// Action is a decoded action
type Action struct {
	Primitive robots.Primitive
	Position  r3.Vec

	// Rotation is the yaw of the gripper
	Rotation float64
}

func (a Action) String() string {
	return fmt.Sprintf("%v(%.3f, %.3f, %.3f, %.3f)", a.Primitive,
		a.Position.X, a.Position.Y, a.Position.Z, a.Rotation)
}

// DecodeAction decodes an action vector ordered by the configured
// action sequence. Without a primitive, the robot picks when its
// gripper is empty and places otherwise. Without a height, the height
// is chosen from the heightmap around the action position. Without a
// rotation, the gripper is not rotated.
func (e *Env) DecodeAction(action mat.Vector) (Action, error) {
	seq := e.config.ActionSequence
	if action.Len() != len(seq) {
		return Action{}, fmt.Errorf("decodeAction: action has %d elements, "+
			"action sequence %q needs %d", action.Len(), seq, len(seq))
	}
	at := func(c rune) (float64, bool) {
		i := strings.IndexRune(seq, c)
		if i < 0 {
			return 0, false
		}
		return action.AtVec(i), true
	}

	var a Action
	if p, ok := at('p'); ok {
		primitive := robots.Primitive(math.Round(p))
		if primitive < robots.Pick || primitive > robots.Pull {
			return Action{}, fmt.Errorf("decodeAction: no primitive %v", p)
		}
		a.Primitive = primitive
	} else if e.IsHolding() {
		a.Primitive = robots.Place
	} else {
		a.Primitive = robots.Pick
	}

	a.Position.X, _ = at('x')
	a.Position.Y, _ = at('y')
	a.Rotation, _ = at('r')

	if z, ok := at('z'); ok {
		a.Position.Z = z
	} else {
		z, err := e.PrimitiveHeight(a.Primitive, a.Position.X, a.Position.Y)
		if err != nil {
			return Action{}, fmt.Errorf("decodeAction: %v", err)
		}
		a.Position.Z = z
	}
	return a, nil
}

// PrimitiveHeight returns the end effector height for primitive p at
// (x, y), from the highest point of the heightmap around (x, y). Picks
// reach into the top of the object there. Places clear it by the
// height of the held object.
func (e *Env) PrimitiveHeight(p robots.Primitive, x, y float64) (float64,
	error) {
	region, err := e.LocalRegion(x, y, regionHalfWidth)
	if err != nil {
		return 0, fmt.Errorf("primitiveHeight: %v", err)
	}
	top := tensorutils.Max(region)
	floor := e.config.Workspace[2].Min

	if p == robots.Place {
		held := 0.0
		if e.Robot.HoldingObj != nil {
			held = e.Robot.HoldingObj.Height()
		}
		return floor + top + placeClearance + held, nil
	}
	return floor + math.Max(top-pickDepth, minPickHeight), nil
}

// TakeAction executes a decoded action with the robot and waits for
// the simulation to settle
func (e *Env) TakeAction(a Action) error {
	dynamic := !e.config.FastMode
	rot := geometry.FromEuler(0, 0, a.Rotation)

	var err error
	switch a.Primitive {
	case robots.Pick:
		err = e.pick(a, rot, dynamic)

	case robots.Place:
		err = e.place(a, rot, dynamic)

	case robots.Push:
		err = e.Robot.Push(a.Position, rot, pushOffset, dynamic)

	case robots.Pull:
		// Pull horizontally with the gripper pointing along -x of the
		// rotated frame. Half turn rotations always pull towards the
		// robot.
		yaw := a.Rotation
		if e.config.HalfRotation && yaw > math.Pi/2 {
			yaw -= math.Pi
		}
		rot = geometry.FromEuler(0, -math.Pi/2, yaw)
		err = e.Robot.Pull(a.Position, rot, pullOffset, dynamic)

	default:
		err = fmt.Errorf("no primitive %v", a.Primitive)
	}
	if err != nil {
		return fmt.Errorf("takeAction: %v: %v", a, err)
	}

	if err := e.Wait(waitSteps); err != nil {
		return fmt.Errorf("takeAction: %v", err)
	}
	return nil
}

func (e *Env) pick(a Action, rot geometry.Quaternion, dynamic bool) error {
	if e.heightmap == nil {
		if _, err := e.Observation(); err != nil {
			return err
		}
	}
	inHand, err := e.inHandImage(a.Position.X, a.Position.Y, a.Rotation)
	if err != nil {
		return err
	}

	err = e.Robot.Pick(a.Position, rot, pickOffset, robots.PickOptions{
		Dynamic:       dynamic,
		Objects:       e.objects,
		SimulateGrasp: e.config.SimulateGrasp,
	})
	if err != nil {
		return err
	}

	if e.Robot.HoldingObj == nil && e.config.PerfectGrasp {
		if err := e.perfectGrasp(a.Position, rot); err != nil {
			return err
		}
	}
	if e.Robot.HoldingObj != nil {
		e.inHand = inHand
	}
	return nil
}

// perfectGrasp attaches the object between the fingers at the grasp
// pose to the end effector with a fixed constraint
func (e *Env) perfectGrasp(pos r3.Vec, rot geometry.Quaternion) error {
	grasp := geometry.NewPose(pos, rot)
	for _, obj := range e.objects {
		pose, err := obj.Pose()
		if err != nil {
			return err
		}
		rel := geometry.Relative(grasp, pose)
		h := obj.HalfExtents()
		reach := math.Hypot(h.X, h.Y)
		if math.Hypot(rel.Position.X, rel.Position.Y) > reach ||
			math.Abs(rel.Position.Z) > h.Z+pickDepth {
			continue
		}

		id, err := e.Engine.CreateConstraint(simulator.Constraint{
			Parent:      e.Robot.ID(),
			ParentLink:  e.Robot.EndEffectorLink(),
			Child:       obj.ID(),
			ChildLink:   simulator.BaseLink,
			ParentFrame: rel,
			ChildFrame:  geometry.IdentityPose(),
		})
		if err != nil {
			return err
		}
		e.graspConstraint = &id
		e.Robot.HoldingObj = obj
		e.Logger.Debug("perfect grasp", "object", obj)
		return e.Engine.StepSimulation()
	}
	return nil
}

func (e *Env) place(a Action, rot geometry.Quaternion, dynamic bool) error {
	if e.graspConstraint != nil {
		// Carry the constrained object to the place pose before
		// releasing it
		if err := e.Robot.MoveTo(a.Position, rot, dynamic, robots.DefaultTol,
			robots.DefaultTol); err != nil {
			return err
		}
		if err := e.releaseGrasp(); err != nil {
			return err
		}
	}

	err := e.Robot.Place(a.Position, rot, placeOffset, robots.PlaceOptions{
		Dynamic:       dynamic,
		SimulateGrasp: e.config.SimulateGrasp,
	})
	if err != nil {
		return err
	}
	e.inHand = tensorutils.Zeros(e.config.InHandSize, e.config.InHandSize)
	return nil
}

// releaseGrasp removes the constraint of a perfect grasp
func (e *Env) releaseGrasp() error {
	if e.graspConstraint == nil {
		return nil
	}
	id := *e.graspConstraint
	e.graspConstraint = nil
	if err := e.Engine.RemoveConstraint(id); err != nil {
		return fmt.Errorf("releaseGrasp: %v", err)
	}
	return nil
}

// Step takes one environmental step given some action
func (e *Env) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	a, err := e.DecodeAction(action)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %v", err)
	}
	if err := e.TakeAction(a); err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %v", err)
	}

	obs, err := e.Observation()
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %v", err)
	}
	e.succeeded, err = e.terminate()
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not check "+
			"termination: %v", err)
	}

	t := ts.New(ts.Mid, 0, e.config.Discount, obs,
		e.currentTimeStep.Number+1)
	e.currentTimeStep = t
	t.Reward, err = e.reward()
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %v", err)
	}

	done := false
	for _, ender := range e.enders {
		end, err := ender.End(&t)
		if err != nil {
			return ts.TimeStep{}, true, fmt.Errorf("step: %v", err)
		}
		done = done || end
	}
	e.currentTimeStep = t

	if err := e.render(); err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %v", err)
	}
	return t, done, nil
}

// reward returns the reward of the current step
func (e *Env) reward() (float64, error) {
	sparse := 0.0
	if e.succeeded {
		sparse = 1
	}

	switch e.config.RewardType {
	case envconfig.StepLeft:
		if e.succeeded {
			return 0, nil
		}
		left, err := e.stepsLeft()
		if err != nil {
			return 0, fmt.Errorf("reward: %v", err)
		}
		return -float64(left), nil

	case envconfig.Dense:
		return sparse - stepPenalty, nil
	}
	return sparse, nil
}

// render saves the current observation when rendering is enabled
func (e *Env) render() error {
	if !e.config.Render {
		return nil
	}
	name := fmt.Sprintf("episode_%04d_step_%03d.png", e.episodes,
		e.currentTimeStep.Number)
	return render.Observation(e.currentTimeStep.Observation,
		filepath.Join(e.config.OutDir, name))
}
