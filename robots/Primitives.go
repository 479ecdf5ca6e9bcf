package robots

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/objects"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// liftSteps is the number of steps the simulation settles after a
	// simulated grasp
	liftSteps = 100

	// pushBackoff is how far behind the push position the gripper
	// starts
	pushBackoff = 0.1

	roundPullWaypoints = 10
)

// PickOptions configures Pick
type PickOptions struct {
	// Dynamic simulates arm motion instead of teleporting
	Dynamic bool

	// Objects are the candidates for the picked object
	Objects []*objects.Object

	// SimulateGrasp closes the gripper in simulation before lifting
	SimulateGrasp bool

	// TopDownApproach approaches along world z rather than along the
	// end effector's z axis
	TopDownApproach bool
}

// PlaceOptions configures Place
type PlaceOptions struct {
	Dynamic         bool
	SimulateGrasp   bool
	TopDownApproach bool
}

// approach returns the pre-grasp position offset from pos
func approach(pos r3.Vec, rot geometry.Quaternion, offset float64,
	topDown bool) r3.Vec {
	if topDown {
		return r3.Add(pos, r3.Vec{Z: offset})
	}
	return r3.Add(pos, r3.Scale(offset, rot.Axis(2)))
}

// Pick grasps at pos with gripper orientation rot, approaching from
// offset away, and returns home. The held object is the first of
// opts.Objects in the gripper afterwards.
func (r *Robot) Pick(pos r3.Vec, rot geometry.Quaternion, offset float64,
	opts PickOptions) error {
	if err := r.OpenGripper(); err != nil {
		return fmt.Errorf("pick: %v", err)
	}
	pre := approach(pos, rot, offset, opts.TopDownApproach)

	if err := r.MoveTo(pre, rot, opts.Dynamic, DefaultTol, DefaultTol); err != nil {
		return fmt.Errorf("pick: %v", err)
	}
	if opts.SimulateGrasp {
		if err := r.simulateGrasp(pos, pre, rot); err != nil {
			return fmt.Errorf("pick: %v", err)
		}
	} else {
		if err := r.MoveTo(pos, rot, opts.Dynamic, DefaultTol, DefaultTol); err != nil {
			return fmt.Errorf("pick: %v", err)
		}
	}

	held, err := r.PickedObj(opts.Objects)
	if err != nil {
		return fmt.Errorf("pick: %v", err)
	}
	r.HoldingObj = held

	if err := r.MoveToJ(r.homeJoints, opts.Dynamic); err != nil {
		return fmt.Errorf("pick: %v", err)
	}
	if err := r.CheckGripperClosed(); err != nil {
		return fmt.Errorf("pick: %v", err)
	}
	return nil
}

// simulateGrasp moves down to pos, closes the gripper, and lifts back
// to pre
func (r *Robot) simulateGrasp(pos, pre r3.Vec, rot geometry.Quaternion) error {
	if err := r.MoveTo(pos, rot, true, DefaultTol, DefaultTol); err != nil {
		return err
	}

	fullyClosed, err := r.CloseGripper(maxGripperIt, Pick)
	if err != nil {
		return err
	}
	if fullyClosed {
		if err := r.OpenGripper(); err != nil {
			return err
		}
	}

	// Tightening after the lift gives more chance of a grasp, but the
	// object may shift in the gripper on the way up
	if r.AdjustGripperAfterLift {
		if err := r.MoveTo(pre, rot, true, DefaultTol, DefaultTol); err != nil {
			return err
		}
		if err := r.AdjustGripperCommand(); err != nil {
			return err
		}
	} else {
		if err := r.AdjustGripperCommand(); err != nil {
			return err
		}
		if err := r.MoveTo(pre, rot, true, DefaultTol, DefaultTol); err != nil {
			return err
		}
	}

	for i := 0; i < liftSteps; i++ {
		if err := r.engine.StepSimulation(); err != nil {
			return err
		}
	}
	return nil
}

// Place releases the held object at pos with gripper orientation rot
// and returns home
func (r *Robot) Place(pos r3.Vec, rot geometry.Quaternion, offset float64,
	opts PlaceOptions) error {
	pre := approach(pos, rot, offset, opts.TopDownApproach)

	if err := r.MoveTo(pre, rot, opts.Dynamic, DefaultTol, DefaultTol); err != nil {
		return fmt.Errorf("place: %v", err)
	}
	dynamic := opts.Dynamic || opts.SimulateGrasp
	if err := r.MoveTo(pos, rot, dynamic, DefaultTol, DefaultTol); err != nil {
		return fmt.Errorf("place: %v", err)
	}

	if err := r.OpenGripper(); err != nil {
		return fmt.Errorf("place: %v", err)
	}
	r.HoldingObj = nil

	if err := r.MoveTo(pre, rot, opts.Dynamic, DefaultTol, DefaultTol); err != nil {
		return fmt.Errorf("place: %v", err)
	}
	if err := r.MoveToJ(r.homeJoints, opts.Dynamic); err != nil {
		return fmt.Errorf("place: %v", err)
	}
	return nil
}

// Push closes the gripper as firmly as for a pull and sweeps it from
// behind pos through pos to offset past it, along the end effector's y
// axis
func (r *Robot) Push(pos r3.Vec, rot geometry.Quaternion, offset float64,
	dynamic bool) error {
	y := rot.Axis(1)
	goal := r3.Add(pos, r3.Scale(offset, y))
	pre := r3.Sub(pos, r3.Scale(pushBackoff, y))

	if _, err := r.CloseGripper(maxGripperIt, Pull); err != nil {
		return fmt.Errorf("push: %v", err)
	}
	for _, step := range []struct {
		pos     r3.Vec
		dynamic bool
	}{{pre, dynamic}, {pos, true}, {goal, true}} {
		if err := r.MoveTo(step.pos, rot, step.dynamic, DefaultTol,
			DefaultTol); err != nil {
			return fmt.Errorf("push: %v", err)
		}
	}

	if err := r.OpenGripper(); err != nil {
		return fmt.Errorf("push: %v", err)
	}
	if err := r.MoveToJ(r.homeJoints, dynamic); err != nil {
		return fmt.Errorf("push: %v", err)
	}
	return nil
}

// Pull grasps at pos and pulls back to offset along the end effector's
// z axis. The gripper is expected open already, as every primitive
// leaves it.
func (r *Robot) Pull(pos r3.Vec, rot geometry.Quaternion, offset float64,
	dynamic bool) error {
	pre := approach(pos, rot, offset, false)

	if err := r.MoveTo(pre, rot, dynamic, DefaultTol, DefaultTol); err != nil {
		return fmt.Errorf("pull: %v", err)
	}
	if err := r.MoveTo(pos, rot, true, DefaultTol, DefaultTol); err != nil {
		return fmt.Errorf("pull: %v", err)
	}
	if _, err := r.CloseGripper(maxGripperIt, Pull); err != nil {
		return fmt.Errorf("pull: %v", err)
	}
	if err := r.MoveTo(pre, rot, true, DefaultTol, DefaultTol); err != nil {
		return fmt.Errorf("pull: %v", err)
	}

	if err := r.OpenGripper(); err != nil {
		return fmt.Errorf("pull: %v", err)
	}
	if err := r.MoveToJ(r.homeJoints, dynamic); err != nil {
		return fmt.Errorf("pull: %v", err)
	}
	return nil
}

// RoundPull grasps at pos and pulls along a quarter circle of the given
// radius, turning left or right, rotating the gripper with the arc
func (r *Robot) RoundPull(pos r3.Vec, rot geometry.Quaternion, offset,
	radius float64, left, dynamic bool) error {
	pre := approach(pos, rot, offset, false)

	sign := 1.0
	if !left {
		sign = -1
	}
	waypoints := make([]geometry.Pose, roundPullWaypoints)
	for i := range waypoints {
		theta := math.Pi / 2 * float64(i) / float64(roundPullWaypoints-1)
		waypoints[i] = geometry.NewPose(
			r3.Vec{
				X: pos.X - math.Sin(theta)*radius,
				Y: pos.Y + sign*(1-math.Cos(theta))*radius,
				Z: pos.Z,
			},
			rot.Mul(geometry.FromEuler(0, sign*theta, 0)),
		)
	}

	if err := r.MoveTo(pre, rot, dynamic, DefaultTol, DefaultTol); err != nil {
		return fmt.Errorf("roundPull: %v", err)
	}
	if err := r.MoveTo(pos, rot, true, DefaultTol, DefaultTol); err != nil {
		return fmt.Errorf("roundPull: %v", err)
	}
	if _, err := r.CloseGripper(maxGripperIt, Pull); err != nil {
		return fmt.Errorf("roundPull: %v", err)
	}
	for _, w := range waypoints {
		if err := r.MoveTo(w.Position, w.Orientation, true, DefaultTol,
			DefaultTol); err != nil {
			return fmt.Errorf("roundPull: %v", err)
		}
	}

	if err := r.OpenGripper(); err != nil {
		return fmt.Errorf("roundPull: %v", err)
	}
	if err := r.MoveToJ(r.homeJoints, dynamic); err != nil {
		return fmt.Errorf("roundPull: %v", err)
	}
	return nil
}
