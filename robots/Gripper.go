package robots

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// Gripper is the hardware-specific part of a robot
type Gripper interface {
	OpenGripper() error

	// CloseGripper closes the gripper, stepping the simulation at most
	// maxIt times, and reports whether it closed fully on nothing
	CloseGripper(maxIt int, p Primitive) (bool, error)

	// CheckGripperClosed drops the held object if the gripper has
	// closed on nothing
	CheckGripperClosed() error

	// AdjustGripperCommand re-commands the gripper to squeeze slightly
	// tighter than it is now
	AdjustGripperCommand() error

	// GripperJointPosition returns the positions of the finger joints
	GripperJointPosition() ([]float64, error)

	// SendPositionCommand sets position targets for the arm joints
	SendPositionCommand(q []float64) error

	// CalculateIK returns arm joint positions placing the end effector
	// at pos with orientation rot
	CalculateIK(pos r3.Vec, rot geometry.Quaternion) ([]float64, error)
}

const (
	// maxGripperIt bounds the steps taken to open or close the gripper
	maxGripperIt = 100

	// closedTol is the distance from the closed limit below which the
	// gripper holds nothing
	closedTol = 2e-3

	// stallTol is the finger motion per step below which the fingers
	// are blocked
	stallTol = 1e-4
)

// parallelJaw is a two-finger gripper whose fingers slide towards each
// other along the end effector's y axis
type parallelJaw struct {
	robot   *Robot
	fingers [2]int
	closed  float64
	open    float64
}

func (g *parallelJaw) initialize(joints map[string]int) error {
	for i, name := range g.robot.model.fingers {
		j, ok := joints[name]
		if !ok {
			return fmt.Errorf("model %v has no finger joint %v",
				g.robot.model.path, name)
		}
		g.fingers[i] = j
	}
	info, err := g.robot.engine.JointInfo(g.robot.id, g.fingers[0])
	if err != nil {
		return err
	}
	g.closed, g.open = info.Lower, info.Upper
	return nil
}

// resetOpen teleports the fingers open
func (g *parallelJaw) resetOpen() error {
	for _, f := range g.fingers {
		if err := g.robot.engine.ResetJointState(g.robot.id, f, g.open); err != nil {
			return err
		}
	}
	return g.command(g.open, g.robot.PositionGain)
}

func (g *parallelJaw) command(target, gain float64) error {
	r := g.robot
	return r.engine.SetJointTargets(r.id, g.fingers[:],
		[]float64{target, target}, gain)
}

// force returns the controller gain used to close for primitive p.
// Pushing and pulling need a firmer hold than picking.
func (g *parallelJaw) force(p Primitive) float64 {
	if p == Push || p == Pull {
		return 1
	}
	return g.robot.PositionGain
}

func (g *parallelJaw) OpenGripper() error {
	if err := g.command(g.open, g.robot.PositionGain); err != nil {
		return fmt.Errorf("openGripper: %v", err)
	}
	g.robot.GripperClosed = false

	for it := 0; it < maxGripperIt; it++ {
		q, err := g.GripperJointPosition()
		if err != nil {
			return fmt.Errorf("openGripper: %v", err)
		}
		if math.Abs(q[0]-g.open) < closedTol && math.Abs(q[1]-g.open) < closedTol {
			return nil
		}
		if err := g.robot.engine.StepSimulation(); err != nil {
			return fmt.Errorf("openGripper: %v", err)
		}
	}
	return nil
}

func (g *parallelJaw) CloseGripper(maxIt int, p Primitive) (bool, error) {
	if err := g.command(g.closed, g.force(p)); err != nil {
		return false, fmt.Errorf("closeGripper: %v", err)
	}
	g.robot.GripperClosed = true

	prev, err := g.GripperJointPosition()
	if err != nil {
		return false, fmt.Errorf("closeGripper: %v", err)
	}
	for it := 0; ; it++ {
		if g.fullyClosed(prev) {
			return true, nil
		}
		if err := g.robot.engine.StepSimulation(); err != nil {
			return false, fmt.Errorf("closeGripper: %v", err)
		}
		q, err := g.GripperJointPosition()
		if err != nil {
			return false, fmt.Errorf("closeGripper: %v", err)
		}

		stalled := math.Abs(q[0]-prev[0]) < stallTol &&
			math.Abs(q[1]-prev[1]) < stallTol
		if it >= maxIt || (stalled && !g.fullyClosed(q)) {
			// Hold the fingers where they stopped
			return false, g.AdjustGripperCommand()
		}
		prev = q
	}
}

func (g *parallelJaw) fullyClosed(q []float64) bool {
	return q[0]-g.closed < closedTol && q[1]-g.closed < closedTol
}

func (g *parallelJaw) CheckGripperClosed() error {
	q, err := g.GripperJointPosition()
	if err != nil {
		return fmt.Errorf("checkGripperClosed: %v", err)
	}
	if g.fullyClosed(q) {
		g.robot.HoldingObj = nil
	}
	return nil
}

func (g *parallelJaw) AdjustGripperCommand() error {
	q, err := g.GripperJointPosition()
	if err != nil {
		return fmt.Errorf("adjustGripperCommand: %v", err)
	}
	mean := (q[0]+q[1])/2 - 0.001
	if err := g.command(math.Max(mean, g.closed), g.robot.PositionGain); err != nil {
		return fmt.Errorf("adjustGripperCommand: %v", err)
	}
	return nil
}

func (g *parallelJaw) GripperJointPosition() ([]float64, error) {
	r := g.robot
	q := make([]float64, len(g.fingers))
	for i, f := range g.fingers {
		state, err := r.engine.JointState(r.id, f)
		if err != nil {
			return nil, err
		}
		q[i] = state.Position
	}
	return q, nil
}

func (g *parallelJaw) SendPositionCommand(q []float64) error {
	r := g.robot
	if len(q) != len(r.armJoints) {
		return fmt.Errorf("sendPositionCommand: have %v positions for %v "+
			"joints", len(q), len(r.armJoints))
	}
	return r.engine.SetJointTargets(r.id, r.armJoints, q, r.PositionGain)
}

func (g *parallelJaw) CalculateIK(pos r3.Vec,
	rot geometry.Quaternion) ([]float64, error) {
	r := g.robot
	q, err := r.engine.CalculateIK(r.id, r.endEffector, pos, rot)
	if err != nil {
		return nil, fmt.Errorf("calculateIK: %v", err)
	}
	if len(q) < len(r.armJoints) {
		return nil, fmt.Errorf("calculateIK: have %v joint positions for %v "+
			"arm joints", len(q), len(r.armJoints))
	}
	return q[:len(r.armJoints)], nil
}
