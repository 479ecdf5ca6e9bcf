package robots

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/utils/floatutils"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// jointTol is the tolerance on each arm joint for a joint pose to
	// be reached
	jointTol = 1e-2

	// maxJointIt bounds the steps taken to reach a joint pose
	maxJointIt = 1000

	// stallWindow is the number of past joint poses inspected to detect
	// an arm that can get no closer to its target
	stallWindow   = 5
	stallJointTol = 1e-3

	maxOuterIt = 10
	maxInnerIt = 100

	// DefaultTol is the default Cartesian position and rotation
	// tolerance of MoveTo
	DefaultTol = 1e-3
)

// MoveTo moves the end effector to pos with orientation rot. Unless
// dynamic is set, a held object is teleported along with the arm.
func (r *Robot) MoveTo(pos r3.Vec, rot geometry.Quaternion, dynamic bool,
	posTol, rotTol float64) error {
	if dynamic || r.HoldingObj == nil {
		return r.moveToCartesianPose(pos, rot, dynamic, posTol, rotTol)
	}
	return r.teleportWithObj(func() error {
		return r.moveToCartesianPose(pos, rot, false, posTol, rotTol)
	})
}

// MoveToJ moves the arm joints to q. Unless dynamic is set, a held
// object is teleported along with the arm.
func (r *Robot) MoveToJ(q []float64, dynamic bool) error {
	if dynamic || r.HoldingObj == nil {
		return r.moveToJointPose(q, dynamic, maxJointIt)
	}
	return r.teleportWithObj(func() error {
		return r.moveToJointPose(q, false, maxJointIt)
	})
}

// moveToJointPose commands the arm to target. If dynamic, the
// simulation steps until the arm arrives, maxIt steps pass, or the arm
// stops moving; otherwise the joints are teleported.
func (r *Robot) moveToJointPose(target []float64, dynamic bool,
	maxIt int) error {
	if !dynamic {
		if err := r.setJointPoses(target); err != nil {
			return fmt.Errorf("moveToJointPose: %v", err)
		}
		return nil
	}

	if err := r.SendPositionCommand(target); err != nil {
		return fmt.Errorf("moveToJointPose: %v", err)
	}
	q, err := r.JointPositions()
	if err != nil {
		return fmt.Errorf("moveToJointPose: %v", err)
	}

	var past [][]float64
	for it := 0; it < maxIt && !floatutils.AllClose(q, target, jointTol); it++ {
		if err := r.engine.StepSimulation(); err != nil {
			return fmt.Errorf("moveToJointPose: %v", err)
		}
		if len(past) == stallWindow && stalled(past) {
			break
		}

		past = append(past, q)
		if len(past) > stallWindow {
			past = past[1:]
		}
		if q, err = r.JointPositions(); err != nil {
			return fmt.Errorf("moveToJointPose: %v", err)
		}
	}
	return nil
}

// stalled returns whether every joint pose in past is close to the
// last one
func stalled(past [][]float64) bool {
	last := past[len(past)-1]
	for _, q := range past {
		if !floatutils.AllClose(q, last, stallJointTol) {
			return false
		}
	}
	return true
}

func (r *Robot) moveToCartesianPose(pos r3.Vec, rot geometry.Quaternion,
	dynamic bool, posTol, rotTol float64) error {
	for it := 0; it < maxOuterIt; it++ {
		q, err := r.CalculateIK(pos, rot)
		if err != nil {
			return fmt.Errorf("moveToCartesianPose: %v", err)
		}
		if err := r.moveToJointPose(q, dynamic, maxInnerIt); err != nil {
			return fmt.Errorf("moveToCartesianPose: %v", err)
		}

		ee, err := r.EndEffectorPose()
		if err != nil {
			return fmt.Errorf("moveToCartesianPose: %v", err)
		}
		if geometry.PositionClose(ee.Position, pos, posTol) &&
			geometry.RotationClose(ee.Orientation, rot, rotTol) {
			return nil
		}
	}
	return nil
}

// setJointPoses teleports the arm joints to q and holds them there
func (r *Robot) setJointPoses(q []float64) error {
	if len(q) != len(r.armJoints) {
		return fmt.Errorf("setJointPoses: have %v positions for %v joints",
			len(q), len(r.armJoints))
	}
	for i, j := range r.armJoints {
		if err := r.engine.ResetJointState(r.id, j, q[i]); err != nil {
			return fmt.Errorf("setJointPoses: %v", err)
		}
	}
	return r.SendPositionCommand(q)
}

// teleportWithObj runs move and then re-poses the held object so that
// it keeps its pose relative to the end effector
func (r *Robot) teleportWithObj(move func() error) error {
	rel, err := r.endToHoldingObj()
	if err != nil {
		return fmt.Errorf("teleportWithObj: %v", err)
	}
	if err := move(); err != nil {
		return err
	}
	end, err := r.EndEffectorPose()
	if err != nil {
		return fmt.Errorf("teleportWithObj: %v", err)
	}
	if err := r.HoldingObj.ResetPose(end.Mul(rel)); err != nil {
		return fmt.Errorf("teleportWithObj: %v", err)
	}
	return nil
}
