// Package simulator outlines the rigid-body physics engine that all
// manipulation environments are built on. The engine is consumed as a
// black box: dynamics, contact resolution, constraint solving,
// inverse kinematics, and rendering all happen behind the Engine
// interface. Concrete environments only load models, step the
// simulation, and query or command bodies through it.
package simulator

import (
	"github.com/samuelfneumann/helpinghands/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// Engine implements a rigid-body physics simulation. All calls are
// synchronous and blocking.
type Engine interface {
	// ResetSimulation removes every body and constraint
	ResetSimulation() error
	SetPhysics(p PhysicsParams) error
	StepSimulation() error

	// LoadURDF loads the URDF model at path, which is resolved against
	// the engine's asset root.
	LoadURDF(path string, opts LoadOptions) (BodyID, error)
	RemoveBody(id BodyID) error

	NumJoints(id BodyID) (int, error)
	JointInfo(id BodyID, joint int) (JointInfo, error)
	JointState(id BodyID, joint int) (JointState, error)
	ResetJointState(id BodyID, joint int, position float64) error

	// SetJointTargets sets position-control targets for the given
	// joints. Joints move toward their targets as the simulation steps.
	SetJointTargets(id BodyID, joints []int, targets []float64,
		gain float64) error

	BasePose(id BodyID) (geometry.Pose, error)
	ResetBasePose(id BodyID, pose geometry.Pose) error
	LinkState(id BodyID, link int) (LinkState, error)

	// ContactPoints returns the contact points between a and b. If b
	// is AnyBody, contacts of a with every other body are returned.
	ContactPoints(a, b BodyID) ([]ContactPoint, error)

	CreateConstraint(c Constraint) (ConstraintID, error)
	RemoveConstraint(id ConstraintID) error

	// CalculateIK returns joint positions for all movable joints of
	// body that put link at the given position and orientation.
	CalculateIK(id BodyID, link int, pos r3.Vec,
		orn geometry.Quaternion) ([]float64, error)

	// CameraImage renders the scene with the given column-major view
	// and projection matrices.
	CameraImage(width, height int, view, proj [16]float64) (CameraImage, error)

	Close() error
}
