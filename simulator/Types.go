package simulator

import (
	"errors"
	"fmt"

	"github.com/samuelfneumann/helpinghands/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// BodyID is an engine-assigned handle of a loaded model
type BodyID int

// ConstraintID is an engine-assigned handle of a constraint
type ConstraintID int

// AnyBody matches every body in contact queries
const AnyBody BodyID = -1

// BaseLink is the link index of a body's base
const BaseLink = -1

// Sentinel errors returned by engines and the code built on them
var (
	ErrNoValidPosition = errors.New("no valid position")
	ErrUnknownBody     = errors.New("unknown body")
	ErrUnknownJoint    = errors.New("unknown joint")
	ErrUnknownLink     = errors.New("unknown link")
)

// JointType determines how a joint moves its child link
type JointType int

const (
	Revolute JointType = iota
	Prismatic
	Fixed
)

func (j JointType) String() string {
	switch j {
	case Revolute:
		return "Revolute"
	case Prismatic:
		return "Prismatic"
	default:
		return "Fixed"
	}
}

// JointInfo describes a single joint. Joint indices equal the index of
// the child link of the joint.
type JointInfo struct {
	Index       int
	Name        string
	LinkName    string
	Parent      int
	Type        JointType
	Axis        r3.Vec
	Lower       float64
	Upper       float64
	MaxVelocity float64
}

// Movable returns whether the joint has a degree of freedom
func (j JointInfo) Movable() bool {
	return j.Type != Fixed
}

// JointState is the current state of a joint
type JointState struct {
	Position float64
	Velocity float64
}

// LinkState is the world frame of a link
type LinkState struct {
	WorldPosition    r3.Vec
	WorldOrientation geometry.Quaternion
}

// Pose returns the world pose of the link frame
func (l LinkState) Pose() geometry.Pose {
	return geometry.NewPose(l.WorldPosition, l.WorldOrientation)
}

// ContactPoint is a single contact between two bodies. Distance is
// negative for penetration.
type ContactPoint struct {
	BodyA       BodyID
	BodyB       BodyID
	LinkA       int
	LinkB       int
	PositionOnA r3.Vec
	Distance    float64
}

// LoadOptions configures how a URDF model is loaded
type LoadOptions struct {
	Position      r3.Vec
	Orientation   geometry.Quaternion
	GlobalScaling float64
	UseFixedBase  bool
}

// NewLoadOptions returns options to load a free body at pose with the
// given scaling.
func NewLoadOptions(pose geometry.Pose, scale float64) LoadOptions {
	return LoadOptions{
		Position:      pose.Position,
		Orientation:   pose.Orientation,
		GlobalScaling: scale,
	}
}

// Constraint is a fixed joint between a link of a parent body and a
// link of a child body.
type Constraint struct {
	Parent      BodyID
	ParentLink  int
	Child       BodyID
	ChildLink   int
	ParentFrame geometry.Pose
	ChildFrame  geometry.Pose
}

// CameraImage is a rendered image. Depth holds the non-linear depth
// buffer in [0, 1], row-major with row 0 at the top of the image.
// Segmentation holds the body rendered at each pixel, or -1.
type CameraImage struct {
	Width        int
	Height       int
	Depth        []float64
	Segmentation []int
}

// PhysicsParams are the engine stepping parameters
type PhysicsParams struct {
	TimeStep         float64
	SolverIterations int
	Gravity          r3.Vec
}

// PhysicsMode names a set of physics parameters
type PhysicsMode string

const (
	PhysicsFast PhysicsMode = "fast"
	PhysicsSlow PhysicsMode = "slow"
)

// Params returns the physics parameters of the mode
func (m PhysicsMode) Params() (PhysicsParams, error) {
	gravity := r3.Vec{Z: -10}
	switch m {
	case PhysicsFast:
		return PhysicsParams{
			TimeStep:         1.0 / 240.0,
			SolverIterations: 50,
			Gravity:          gravity,
		}, nil

	case PhysicsSlow:
		return PhysicsParams{
			TimeStep:         1.0 / 240.0,
			SolverIterations: 200,
			Gravity:          gravity,
		}, nil
	}
	return PhysicsParams{}, fmt.Errorf("params: no such physics mode %q", m)
}
