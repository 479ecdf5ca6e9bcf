// Package objects wraps the URDF objects that environments spawn into
// the physics engine: blocks, bricks, roofs, cups, bowls, plates, and
// household objects.
package objects

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/simulator"
	"gonum.org/v1/gonum/spatial/r3"
)

// Shape is the kind of an object
type Shape int

const (
	Cube Shape = iota
	Brick
	Cylinder
	Triangle
	Roof
	Cup
	Bowl
	Plate
	Spoon
	RandomBlock
	RandomHousehold
)

func (s Shape) String() string {
	switch s {
	case Cube:
		return "Cube"
	case Brick:
		return "Brick"
	case Cylinder:
		return "Cylinder"
	case Triangle:
		return "Triangle"
	case Roof:
		return "Roof"
	case Cup:
		return "Cup"
	case Bowl:
		return "Bowl"
	case Plate:
		return "Plate"
	case Spoon:
		return "Spoon"
	case RandomBlock:
		return "RandomBlock"
	case RandomHousehold:
		return "RandomHousehold"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// Object is a free body loaded into an engine
type Object struct {
	engine simulator.Engine
	id     simulator.BodyID
	shape  Shape
	path   string

	// half holds the scaled half extents of the object's bounding box
	// in its own frame
	half r3.Vec
}

// ID returns the engine handle of the object
func (o *Object) ID() simulator.BodyID {
	return o.id
}

// Shape returns the kind of the object
func (o *Object) Shape() Shape {
	return o.shape
}

// Path returns the URDF asset path the object was loaded from
func (o *Object) Path() string {
	return o.path
}

// Pose returns the world pose of the object
func (o *Object) Pose() (geometry.Pose, error) {
	pose, err := o.engine.BasePose(o.id)
	if err != nil {
		return geometry.Pose{}, fmt.Errorf("pose: %v", err)
	}
	return pose, nil
}

// Position returns the world position of the object
func (o *Object) Position() (r3.Vec, error) {
	pose, err := o.Pose()
	if err != nil {
		return r3.Vec{}, err
	}
	return pose.Position, nil
}

// Rotation returns the world orientation of the object
func (o *Object) Rotation() (geometry.Quaternion, error) {
	pose, err := o.Pose()
	if err != nil {
		return geometry.Quaternion{}, err
	}
	return pose.Orientation, nil
}

// ZPosition returns the height of the object's centre above the ground
func (o *Object) ZPosition() (float64, error) {
	pos, err := o.Position()
	if err != nil {
		return 0, err
	}
	return pos.Z, nil
}

// ResetPose teleports the object
func (o *Object) ResetPose(pose geometry.Pose) error {
	if err := o.engine.ResetBasePose(o.id, pose); err != nil {
		return fmt.Errorf("resetPose: %v", err)
	}
	return nil
}

// ContactPoints returns the contacts of the object with every other
// body
func (o *Object) ContactPoints() ([]simulator.ContactPoint, error) {
	return o.engine.ContactPoints(o.id, simulator.AnyBody)
}

// IsTouching returns whether the object is in contact with other
func (o *Object) IsTouching(other *Object) (bool, error) {
	return o.IsTouchingID(other.id)
}

// IsTouchingID returns whether the object is in contact with the body
// with handle id
func (o *Object) IsTouchingID(id simulator.BodyID) (bool, error) {
	contacts, err := o.engine.ContactPoints(o.id, id)
	if err != nil {
		return false, fmt.Errorf("isTouching: %v", err)
	}
	return len(contacts) > 0, nil
}

// Height returns the extent of the object along its own z axis
func (o *Object) Height() float64 {
	return 2 * o.half.Z
}

// Size returns the smaller horizontal extent of the object, which is
// the width the gripper closes across
func (o *Object) Size() float64 {
	return 2 * math.Min(o.half.X, o.half.Y)
}

// Length returns the larger horizontal extent of the object
func (o *Object) Length() float64 {
	return 2 * math.Max(o.half.X, o.half.Y)
}

// HalfExtents returns the half sizes of the object's bounding box in
// its own frame
func (o *Object) HalfExtents() r3.Vec {
	return o.half
}

// Remove removes the object from the engine
func (o *Object) Remove() error {
	if err := o.engine.RemoveBody(o.id); err != nil {
		return fmt.Errorf("remove: %v", err)
	}
	return nil
}

func (o *Object) String() string {
	return fmt.Sprintf("%v(%v)", o.shape, o.id)
}
