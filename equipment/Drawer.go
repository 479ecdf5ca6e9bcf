// Package equipment implements articulated fixtures that environments
// place in the workspace alongside objects
package equipment

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/objects"
	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/samuelfneumann/helpinghands/urdf"
	"gonum.org/v1/gonum/spatial/r3"
)

// Link indices of the drawer models
const (
	drawerJoint     = 1
	handleLink      = 3
	drawerBottom    = 4
	objectInitLink  = 5
	drawerScale     = 0.5
	openThreshold   = 0.15
	closedThreshold = 0.02
	settleSteps     = 50
)

// Drawer is a cabinet with a single sliding drawer
type Drawer struct {
	engine  simulator.Engine
	modelID int

	id     simulator.BodyID
	loaded bool
	handle *DrawerHandle

	constraints []simulator.ConstraintID
}

// NewDrawer returns a new, unloaded drawer of the given model, 1 or 2
func NewDrawer(engine simulator.Engine, modelID int) (*Drawer, error) {
	if modelID != 1 && modelID != 2 {
		return nil, fmt.Errorf("newDrawer: no drawer model %v", modelID)
	}
	return &Drawer{engine: engine, modelID: modelID}, nil
}

// Initialize loads the drawer with its base at pos
func (d *Drawer) Initialize(pos r3.Vec, rot geometry.Quaternion) error {
	path := urdf.Path(fmt.Sprintf("drawer%d.urdf", d.modelID))
	id, err := d.engine.LoadURDF(path, simulator.LoadOptions{
		Position:      pos,
		Orientation:   rot,
		GlobalScaling: drawerScale,
		UseFixedBase:  true,
	})
	if err != nil {
		return fmt.Errorf("initialize: %v", err)
	}
	d.id = id
	d.loaded = true
	d.handle = &DrawerHandle{engine: d.engine, id: id, link: handleLink}
	return nil
}

// ID returns the engine handle of the drawer
func (d *Drawer) ID() simulator.BodyID {
	return d.id
}

// Handle returns the drawer handle, or nil before Initialize
func (d *Drawer) Handle() *DrawerHandle {
	return d.handle
}

// Remove removes the drawer from the engine. Removing an unloaded
// drawer does nothing.
func (d *Drawer) Remove() error {
	if !d.loaded {
		return nil
	}
	d.loaded = false
	d.handle = nil
	d.constraints = nil
	if err := d.engine.RemoveBody(d.id); err != nil {
		return fmt.Errorf("remove: %v", err)
	}
	return nil
}

// IsObjInsideDrawer returns whether obj rests on the drawer bottom
func (d *Drawer) IsObjInsideDrawer(obj *objects.Object) (bool, error) {
	contacts, err := obj.ContactPoints()
	if err != nil {
		return false, fmt.Errorf("isObjInsideDrawer: %v", err)
	}
	for _, c := range contacts {
		if c.BodyB == d.id && c.LinkB == drawerBottom {
			return true, nil
		}
	}
	return false, nil
}

// HandlePosition returns the world position of the handle
func (d *Drawer) HandlePosition() (r3.Vec, error) {
	if !d.loaded {
		return r3.Vec{}, fmt.Errorf("handlePosition: drawer not loaded")
	}
	return d.handle.Position()
}

// HandleRotation returns the world orientation of the handle
func (d *Drawer) HandleRotation() (geometry.Quaternion, error) {
	if !d.loaded {
		return geometry.Quaternion{}, fmt.Errorf("handleRotation: drawer " +
			"not loaded")
	}
	return d.handle.Rotation()
}

// Reset moves the drawer base to pos and closes the drawer, letting
// the simulation settle before and after
func (d *Drawer) Reset(pos r3.Vec, rot geometry.Quaternion) error {
	if err := d.engine.ResetBasePose(d.id, geometry.NewPose(pos, rot)); err != nil {
		return fmt.Errorf("reset: %v", err)
	}
	if err := d.step(settleSteps); err != nil {
		return fmt.Errorf("reset: %v", err)
	}
	if err := d.engine.ResetJointState(d.id, drawerJoint, 0); err != nil {
		return fmt.Errorf("reset: %v", err)
	}
	if err := d.step(settleSteps); err != nil {
		return fmt.Errorf("reset: %v", err)
	}
	return nil
}

// JointPosition returns how far the drawer is pulled out
func (d *Drawer) JointPosition() (float64, error) {
	state, err := d.engine.JointState(d.id, drawerJoint)
	if err != nil {
		return 0, fmt.Errorf("jointPosition: %v", err)
	}
	return state.Position, nil
}

// IsOpen returns whether the drawer is pulled out past the open
// threshold, which scales with the model
func (d *Drawer) IsOpen() (bool, error) {
	q, err := d.JointPosition()
	if err != nil {
		return false, err
	}
	return q > openThreshold*drawerScale, nil
}

// IsClosed returns whether the drawer is pushed in
func (d *Drawer) IsClosed() (bool, error) {
	q, err := d.JointPosition()
	if err != nil {
		return false, err
	}
	return q < closedThreshold*drawerScale, nil
}

// ObjInitPos returns the position at which objects start in the drawer
func (d *Drawer) ObjInitPos() (r3.Vec, error) {
	pose, err := d.objInitPose()
	if err != nil {
		return r3.Vec{}, err
	}
	return pose.Position, nil
}

// ObjInitRot returns the orientation of objects starting in the drawer
func (d *Drawer) ObjInitRot() (geometry.Quaternion, error) {
	pose, err := d.objInitPose()
	if err != nil {
		return geometry.Quaternion{}, err
	}
	return pose.Orientation, nil
}

func (d *Drawer) objInitPose() (geometry.Pose, error) {
	ls, err := d.engine.LinkState(d.id, objectInitLink)
	if err != nil {
		return geometry.Pose{}, fmt.Errorf("objInitPose: %v", err)
	}
	return ls.Pose(), nil
}

// ConstrainObjects fixes objs to the drawer so that they slide with it
func (d *Drawer) ConstrainObjects(objs []*objects.Object) error {
	frame, err := d.objInitPose()
	if err != nil {
		return fmt.Errorf("constrainObjects: %v", err)
	}

	d.constraints = d.constraints[:0]
	for _, obj := range objs {
		pose, err := obj.Pose()
		if err != nil {
			return fmt.Errorf("constrainObjects: %v", err)
		}
		cid, err := d.engine.CreateConstraint(simulator.Constraint{
			Parent:      d.id,
			ParentLink:  objectInitLink,
			Child:       obj.ID(),
			ChildLink:   simulator.BaseLink,
			ParentFrame: geometry.Relative(frame, pose),
			ChildFrame:  geometry.IdentityPose(),
		})
		if err != nil {
			return fmt.Errorf("constrainObjects: %v", err)
		}
		d.constraints = append(d.constraints, cid)
	}
	return nil
}

// ReleaseObjectConstraints removes the constraints created by
// ConstrainObjects
func (d *Drawer) ReleaseObjectConstraints() error {
	for _, cid := range d.constraints {
		if err := d.engine.RemoveConstraint(cid); err != nil {
			return fmt.Errorf("releaseObjectConstraints: %v", err)
		}
	}
	d.constraints = nil
	return nil
}

func (d *Drawer) step(n int) error {
	for i := 0; i < n; i++ {
		if err := d.engine.StepSimulation(); err != nil {
			return err
		}
	}
	return nil
}
