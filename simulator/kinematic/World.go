// Package kinematic implements a kinematic stand-in for a rigid-body
// physics engine. It satisfies simulator.Engine well enough to run the
// manipulation environments offline and in tests: URDF models become
// trees of boxes, joints follow position targets, grasped objects are
// carried by the gripper, and released objects settle onto whatever is
// below them. There are no dynamics: no forces, no velocities beyond
// joint rates, and nothing ever tips over.
package kinematic

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/samuelfneumann/helpinghands/urdf"
	"github.com/unixpickle/essentials"
	"gonum.org/v1/gonum/spatial/r3"
)

// World is a kinematic simulator.Engine
type World struct {
	fsys   fs.FS
	params simulator.PhysicsParams

	bodies   map[simulator.BodyID]*body
	nextBody simulator.BodyID

	constraints    map[simulator.ConstraintID]simulator.Constraint
	nextConstraint simulator.ConstraintID

	// models caches parsed URDF files by path
	models map[string]*urdf.Robot
}

// New returns a new World which loads URDF files from fsys
func New(fsys fs.FS) *World {
	params, _ := simulator.PhysicsFast.Params()
	return &World{
		fsys:        fsys,
		params:      params,
		bodies:      make(map[simulator.BodyID]*body),
		constraints: make(map[simulator.ConstraintID]simulator.Constraint),
		models:      make(map[string]*urdf.Robot),
	}
}

// ResetSimulation removes all bodies and constraints
func (w *World) ResetSimulation() error {
	w.bodies = make(map[simulator.BodyID]*body)
	w.constraints = make(map[simulator.ConstraintID]simulator.Constraint)
	w.nextBody = 0
	w.nextConstraint = 0
	return nil
}

// SetPhysics sets the stepping parameters. Only the time step affects
// the kinematic world.
func (w *World) SetPhysics(p simulator.PhysicsParams) error {
	if p.TimeStep <= 0 {
		return fmt.Errorf("setPhysics: time step must be positive, have %v",
			p.TimeStep)
	}
	w.params = p
	return nil
}

// LoadURDF loads the model at path and returns its handle
func (w *World) LoadURDF(path string,
	opts simulator.LoadOptions) (id simulator.BodyID, err error) {
	defer essentials.AddCtxTo("load URDF "+path, &err)

	model, ok := w.models[path]
	if !ok {
		model, err = urdf.Load(w.fsys, path)
		if err != nil {
			return 0, err
		}
		w.models[path] = model
	}

	id = w.nextBody
	b, err := newBody(id, model, opts)
	if err != nil {
		return 0, err
	}
	w.bodies[id] = b
	w.nextBody++
	return id, nil
}

// RemoveBody removes a body and every constraint attached to it
func (w *World) RemoveBody(id simulator.BodyID) error {
	if _, err := w.body(id); err != nil {
		return fmt.Errorf("removeBody: %w", err)
	}
	delete(w.bodies, id)
	for cid, c := range w.constraints {
		if c.Parent == id || c.Child == id {
			delete(w.constraints, cid)
		}
	}
	return nil
}

// NumJoints returns the number of joints of a body
func (w *World) NumJoints(id simulator.BodyID) (int, error) {
	b, err := w.body(id)
	if err != nil {
		return 0, fmt.Errorf("numJoints: %w", err)
	}
	return len(b.links), nil
}

// JointInfo describes joint j of a body
func (w *World) JointInfo(id simulator.BodyID,
	j int) (simulator.JointInfo, error) {
	l, err := w.link(id, j)
	if err != nil {
		return simulator.JointInfo{}, fmt.Errorf("jointInfo: %w", err)
	}
	return simulator.JointInfo{
		Index:       j,
		Name:        l.jointName,
		LinkName:    l.name,
		Parent:      l.parent,
		Type:        l.jointType,
		Axis:        l.axis,
		Lower:       l.lower,
		Upper:       l.upper,
		MaxVelocity: l.maxVel,
	}, nil
}

// JointState returns the position and velocity of joint j of a body
func (w *World) JointState(id simulator.BodyID,
	j int) (simulator.JointState, error) {
	l, err := w.link(id, j)
	if err != nil {
		return simulator.JointState{}, fmt.Errorf("jointState: %w", err)
	}
	return simulator.JointState{Position: l.q, Velocity: l.velocity}, nil
}

// ResetJointState teleports joint j to position. Motor targets are
// left untouched.
func (w *World) ResetJointState(id simulator.BodyID, j int,
	position float64) error {
	l, err := w.link(id, j)
	if err != nil {
		return fmt.Errorf("resetJointState: %w", err)
	}
	l.q = position
	l.velocity = 0
	return nil
}

// SetJointTargets sets position-control targets. The gain is accepted
// for compatibility; joints always move at their velocity limit.
func (w *World) SetJointTargets(id simulator.BodyID, joints []int,
	targets []float64, gain float64) error {
	if len(joints) != len(targets) {
		return fmt.Errorf("setJointTargets: have %v joints but %v targets",
			len(joints), len(targets))
	}
	for i, j := range joints {
		l, err := w.link(id, j)
		if err != nil {
			return fmt.Errorf("setJointTargets: %w", err)
		}
		if l.jointType == simulator.Fixed {
			return fmt.Errorf("setJointTargets: joint %v of body %v is fixed",
				j, id)
		}
		l.target = l.clamp(targets[i])
		l.controlled = true
	}
	return nil
}

// BasePose returns the world pose of the base of a body
func (w *World) BasePose(id simulator.BodyID) (geometry.Pose, error) {
	b, err := w.body(id)
	if err != nil {
		return geometry.Pose{}, fmt.Errorf("basePose: %w", err)
	}
	return b.base, nil
}

// ResetBasePose teleports the base of a body
func (w *World) ResetBasePose(id simulator.BodyID, pose geometry.Pose) error {
	b, err := w.body(id)
	if err != nil {
		return fmt.Errorf("resetBasePose: %w", err)
	}
	pose.Orientation = pose.Orientation.Normalize()
	b.base = pose
	return nil
}

// LinkState returns the world frame of a link
func (w *World) LinkState(id simulator.BodyID,
	link int) (simulator.LinkState, error) {
	b, err := w.body(id)
	if err != nil {
		return simulator.LinkState{}, fmt.Errorf("linkState: %w", err)
	}
	if link == simulator.BaseLink {
		return simulator.LinkState{
			WorldPosition:    b.base.Position,
			WorldOrientation: b.base.Orientation,
		}, nil
	}
	if link < 0 || link >= len(b.links) {
		return simulator.LinkState{}, fmt.Errorf("linkState: %w: %v of body %v",
			simulator.ErrUnknownLink, link, id)
	}
	pose := b.linkPoses(nil)[link]
	return simulator.LinkState{
		WorldPosition:    pose.Position,
		WorldOrientation: pose.Orientation,
	}, nil
}

// ContactPoints returns one contact per pair of touching links of a and
// b, or of a and any other body if b is simulator.AnyBody.
func (w *World) ContactPoints(a,
	b simulator.BodyID) ([]simulator.ContactPoint, error) {
	ba, err := w.body(a)
	if err != nil {
		return nil, fmt.Errorf("contactPoints: %w", err)
	}

	var others []*body
	if b == simulator.AnyBody {
		for _, id := range w.ids() {
			if id != a {
				others = append(others, w.bodies[id])
			}
		}
	} else {
		bb, err := w.body(b)
		if err != nil {
			return nil, fmt.Errorf("contactPoints: %w", err)
		}
		if b != a {
			others = append(others, bb)
		}
	}

	boxesA := ba.boxes()
	var points []simulator.ContactPoint
	for _, other := range others {
		seen := make(map[[2]int]bool)
		for _, boxB := range other.boxes() {
			for _, boxA := range boxesA {
				key := [2]int{boxA.link, boxB.link}
				if seen[key] || !touches(boxA, boxB) {
					continue
				}
				seen[key] = true

				dist := 0.0
				if penetrates(boxA, boxB) {
					dist = -penetrationSlop
				}
				points = append(points, simulator.ContactPoint{
					BodyA: a,
					BodyB: other.id,
					LinkA: boxA.link,
					LinkB: boxB.link,
					PositionOnA: r3.Scale(0.5, r3.Add(boxA.pose.Position,
						boxB.pose.Position)),
					Distance: dist,
				})
			}
		}
	}
	return points, nil
}

// CreateConstraint fixes the child link to the parent link
func (w *World) CreateConstraint(c simulator.Constraint) (id simulator.ConstraintID,
	err error) {
	defer essentials.AddCtxTo("create constraint", &err)
	if _, err := w.body(c.Parent); err != nil {
		return 0, err
	}
	if _, err := w.body(c.Child); err != nil {
		return 0, err
	}
	if c.ChildLink != simulator.BaseLink {
		return 0, fmt.Errorf("only base links can be constrained as "+
			"children, have link %v", c.ChildLink)
	}
	if c.ParentFrame.Orientation == (geometry.Quaternion{}) {
		c.ParentFrame.Orientation = geometry.Identity()
	}
	if c.ChildFrame.Orientation == (geometry.Quaternion{}) {
		c.ChildFrame.Orientation = geometry.Identity()
	}

	id = w.nextConstraint
	w.constraints[id] = c
	w.nextConstraint++
	return id, nil
}

// RemoveConstraint removes a constraint
func (w *World) RemoveConstraint(id simulator.ConstraintID) error {
	if _, ok := w.constraints[id]; !ok {
		return fmt.Errorf("removeConstraint: no such constraint %v", id)
	}
	delete(w.constraints, id)
	return nil
}

// Close releases the world
func (w *World) Close() error {
	return w.ResetSimulation()
}

// Bodies returns the handles of all loaded bodies in load order
func (w *World) Bodies() []simulator.BodyID {
	return w.ids()
}

func (w *World) ids() []simulator.BodyID {
	ids := make([]simulator.BodyID, 0, len(w.bodies))
	for id := range w.bodies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (w *World) body(id simulator.BodyID) (*body, error) {
	b, ok := w.bodies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %v", simulator.ErrUnknownBody, id)
	}
	return b, nil
}

func (w *World) link(id simulator.BodyID, j int) (*link, error) {
	b, err := w.body(id)
	if err != nil {
		return nil, err
	}
	if j < 0 || j >= len(b.links) {
		return nil, fmt.Errorf("%w: %v of body %v", simulator.ErrUnknownJoint,
			j, id)
	}
	return b.links[j], nil
}
