package kinematic

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/samuelfneumann/helpinghands/urdf"
	"gonum.org/v1/gonum/spatial/r3"
)

// shape is a box collision shape posed in its link frame
type shape struct {
	origin geometry.Pose
	half   r3.Vec
}

// link is a non-base link together with the joint connecting it to its
// parent
type link struct {
	name      string
	jointName string
	parent    int
	origin    geometry.Pose
	jointType simulator.JointType
	axis      r3.Vec
	lower     float64
	upper     float64
	maxVel    float64

	q          float64
	velocity   float64
	target     float64
	controlled bool

	shapes []shape
}

// motion returns the transform contributed by the joint position q
func (l *link) motion(q float64) geometry.Pose {
	switch l.jointType {
	case simulator.Prismatic:
		return geometry.NewPose(r3.Scale(q, l.axis), geometry.Identity())
	case simulator.Revolute:
		return geometry.NewPose(r3.Vec{}, geometry.FromAxisAngle(l.axis, q))
	}
	return geometry.IdentityPose()
}

func (l *link) clamp(q float64) float64 {
	if l.lower > l.upper {
		return q
	}
	return math.Max(l.lower, math.Min(l.upper, q))
}

// body is a loaded model: a base and a tree of links ordered so that
// every parent precedes its children
type body struct {
	id         simulator.BodyID
	name       string
	base       geometry.Pose
	fixed      bool
	baseShapes []shape
	links      []*link
}

// newBody builds a body from a parsed URDF model
func newBody(id simulator.BodyID, robot *urdf.Robot,
	opts simulator.LoadOptions) (*body, error) {
	scale := opts.GlobalScaling
	if scale == 0 {
		scale = 1
	}
	orn := opts.Orientation
	if orn == (geometry.Quaternion{}) {
		orn = geometry.Identity()
	}

	root, err := robot.Root()
	if err != nil {
		return nil, fmt.Errorf("newBody: %v", err)
	}
	rootLink, _ := robot.Link(root)
	baseShapes, err := shapesOf(rootLink, scale)
	if err != nil {
		return nil, fmt.Errorf("newBody: link %v: %v", root, err)
	}

	b := &body{
		id:         id,
		name:       robot.Name,
		base:       geometry.NewPose(opts.Position, orn.Normalize()),
		fixed:      opts.UseFixedBase,
		baseShapes: baseShapes,
	}

	// Order links depth first, following the joint order of the file
	children := make(map[string][]urdf.Joint)
	for _, j := range robot.Joints {
		children[j.Parent.Link] = append(children[j.Parent.Link], j)
	}

	var visit func(parentName string, parent int) error
	visit = func(parentName string, parent int) error {
		for _, j := range children[parentName] {
			l, err := newLink(robot, j, parent, scale)
			if err != nil {
				return err
			}
			b.links = append(b.links, l)
			if err := visit(j.Child.Link, len(b.links)-1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(root, simulator.BaseLink); err != nil {
		return nil, fmt.Errorf("newBody: %v", err)
	}
	return b, nil
}

func newLink(robot *urdf.Robot, j urdf.Joint, parent int,
	scale float64) (*link, error) {
	child, ok := robot.Link(j.Child.Link)
	if !ok {
		return nil, fmt.Errorf("joint %v: no such child link %v", j.Name,
			j.Child.Link)
	}

	origin, err := j.Origin.Pose()
	if err != nil {
		return nil, fmt.Errorf("joint %v: %v", j.Name, err)
	}
	origin.Position = r3.Scale(scale, origin.Position)

	axis, err := j.AxisVec()
	if err != nil {
		return nil, fmt.Errorf("joint %v: axis: %v", j.Name, err)
	}
	if r3.Norm(axis) > 0 {
		axis = r3.Unit(axis)
	}

	shapes, err := shapesOf(child, scale)
	if err != nil {
		return nil, fmt.Errorf("link %v: %v", child.Name, err)
	}

	l := &link{
		name:      child.Name,
		jointName: j.Name,
		parent:    parent,
		origin:    origin,
		axis:      axis,
		lower:     0,
		upper:     -1,
		shapes:    shapes,
	}

	switch j.Type {
	case "prismatic":
		l.jointType = simulator.Prismatic
	case "revolute", "continuous":
		l.jointType = simulator.Revolute
	default:
		l.jointType = simulator.Fixed
	}

	if j.Limit != nil && j.Type != "continuous" {
		l.lower, l.upper = j.Limit.Lower, j.Limit.Upper
		if l.jointType == simulator.Prismatic {
			l.lower *= scale
			l.upper *= scale
		}
	}
	l.maxVel = math.Inf(1)
	if j.Limit != nil && j.Limit.Velocity > 0 {
		l.maxVel = j.Limit.Velocity
		if l.jointType == simulator.Prismatic {
			l.maxVel *= scale
		}
	}
	return l, nil
}

func shapesOf(l urdf.Link, scale float64) ([]shape, error) {
	shapes := make([]shape, 0, len(l.Collisions))
	for _, c := range l.Collisions {
		half, err := c.Geometry.HalfExtents()
		if err != nil {
			return nil, err
		}
		origin, err := c.Origin.Pose()
		if err != nil {
			return nil, err
		}
		origin.Position = r3.Scale(scale, origin.Position)
		shapes = append(shapes, shape{origin: origin, half: r3.Scale(scale, half)})
	}
	return shapes, nil
}

// linkPoses returns the world frame of every link given joint positions
// q. If q is nil the current joint positions are used.
func (b *body) linkPoses(q []float64) []geometry.Pose {
	poses := make([]geometry.Pose, len(b.links))
	for i, l := range b.links {
		parent := b.base
		if l.parent != simulator.BaseLink {
			parent = poses[l.parent]
		}
		qi := l.q
		if q != nil {
			qi = q[i]
		}
		poses[i] = parent.Mul(l.origin).Mul(l.motion(qi))
	}
	return poses
}

// parentPose returns the frame in which the joint of link i moves
func (b *body) parentPose(poses []geometry.Pose, i int) geometry.Pose {
	l := b.links[i]
	parent := b.base
	if l.parent != simulator.BaseLink {
		parent = poses[l.parent]
	}
	return parent.Mul(l.origin)
}

// boxes returns the world boxes of the body
func (b *body) boxes() []obb {
	return b.boxesAt(b.linkPoses(nil))
}

func (b *body) boxesAt(poses []geometry.Pose) []obb {
	var out []obb
	for _, s := range b.baseShapes {
		out = append(out, obb{
			body: b.id,
			link: simulator.BaseLink,
			pose: b.base.Mul(s.origin),
			half: s.half,
		})
	}
	for i, l := range b.links {
		for _, s := range l.shapes {
			out = append(out, obb{
				body: b.id,
				link: i,
				pose: poses[i].Mul(s.origin),
				half: s.half,
			})
		}
	}
	return out
}

// inSubtree returns whether link j is link i or one of its descendants
func (b *body) inSubtree(i, j int) bool {
	for j != simulator.BaseLink {
		if j == i {
			return true
		}
		j = b.links[j].parent
	}
	return false
}

// movableAncestor returns the nearest link at or above link i whose
// joint is movable, or BaseLink if none is.
func (b *body) movableAncestor(i int) int {
	for i != simulator.BaseLink {
		if b.links[i].jointType != simulator.Fixed {
			return i
		}
		i = b.links[i].parent
	}
	return simulator.BaseLink
}

// controlled returns whether any joint of the body is position
// controlled
func (b *body) controlled() bool {
	for _, l := range b.links {
		if l.controlled {
			return true
		}
	}
	return false
}

func (b *body) jointPositions() []float64 {
	q := make([]float64, len(b.links))
	for i, l := range b.links {
		q[i] = l.q
	}
	return q
}
