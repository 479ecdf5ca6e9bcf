package kinematic

import (
	"math"
	"sort"

	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/simulator"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxHalvings is the number of times a blocked joint increment is
// halved before the joint gives up for the step
const maxHalvings = 5

// supportSlop shrinks footprints when looking for supports so that
// boxes placed side by side do not hold each other up
const supportSlop = 1e-4

// grip is a link of another body held between at least two moving
// links of a body
type grip struct {
	body *body
	link int
	by   []int
}

// carry records the pose of a gripped free body in the frame of the
// link holding it
type carry struct {
	body     *body
	by       int
	relative geometry.Pose
}

// StepSimulation advances the world by one time step
func (w *World) StepSimulation() error {
	dt := w.params.TimeStep
	carried := make(map[simulator.BodyID]bool)

	for _, id := range w.ids() {
		b := w.bodies[id]
		for i := range b.links {
			b.links[i].velocity = 0
		}
		if !b.controlled() {
			continue
		}
		for i, l := range b.links {
			if !l.controlled {
				continue
			}
			delta := l.target - l.q
			maxStep := l.maxVel * dt
			if math.Abs(delta) > maxStep {
				delta = math.Copysign(maxStep, delta)
			}
			if math.Abs(delta) < 1e-12 {
				continue
			}
			w.moveJoint(b, i, delta)
		}

		for _, g := range w.grips(b) {
			if !g.body.fixed && len(g.body.links) == 0 {
				carried[g.body.id] = true
			}
		}
	}

	w.applyConstraints()
	w.settle(carried)
	return nil
}

// moveJoint moves joint i of b by delta, or by the largest fraction of
// delta that creates no new penetration. Bodies gripped by the moving
// links follow them.
func (w *World) moveJoint(b *body, i int, delta float64) {
	l := b.links[i]
	dt := w.params.TimeStep

	grips := w.grips(b)
	var carries []carry
	var drags []grip
	excluded := map[simulator.BodyID]bool{b.id: true}
	oldPoses := b.linkPoses(nil)

	for _, g := range grips {
		// A finger moving on its own releases rather than carries
		common := true
		for _, by := range g.by {
			common = common && b.inSubtree(i, by)
		}

		if !common {
			continue
		}
		switch {
		case !g.body.fixed:
			excluded[g.body.id] = true
			carries = append(carries, carry{
				body:     g.body,
				by:       g.by[0],
				relative: geometry.Relative(oldPoses[g.by[0]], g.body.base),
			})

		case g.body.movableAncestor(g.link) != simulator.BaseLink:
			excluded[g.body.id] = true
			drags = append(drags, g)
		}
	}

	q := b.jointPositions()
	oldBoxes := w.movingBoxes(b, i, oldPoses, carries)
	var newPoses []geometry.Pose
	for h := 0; h <= maxHalvings; h++ {
		q[i] = l.clamp(l.q + delta)
		newPoses = b.linkPoses(q)
		newBoxes := w.movingBoxes(b, i, newPoses, carries)
		if !w.newPenetration(oldBoxes, newBoxes, excluded) {
			break
		}
		if h == maxHalvings {
			return
		}
		delta /= 2
	}

	moved := q[i] - l.q
	l.q = q[i]
	l.velocity = moved / dt

	for _, c := range carries {
		c.body.base = newPoses[c.by].Mul(c.relative)
	}
	for _, g := range drags {
		w.drag(g, oldPoses[g.by[0]].Position, newPoses[g.by[0]].Position)
	}
}

// movingBoxes returns the boxes of the subtree rooted at link i posed by
// poses, followed by the boxes of the carried bodies.
func (w *World) movingBoxes(b *body, i int, poses []geometry.Pose,
	carries []carry) []obb {
	var out []obb
	for _, box := range b.boxesAt(poses) {
		if box.link != simulator.BaseLink && b.inSubtree(i, box.link) {
			out = append(out, box)
		}
	}
	for _, c := range carries {
		base := poses[c.by].Mul(c.relative)
		for _, s := range c.body.baseShapes {
			out = append(out, obb{
				body: c.body.id,
				link: simulator.BaseLink,
				pose: base.Mul(s.origin),
				half: s.half,
			})
		}
	}
	return out
}

// newPenetration returns whether any box in after penetrates a box of a
// body outside excluded that the same box in before did not.
func (w *World) newPenetration(before, after []obb,
	excluded map[simulator.BodyID]bool) bool {
	for _, id := range w.ids() {
		if excluded[id] {
			continue
		}
		for _, other := range w.bodies[id].boxes() {
			for k := range after {
				if penetrates(after[k], other) && !penetrates(before[k], other) {
					return true
				}
			}
		}
	}
	return false
}

// drag moves the nearest movable joint above the gripped link by the
// displacement of the gripping link projected onto the joint axis.
func (w *World) drag(g grip, from, to r3.Vec) {
	a := g.body.movableAncestor(g.link)
	l := g.body.links[a]
	poses := g.body.linkPoses(nil)
	axis := g.body.parentPose(poses, a).Orientation.Rotate(l.axis)

	dq := r3.Dot(r3.Sub(to, from), axis)
	if l.jointType == simulator.Revolute {
		// Small angle approximation about the joint origin
		lever := r3.Sub(poses[g.link].Position, poses[a].Position)
		r := r3.Norm(r3.Cross(axis, lever))
		if r < 1e-9 {
			return
		}
		dq = r3.Dot(r3.Sub(to, from), r3.Unit(r3.Cross(axis, lever))) / r
	}
	old := l.q
	l.q = l.clamp(l.q + dq)
	l.velocity = (l.q - old) / w.params.TimeStep
}

// grips returns the links of other bodies held between two or more
// distinct movable links of b
func (w *World) grips(b *body) []grip {
	var own []obb
	for _, box := range b.boxes() {
		if box.link != simulator.BaseLink &&
			b.links[box.link].jointType != simulator.Fixed {
			own = append(own, box)
		}
	}
	if len(own) < 2 {
		return nil
	}

	var out []grip
	for _, id := range w.ids() {
		if id == b.id {
			continue
		}
		other := w.bodies[id]
		by := make(map[int]map[int]bool)
		var links []int
		for _, ob := range other.boxes() {
			for _, box := range own {
				if !touches(box, ob) {
					continue
				}
				if by[ob.link] == nil {
					by[ob.link] = make(map[int]bool)
					links = append(links, ob.link)
				}
				by[ob.link][box.link] = true
			}
		}
		for _, link := range links {
			if len(by[link]) < 2 {
				continue
			}
			g := grip{body: other, link: link}
			for k := range by[link] {
				g.by = append(g.by, k)
			}
			sort.Ints(g.by)
			out = append(out, g)
		}
	}
	return out
}

// applyConstraints re-poses every constrained child relative to its
// parent link
func (w *World) applyConstraints() {
	ids := make([]simulator.ConstraintID, 0, len(w.constraints))
	for id := range w.constraints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		c := w.constraints[id]
		parent, child := w.bodies[c.Parent], w.bodies[c.Child]

		frame := parent.base
		if c.ParentLink != simulator.BaseLink {
			frame = parent.linkPoses(nil)[c.ParentLink]
		}
		child.base = frame.Mul(c.ParentFrame).Mul(c.ChildFrame.Inverse())
	}
}

// settle drops every free, unheld, unconstrained body onto the highest
// surface below its centre
func (w *World) settle(carried map[simulator.BodyID]bool) {
	constrained := make(map[simulator.BodyID]bool)
	for _, c := range w.constraints {
		constrained[c.Child] = true
	}

	type candidate struct {
		b      *body
		bottom float64
	}
	var free []candidate
	for _, id := range w.ids() {
		b := w.bodies[id]
		if b.fixed || carried[id] || constrained[id] || len(b.links) > 0 {
			continue
		}
		boxes := b.boxes()
		if len(boxes) == 0 {
			continue
		}
		bottom := math.Inf(1)
		for _, box := range boxes {
			bottom = math.Min(bottom, box.bottom())
		}
		free = append(free, candidate{b, bottom})
	}
	sort.SliceStable(free, func(i, j int) bool {
		return free[i].bottom < free[j].bottom
	})

	for _, f := range free {
		// Boxes may have moved as lower bodies settled
		boxes := f.b.boxes()
		bottom := math.Inf(1)
		for _, box := range boxes {
			bottom = math.Min(bottom, box.bottom())
		}
		centre := f.b.base.Position.Z

		support, found := math.Inf(-1), false
		for _, id := range w.ids() {
			if id == f.b.id {
				continue
			}
			for _, other := range w.bodies[id].boxes() {
				top := other.top()
				if top > centre {
					continue
				}
				for _, box := range boxes {
					if overlapXY(box, other, -supportSlop) && top > support {
						support, found = top, true
					}
				}
			}
		}
		if !found {
			continue
		}
		f.b.base.Position.Z += support - bottom
	}
}
