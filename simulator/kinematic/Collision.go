package kinematic

import (
	"math"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/simulator"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// ContactTolerance is the gap below which two boxes are in contact
	ContactTolerance = 2e-3

	// penetrationSlop is subtracted from box sizes when testing for
	// overlap so that resting boxes do not count as penetrating
	penetrationSlop = 1e-5
)

// obb is an oriented box in world coordinates
type obb struct {
	body simulator.BodyID
	link int
	pose geometry.Pose
	half r3.Vec
}

// yawBounds returns the yaw of the box and the half extents of its
// bounding box in the frame rotated by that yaw. Boxes that are only
// rotated about z, or by quarter turns about other axes, are bounded
// exactly.
func (o obb) yawBounds() (float64, r3.Vec) {
	yaw := o.pose.Orientation.Yaw()
	residual := geometry.FromAxisAngle(r3.Vec{Z: 1}, -yaw).Mul(o.pose.Orientation)

	// Column j of the residual rotation is the image of axis j
	cols := [3]r3.Vec{
		residual.Rotate(r3.Vec{X: 1}),
		residual.Rotate(r3.Vec{Y: 1}),
		residual.Rotate(r3.Vec{Z: 1}),
	}
	h := [3]float64{o.half.X, o.half.Y, o.half.Z}

	var b r3.Vec
	for j, c := range cols {
		b.X += math.Abs(c.X) * h[j]
		b.Y += math.Abs(c.Y) * h[j]
		b.Z += math.Abs(c.Z) * h[j]
	}
	return yaw, b
}

func (o obb) bottom() float64 {
	_, h := o.yawBounds()
	return o.pose.Position.Z - h.Z
}

func (o obb) top() float64 {
	_, h := o.yawBounds()
	return o.pose.Position.Z + h.Z
}

// footprint returns the Box2D polygon and transform of a box seen from
// above with yaw and bounds h, grown by margin on every side.
func (o obb) footprint(yaw float64, h r3.Vec,
	margin float64) (*box2d.B2PolygonShape, box2d.B2Transform) {
	poly := box2d.NewB2PolygonShape()
	poly.SetAsBox(math.Max(h.X+margin, 1e-6), math.Max(h.Y+margin, 1e-6))
	poly.M_radius = 0

	xf := box2d.MakeB2Transform()
	xf.Set(box2d.MakeB2Vec2(o.pose.Position.X, o.pose.Position.Y), yaw)
	return poly, xf
}

// overlapXY returns whether the footprints of a and b, each grown by
// margin, intersect.
func overlapXY(a, b obb, margin float64) bool {
	yawA, ha := a.yawBounds()
	yawB, hb := b.yawBounds()
	return overlapFootprints(a, b, yawA, yawB, ha, hb, margin)
}

func overlapFootprints(a, b obb, yawA, yawB float64, ha, hb r3.Vec,
	margin float64) bool {
	// Bounding circles first
	reach := math.Hypot(ha.X, ha.Y) + math.Hypot(hb.X, hb.Y) +
		2*math.Max(margin, 0)*math.Sqrt2
	dx := a.pose.Position.X - b.pose.Position.X
	dy := a.pose.Position.Y - b.pose.Position.Y
	if dx*dx+dy*dy > reach*reach {
		return false
	}

	pa, xa := a.footprint(yawA, ha, margin)
	pb, xb := b.footprint(yawB, hb, margin)
	return separatingAxisOverlap(corners(pa, xa), corners(pb, xb))
}

// corners returns the world vertices of a polygon
func corners(p *box2d.B2PolygonShape, xf box2d.B2Transform) []box2d.B2Vec2 {
	out := make([]box2d.B2Vec2, 0, p.M_count)
	for i, v := range p.M_vertices {
		if i >= p.M_count {
			break
		}
		out = append(out, box2d.B2TransformVec2Mul(xf, v))
	}
	return out
}

// separatingAxisOverlap returns whether two convex polygons overlap
// with positive area. Polygons sharing an edge or a vertex do not. The
// edge normals of both polygons are the only candidate separating
// axes, so coincident parallel edges are decided exactly.
func separatingAxisOverlap(a, b []box2d.B2Vec2) bool {
	for _, poly := range [2][]box2d.B2Vec2{a, b} {
		for i := range poly {
			e := box2d.B2Vec2Sub(poly[(i+1)%len(poly)], poly[i])
			axis := box2d.MakeB2Vec2(-e.Y, e.X)

			minA, maxA := project(a, axis)
			minB, maxB := project(b, axis)
			if maxA <= minB || maxB <= minA {
				return false
			}
		}
	}
	return true
}

func project(poly []box2d.B2Vec2, axis box2d.B2Vec2) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range poly {
		d := box2d.B2Vec2Dot(v, axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

// overlap returns whether a and b, each grown by margin, intersect
func overlap(a, b obb, margin float64) bool {
	yawA, ha := a.yawBounds()
	yawB, hb := b.yawBounds()
	dz := math.Abs(a.pose.Position.Z - b.pose.Position.Z)
	if dz >= ha.Z+hb.Z+2*margin {
		return false
	}
	return overlapFootprints(a, b, yawA, yawB, ha, hb, margin)
}

// penetrates returns whether a and b intersect by more than resting
// contact
func penetrates(a, b obb) bool {
	return overlap(a, b, -penetrationSlop)
}

// touches returns whether a and b are within ContactTolerance
func touches(a, b obb) bool {
	return overlap(a, b, ContactTolerance/2)
}

// intersectRay returns the distance along the unit direction dir from
// origin to the box, or false if the ray misses. inv is the inverse of
// the box pose.
func (o obb) intersectRay(inv geometry.Pose, origin, dir r3.Vec) (float64, bool) {
	lo := inv.Apply(origin)
	ld := inv.Orientation.Rotate(dir)

	o3 := [3]float64{lo.X, lo.Y, lo.Z}
	d3 := [3]float64{ld.X, ld.Y, ld.Z}
	h3 := [3]float64{o.half.X, o.half.Y, o.half.Z}

	tMin, tMax := math.Inf(-1), math.Inf(1)
	for i := 0; i < 3; i++ {
		if math.Abs(d3[i]) < 1e-12 {
			if o3[i] < -h3[i] || o3[i] > h3[i] {
				return 0, false
			}
			continue
		}
		t1 := (-h3[i] - o3[i]) / d3[i]
		t2 := (h3[i] - o3[i]) / d3[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	if tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		return tMax, true
	}
	return tMin, true
}
