package kinematic

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/simulator"
	"gonum.org/v1/gonum/spatial/r3"
)

// ikIterations is the number of position refinement passes
const ikIterations = 5

// CalculateIK solves for the joint positions that bring link to pos
// with orientation orn. Only gantry chains are supported: prismatic
// joints with fixed axes, a revolute yaw joint, and an optional pitch
// joint after it. The returned slice holds one position per movable
// joint of the body in joint order; joints outside the chain keep their
// current position.
func (w *World) CalculateIK(id simulator.BodyID, link int, pos r3.Vec,
	orn geometry.Quaternion) ([]float64, error) {
	b, err := w.body(id)
	if err != nil {
		return nil, fmt.Errorf("calculateIK: %w", err)
	}
	if link < 0 || link >= len(b.links) {
		return nil, fmt.Errorf("calculateIK: %w: %v of body %v",
			simulator.ErrUnknownLink, link, id)
	}

	var chain []int
	for i := link; i != simulator.BaseLink; i = b.links[i].parent {
		if b.links[i].jointType != simulator.Fixed {
			chain = append([]int{i}, chain...)
		}
	}

	q := b.jointPositions()

	// Orientation: the first revolute joint sets the yaw, the second the
	// pitch, so the link frame is Rz(yaw)*Ry(pitch) in the base frame
	local := b.base.Orientation.Conj().Mul(orn.Normalize())
	yAxis, zAxis := local.Axis(1), local.Axis(2)
	yaw := math.Atan2(-yAxis.X, yAxis.Y)
	heading := r3.Vec{X: math.Cos(yaw), Y: math.Sin(yaw)}
	pitch := math.Atan2(r3.Dot(zAxis, heading), zAxis.Z)

	angles := []float64{yaw, pitch}
	n := 0
	for _, i := range chain {
		if b.links[i].jointType != simulator.Revolute || n >= len(angles) {
			continue
		}
		q[i] = b.links[i].clamp(angles[n])
		n++
	}

	// Position: project the remaining error onto each prismatic axis
	for it := 0; it < ikIterations; it++ {
		poses := b.linkPoses(q)
		err := r3.Sub(pos, poses[link].Position)
		if r3.Norm(err) < 1e-9 {
			break
		}
		for _, i := range chain {
			l := b.links[i]
			if l.jointType != simulator.Prismatic {
				continue
			}
			axis := b.parentPose(poses, i).Orientation.Rotate(l.axis)
			q[i] = l.clamp(q[i] + r3.Dot(err, axis))
		}
	}

	out := make([]float64, 0, len(q))
	for i, l := range b.links {
		if l.jointType != simulator.Fixed {
			out = append(out, q[i])
		}
	}
	return out, nil
}
