package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is a position and orientation of a frame in its parent frame
type Pose struct {
	Position    r3.Vec
	Orientation Quaternion
}

// NewPose returns a pose at position pos with orientation rot
func NewPose(pos r3.Vec, rot Quaternion) Pose {
	return Pose{Position: pos, Orientation: rot}
}

// IdentityPose returns the pose of the parent frame itself
func IdentityPose() Pose {
	return Pose{Orientation: Identity()}
}

// Mul composes two transforms, returning p*o: o expressed in the parent
// frame of p.
func (p Pose) Mul(o Pose) Pose {
	return Pose{
		Position:    r3.Add(p.Position, p.Orientation.Rotate(o.Position)),
		Orientation: p.Orientation.Mul(o.Orientation).Normalize(),
	}
}

// Inverse returns the inverse transform of p
func (p Pose) Inverse() Pose {
	inv := p.Orientation.Conj()
	return Pose{
		Position:    r3.Scale(-1, inv.Rotate(p.Position)),
		Orientation: inv,
	}
}

// Apply transforms the point v from the frame of p into the parent frame
func (p Pose) Apply(v r3.Vec) r3.Vec {
	return r3.Add(p.Position, p.Orientation.Rotate(v))
}

// Matrix returns the 4x4 homogeneous matrix of p
func (p Pose) Matrix() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	rot := p.Orientation.Matrix()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rot.At(i, j))
		}
	}
	m.Set(0, 3, p.Position.X)
	m.Set(1, 3, p.Position.Y)
	m.Set(2, 3, p.Position.Z)
	m.Set(3, 3, 1)
	return m
}

// PoseFromMatrix returns the pose encoded by the 4x4 homogeneous
// matrix m.
func PoseFromMatrix(m mat.Matrix) Pose {
	return Pose{
		Position:    r3.Vec{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)},
		Orientation: FromMatrix(m),
	}
}

// EulerMatrix returns the 4x4 homogeneous rotation for static x, y, z
// axes rotations by ai, aj, ak.
func EulerMatrix(ai, aj, ak float64) *mat.Dense {
	return Pose{Orientation: FromEuler(ai, aj, ak)}.Matrix()
}

// Relative returns the transform from a to b, inverse(a)*b
func Relative(a, b Pose) Pose {
	return a.Inverse().Mul(b)
}

// PositionClose reports whether the positions of a and b are within
// atol of each other along every axis.
func PositionClose(a, b r3.Vec, atol float64) bool {
	return math.Abs(a.X-b.X) <= atol && math.Abs(a.Y-b.Y) <= atol &&
		math.Abs(a.Z-b.Z) <= atol
}

// RotationClose reports whether a and b are within atol of each other
// element-wise, treating q and -q as the same rotation.
func RotationClose(a, b Quaternion, atol float64) bool {
	close := func(s float64) bool {
		return math.Abs(a.X-s*b.X) <= atol && math.Abs(a.Y-s*b.Y) <= atol &&
			math.Abs(a.Z-s*b.Z) <= atol && math.Abs(a.W-s*b.W) <= atol
	}
	return close(1) || close(-1)
}

// Vec returns the r3.Vec (x, y, z)
func Vec(x, y, z float64) r3.Vec {
	return r3.Vec{X: x, Y: y, Z: z}
}
