// Package geometry implements the rigid-body transform helpers used to
// talk to a physics engine: quaternions in (x, y, z, w) order, poses,
// and conversions to and from rotation and homogeneous matrices.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Quaternion is a rotation quaternion stored in the (x, y, z, w) order
// used by URDF tooling and physics engines.
type Quaternion struct {
	X, Y, Z, W float64
}

// Identity returns the identity rotation
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// FromEuler returns the quaternion for the fixed-axis rotation
// roll about x, then pitch about y, then yaw about z.
func FromEuler(roll, pitch, yaw float64) Quaternion {
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cy, sy := math.Cos(yaw/2), math.Sin(yaw/2)

	return Quaternion{
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
		W: cr*cp*cy + sr*sp*sy,
	}
}

// FromAxisAngle returns the rotation of angle radians about axis
func FromAxisAngle(axis r3.Vec, angle float64) Quaternion {
	if r3.Norm(axis) == 0 {
		return Identity()
	}
	axis = r3.Unit(axis)
	s := math.Sin(angle / 2)
	return Quaternion{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s,
		W: math.Cos(angle / 2)}
}

// Euler returns the (roll, pitch, yaw) angles of q, the inverse of
// FromEuler.
func (q Quaternion) Euler() (roll, pitch, yaw float64) {
	sinr := 2 * (q.W*q.X + q.Y*q.Z)
	cosr := 1 - 2*(q.X*q.X+q.Y*q.Y)
	roll = math.Atan2(sinr, cosr)

	sinp := 2 * (q.W*q.Y - q.Z*q.X)
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	siny := 2 * (q.W*q.Z + q.X*q.Y)
	cosy := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	yaw = math.Atan2(siny, cosy)
	return
}

// Yaw returns the rotation of q about the world z axis
func (q Quaternion) Yaw() float64 {
	_, _, yaw := q.Euler()
	return yaw
}

func (q Quaternion) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{X: n.Imag, Y: n.Jmag, Z: n.Kmag, W: n.Real}
}

// Mul returns the Hamilton product q*p, the rotation p followed by q
func (q Quaternion) Mul(p Quaternion) Quaternion {
	return fromNumber(quat.Mul(q.number(), p.number()))
}

// Conj returns the inverse rotation of the unit quaternion q
func (q Quaternion) Conj() Quaternion {
	return fromNumber(quat.Conj(q.number()))
}

// Normalize returns q scaled to unit length
func (q Quaternion) Normalize() Quaternion {
	n := quat.Abs(q.number())
	if n == 0 {
		return Identity()
	}
	return fromNumber(quat.Scale(1/n, q.number()))
}

// Rotate rotates the vector v by q
func (q Quaternion) Rotate(v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q.number(), p), quat.Conj(q.number()))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// Slice returns q as [x, y, z, w]
func (q Quaternion) Slice() []float64 {
	return []float64{q.X, q.Y, q.Z, q.W}
}

// Matrix returns the 3x3 rotation matrix of q
func (q Quaternion) Matrix() *mat.Dense {
	q = q.Normalize()
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
	})
}

// Axis returns column i of the rotation matrix of q, the i-th axis of
// the rotated frame expressed in the parent frame.
func (q Quaternion) Axis(i int) r3.Vec {
	m := q.Matrix()
	return r3.Vec{X: m.At(0, i), Y: m.At(1, i), Z: m.At(2, i)}
}

// FromMatrix returns the quaternion of the rotation in the upper-left
// 3x3 block of m. Both 3x3 and 4x4 matrices are accepted.
func FromMatrix(m mat.Matrix) Quaternion {
	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	var q Quaternion
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = Quaternion{
			W: 0.25 / s,
			X: (m21 - m12) * s,
			Y: (m02 - m20) * s,
			Z: (m10 - m01) * s,
		}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = Quaternion{
			W: (m21 - m12) / s,
			X: 0.25 * s,
			Y: (m01 + m10) / s,
			Z: (m02 + m20) / s,
		}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = Quaternion{
			W: (m02 - m20) / s,
			X: (m01 + m10) / s,
			Y: 0.25 * s,
			Z: (m12 + m21) / s,
		}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = Quaternion{
			W: (m10 - m01) / s,
			X: (m02 + m20) / s,
			Y: (m12 + m21) / s,
			Z: 0.25 * s,
		}
	}
	return q.Normalize()
}

// AngleTo returns the angle of the rotation taking q to p
func (q Quaternion) AngleTo(p Quaternion) float64 {
	d := math.Abs(q.X*p.X + q.Y*p.Y + q.Z*p.Z + q.W*p.W)
	if d > 1 {
		d = 1
	}
	return 2 * math.Acos(d)
}
