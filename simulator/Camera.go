package simulator

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ComputeViewMatrix returns the column-major OpenGL look-at matrix of a
// camera at eye looking at target with the given up vector.
func ComputeViewMatrix(eye, target, up r3.Vec) [16]float64 {
	f := r3.Unit(r3.Sub(target, eye))
	s := r3.Unit(r3.Cross(f, up))
	u := r3.Cross(s, f)

	return [16]float64{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-r3.Dot(s, eye), -r3.Dot(u, eye), r3.Dot(f, eye), 1,
	}
}

// ComputeProjectionMatrixFOV returns the column-major OpenGL
// perspective projection for a vertical field of view fov in degrees.
func ComputeProjectionMatrixFOV(fov, aspect, near, far float64) [16]float64 {
	yScale := 1 / math.Tan(fov*math.Pi/360)
	xScale := yScale / aspect

	return [16]float64{
		xScale, 0, 0, 0,
		0, yScale, 0, 0,
		0, 0, (far + near) / (near - far), -1,
		0, 0, 2 * far * near / (near - far), 0,
	}
}

// Matrix returns the 4x4 matrix stored column-major in m
func Matrix(m [16]float64) *mat.Dense {
	d := mat.NewDense(4, 4, nil)
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			d.Set(i, j, m[4*j+i])
		}
	}
	return d
}

// LinearDepth converts a non-linear depth buffer value to the distance
// along the camera axis.
func LinearDepth(d, near, far float64) float64 {
	return far * near / (far - (far-near)*d)
}

// BufferDepth converts a distance along the camera axis into the
// non-linear depth buffer value, the inverse of LinearDepth.
func BufferDepth(z, near, far float64) float64 {
	return (far - far*near/z) / (far - near)
}
