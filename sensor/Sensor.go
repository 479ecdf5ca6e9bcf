// Package sensor implements a top-down depth camera that turns
// rendered depth buffers into heightmaps and point clouds
package sensor

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/unixpickle/essentials"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gorgonia.org/tensor"
)

// Sensor is a square depth camera
type Sensor struct {
	engine     simulator.Engine
	view, proj [16]float64
	near, far  float64

	// fov is the vertical field of view in degrees, chosen so that a
	// square of side targetSize at the far plane fills the image
	fov float64
}

// New returns a camera at camPos looking at target
func New(engine simulator.Engine, camPos, camUp, target r3.Vec, targetSize,
	near, far float64) *Sensor {
	fov := 2 * math.Atan((targetSize/2)/far) * 180 / math.Pi
	return &Sensor{
		engine: engine,
		view:   simulator.ComputeViewMatrix(camPos, target, camUp),
		proj:   simulator.ComputeProjectionMatrixFOV(fov, 1, near, far),
		near:   near,
		far:    far,
		fov:    fov,
	}
}

// ViewMatrix returns the column-major view matrix
func (s *Sensor) ViewMatrix() [16]float64 {
	return s.view
}

// ProjectionMatrix returns the column-major projection matrix
func (s *Sensor) ProjectionMatrix() [16]float64 {
	return s.proj
}

// FOV returns the field of view in degrees
func (s *Sensor) FOV() float64 {
	return s.fov
}

// Heightmap renders a size x size heightmap: the distance of each pixel
// above the farthest rendered point
func (s *Sensor) Heightmap(size int) (hm *tensor.Dense, err error) {
	defer essentials.AddCtxTo("heightmap", &err)
	img, err := s.engine.CameraImage(size, size, s.view, s.proj)
	if err != nil {
		return nil, err
	}

	depth := make([]float64, len(img.Depth))
	max := math.Inf(-1)
	for i, d := range img.Depth {
		depth[i] = simulator.LinearDepth(d, s.near, s.far)
		max = math.Max(max, depth[i])
	}
	for i := range depth {
		depth[i] = math.Abs(depth[i] - max)
	}
	return tensor.New(tensor.WithShape(size, size), tensor.WithBacking(depth)),
		nil
}

// PointCloud renders a size x size depth image and unprojects every
// pixel into world coordinates, returning a (size*size, 3) tensor in
// row-major pixel order
func (s *Sensor) PointCloud(size int) (pc *tensor.Dense, err error) {
	defer essentials.AddCtxTo("point cloud", &err)
	img, err := s.engine.CameraImage(size, size, s.view, s.proj)
	if err != nil {
		return nil, err
	}

	var pv, inv mat.Dense
	pv.Mul(simulator.Matrix(s.proj), simulator.Matrix(s.view))
	if err := inv.Inverse(&pv); err != nil {
		return nil, fmt.Errorf("singular camera: %v", err)
	}

	// One homogeneous NDC column per pixel
	n := size * size
	ndc := mat.NewDense(4, n, nil)
	half := float64(size) / 2
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			k := r*size + c
			ndc.Set(0, k, float64(c)/half-1)
			ndc.Set(1, k, -(float64(r)/half - 1))
			ndc.Set(2, k, 2*img.Depth[k]-1)
			ndc.Set(3, k, 1)
		}
	}

	var world mat.Dense
	world.Mul(&inv, ndc)

	points := make([]float64, 3*n)
	for k := 0; k < n; k++ {
		w := world.At(3, k)
		for i := 0; i < 3; i++ {
			points[3*k+i] = world.At(i, k) / w
		}
	}
	return tensor.New(tensor.WithShape(n, 3), tensor.WithBacking(points)), nil
}
