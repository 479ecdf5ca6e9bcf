package kinematic

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/unixpickle/essentials"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// CameraImage renders the depth buffer and segmentation mask of the
// world by casting one ray per pixel through the view frustum.
func (w *World) CameraImage(width, height int, view,
	proj [16]float64) (img simulator.CameraImage, err error) {
	defer essentials.AddCtxTo("camera image", &err)
	if width <= 0 || height <= 0 {
		return simulator.CameraImage{}, fmt.Errorf("invalid image size %vx%v",
			width, height)
	}

	v := simulator.Matrix(view)
	p := simulator.Matrix(proj)
	var pv, inv mat.Dense
	pv.Mul(p, v)
	if err := inv.Inverse(&pv); err != nil {
		return simulator.CameraImage{}, fmt.Errorf("singular camera: %v", err)
	}

	// The near and far planes are recovered from the projection
	near := p.At(2, 3) / (p.At(2, 2) - 1)
	far := p.At(2, 3) / (p.At(2, 2) + 1)

	var boxes []obb
	for _, id := range w.ids() {
		boxes = append(boxes, w.bodies[id].boxes()...)
	}
	inverses := make([]geometry.Pose, len(boxes))
	for i, box := range boxes {
		inverses[i] = box.pose.Inverse()
	}

	img = simulator.CameraImage{
		Width:        width,
		Height:       height,
		Depth:        make([]float64, width*height),
		Segmentation: make([]int, width*height),
	}
	for r := 0; r < height; r++ {
		y := 1 - (2*float64(r)+1)/float64(height)
		for c := 0; c < width; c++ {
			x := (2*float64(c)+1)/float64(width) - 1

			origin := unproject(&inv, x, y, -1)
			dir := r3.Unit(r3.Sub(unproject(&inv, x, y, 1), origin))

			k := r*width + c
			img.Depth[k] = 1
			img.Segmentation[k] = -1

			best := math.Inf(1)
			for i, box := range boxes {
				t, ok := box.intersectRay(inverses[i], origin, dir)
				if !ok || t >= best {
					continue
				}
				best = t
				img.Segmentation[k] = int(box.body)
			}
			if math.IsInf(best, 1) {
				continue
			}

			hit := r3.Add(origin, r3.Scale(best, dir))
			z := -eyeDepth(v, hit)
			img.Depth[k] = math.Max(0, math.Min(1,
				simulator.BufferDepth(z, near, far)))
		}
	}
	return img, nil
}

// unproject maps normalized device coordinates to world coordinates
func unproject(inv mat.Matrix, x, y, z float64) r3.Vec {
	ndc := mat.NewVecDense(4, []float64{x, y, z, 1})
	var out mat.VecDense
	out.MulVec(inv, ndc)
	w := out.AtVec(3)
	return r3.Vec{X: out.AtVec(0) / w, Y: out.AtVec(1) / w, Z: out.AtVec(2) / w}
}

// eyeDepth returns the z coordinate of p in eye space
func eyeDepth(view mat.Matrix, p r3.Vec) float64 {
	return view.At(2, 0)*p.X + view.At(2, 1)*p.Y + view.At(2, 2)*p.Z +
		view.At(2, 3)
}
