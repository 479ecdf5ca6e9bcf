package manipulation

import (
	"fmt"
	"math"

	ts "github.com/samuelfneumann/helpinghands/timestep"
	"github.com/samuelfneumann/helpinghands/utils/intutils"
	"github.com/samuelfneumann/helpinghands/utils/tensorutils"
	"gorgonia.org/tensor"
)

// Observation renders a heightmap and returns the current observation
func (e *Env) Observation() (ts.Observation, error) {
	hm, err := e.Sensor.Heightmap(e.config.ObsSize)
	if err != nil {
		return ts.Observation{}, fmt.Errorf("observation: %v", err)
	}
	e.heightmap = hm

	holding := e.IsHolding()
	if !holding {
		e.inHand = tensorutils.Zeros(e.config.InHandSize, e.config.InHandSize)
	}
	return ts.Observation{
		Holding:   holding,
		InHand:    e.inHand,
		Heightmap: hm,
	}, nil
}

// Resolution returns the side length of a heightmap pixel in metres
func (e *Env) Resolution() float64 {
	return e.config.WorkspaceSize() / float64(e.config.ObsSize)
}

// Pixel returns the heightmap row and column of the world position
// (x, y). Rows run along x and columns along y; positions outside the
// workspace are clamped to its border.
func (e *Env) Pixel(x, y float64) (row, col int) {
	ws := e.config.Workspace
	res := e.Resolution()
	last := e.config.ObsSize - 1
	row = intutils.Clamp(int(math.Floor((x-ws[0].Min)/res)), 0, last)
	col = intutils.Clamp(int(math.Floor((y-ws[1].Min)/res)), 0, last)
	return row, col
}

// LocalRegion returns the heightmap window of half width halfWidth
// metres centred on (x, y)
func (e *Env) LocalRegion(x, y, halfWidth float64) (*tensor.Dense, error) {
	if e.heightmap == nil {
		if _, err := e.Observation(); err != nil {
			return nil, fmt.Errorf("localRegion: %v", err)
		}
	}
	row, col := e.Pixel(x, y)
	half := int(math.Ceil(halfWidth / e.Resolution()))
	region, err := tensorutils.Region(e.heightmap, row-half, row+half+1,
		col-half, col+half+1)
	if err != nil {
		return nil, fmt.Errorf("localRegion: %v", err)
	}
	return region, nil
}

// inHandImage returns the heightmap crop around (x, y) aligned with a
// gripper at yaw rot
func (e *Env) inHandImage(x, y, rot float64) (*tensor.Dense, error) {
	row, col := e.Pixel(x, y)
	crop, err := tensorutils.Crop(e.heightmap, row, col, e.config.InHandSize)
	if err != nil {
		return nil, err
	}
	return tensorutils.Rotate(crop, -rot)
}
