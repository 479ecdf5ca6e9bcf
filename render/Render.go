// Package render draws heightmaps and in-hand images as greyscale PNG
// files
package render

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"github.com/samuelfneumann/helpinghands/utils/tensorutils"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"gorgonia.org/tensor"
)

// PixelScale is the side length in image pixels of a single
// heightmap cell
const PixelScale = 4

// gap separates the heightmap from the in-hand image
const gap = 8

// Heightmap draws t at (x, y) of dc, one square per cell, with heights
// in [0, maxHeight] mapped from black to white
func Heightmap(dc *gg.Context, t *tensor.Dense, x, y, maxHeight float64) error {
	shape := t.Shape()
	if len(shape) != 2 {
		return fmt.Errorf("heightmap: expected 2 dimensions, have shape %v",
			shape)
	}
	data := tensorutils.Float64s(t)
	rows, cols := shape[0], shape[1]
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := 0.0
			if maxHeight > 0 {
				v = math.Min(data[r*cols+c]/maxHeight, 1)
			}
			dc.SetRGB(v, v, v)
			dc.DrawRectangle(x+float64(c*PixelScale), y+float64(r*PixelScale),
				PixelScale, PixelScale)
			dc.Fill()
		}
	}
	return nil
}

// Observation draws the heightmap of obs with the in-hand image to its
// right and saves the result to path
func Observation(obs ts.Observation, path string) error {
	if obs.Heightmap == nil {
		return fmt.Errorf("observation: no heightmap")
	}
	hm := obs.Heightmap.Shape()
	width, height := hm[1]*PixelScale, hm[0]*PixelScale

	var hand tensor.Shape
	if obs.InHand != nil {
		hand = obs.InHand.Shape()
		width += gap + hand[1]*PixelScale
	}

	// Share a scale between both images so heights compare
	maxHeight := tensorutils.Max(obs.Heightmap)
	if obs.InHand != nil {
		maxHeight = math.Max(maxHeight, tensorutils.Max(obs.InHand))
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(0.2, 0.2, 0.6)
	dc.Clear()

	if err := Heightmap(dc, obs.Heightmap, 0, 0, maxHeight); err != nil {
		return fmt.Errorf("observation: %v", err)
	}
	if obs.InHand != nil {
		x := float64(hm[1]*PixelScale + gap)
		if err := Heightmap(dc, obs.InHand, x, 0, maxHeight); err != nil {
			return fmt.Errorf("observation: %v", err)
		}
		if obs.Holding {
			dc.SetRGB(0, 0.8, 0)
			dc.SetLineWidth(2)
			dc.DrawRectangle(x, 0, float64(hand[1]*PixelScale),
				float64(hand[0]*PixelScale))
			dc.Stroke()
		}
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("observation: %v", err)
	}
	return nil
}
