package render_test

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/fogleman/gg"
	"github.com/samuelfneumann/helpinghands/render"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"github.com/samuelfneumann/helpinghands/utils/tensorutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestHeightmap(t *testing.T) {
	hm := tensor.New(tensor.WithShape(2, 2),
		tensor.WithBacking([]float64{0, 0.05, 0.1, 0.2}))
	dc := gg.NewContext(2*render.PixelScale, 2*render.PixelScale)
	require.NoError(t, render.Heightmap(dc, hm, 0, 0, 0.1))

	img := dc.Image()
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r, "lowest cell is black")
	r, _, _, _ = img.At(2*render.PixelScale-1, 2*render.PixelScale-1).RGBA()
	assert.Equal(t, uint32(0xffff), r, "cells above the max are white")

	assert.Error(t, render.Heightmap(dc, tensor.New(tensor.WithShape(4),
		tensor.WithBacking(make([]float64, 4))), 0, 0, 1))
}

func TestObservation(t *testing.T) {
	obs := ts.Observation{
		Holding:   true,
		Heightmap: tensorutils.Zeros(8, 8),
		InHand:    tensorutils.Zeros(4, 4),
	}
	path := filepath.Join(t.TempDir(), "obs.png")
	require.NoError(t, render.Observation(obs, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 8*render.PixelScale, cfg.Height)
	assert.Greater(t, cfg.Width, 12*render.PixelScale)

	assert.Error(t, render.Observation(ts.Observation{}, path))
}
