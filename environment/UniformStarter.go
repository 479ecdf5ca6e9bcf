package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples vectors uniformly from a box
type UniformStarter struct {
	features int
	rand     *distmv.Uniform
}

// NewUniformStarter returns a UniformStarter over bounds drawing from
// src. Environments share their source across starters so that a
// single seed fixes every episode.
func NewUniformStarter(bounds []r1.Interval, src rand.Source) UniformStarter {
	return UniformStarter{len(bounds), distmv.NewUniform(bounds, src)}
}

// Start returns a sample from the box
func (u UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}
