package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CategoricalStarter samples integer-valued vectors, such as model
// indices. Element i is uniform over 0, 1, ..., counts[i]-1.
type CategoricalStarter struct {
	dists []distuv.Categorical
}

// NewCategoricalStarter returns a new CategoricalStarter drawing from
// src
func NewCategoricalStarter(counts []int, src rand.Source) CategoricalStarter {
	dists := make([]distuv.Categorical, len(counts))
	for i, n := range counts {
		weights := make([]float64, n)
		for j := range weights {
			weights[j] = 1
		}
		dists[i] = distuv.NewCategorical(weights, src)
	}
	return CategoricalStarter{dists}
}

// Start returns a sampled vector
func (c CategoricalStarter) Start() *mat.VecDense {
	v := mat.NewVecDense(len(c.dists), nil)
	for i := range c.dists {
		v.SetVec(i, c.dists[i].Rand())
	}
	return v
}
