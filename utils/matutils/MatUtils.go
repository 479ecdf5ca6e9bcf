// Package matutils implements utility functions for working with
// mat.Matrix structs
package matutils

import "gonum.org/v1/gonum/mat"

// VecSlice returns a copy of the elements of a vector
func VecSlice(v mat.Vector) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
