package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType is what a Spec describes
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
)

func (s SpecType) String() string {
	switch s {
	case Action:
		return "Action"
	case Observation:
		return "Observation"
	default:
		return "Discount"
	}
}

// Cardinality is whether the values of a Spec are discrete or
// continuous
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec describes the flattened layout of actions, observations, or
// discounts: one bound pair per element
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec returns a new Spec. The bounds must have the length of
// shape, otherwise NewSpec panics.
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() || shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("newSpec: %v spec of length %v has bounds of "+
			"lengths %v and %v", t, shape.Len(), lowerBound.Len(),
			upperBound.Len()))
	}
	return Spec{
		Shape:       shape,
		Type:        t,
		LowerBound:  lowerBound,
		UpperBound:  upperBound,
		Cardinality: cardinality,
	}
}

// Contains returns whether every element of v lies within its bounds.
// Vectors of another length are never contained.
func (s Spec) Contains(v mat.Vector) bool {
	if v.Len() != s.LowerBound.Len() {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		if x < s.LowerBound.AtVec(i) || x > s.UpperBound.AtVec(i) {
			return false
		}
	}
	return true
}
