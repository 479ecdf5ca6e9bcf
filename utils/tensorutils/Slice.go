package tensorutils

// Slice is a range of a tensor dimension, used with tensor.Dense.Slice.
// Given a tensor T and a Slice S, T.Slice(..., S, ...) is equivalent to
// T[..., S.start:S.end:S.step, ...]
type Slice struct {
	start, end, step int
}

// NewSlice returns a new Slice over [start, stop) with the given step
func NewSlice(start, stop, step int) Slice {
	return Slice{start, stop, step}
}

// Start returns the start index of the slice
func (s Slice) Start() int {
	return s.start
}

// End returns the end index of the slice, which is excluded
func (s Slice) End() int {
	return s.end
}

// Step returns the step of the slice
func (s Slice) Step() int {
	return s.step
}
