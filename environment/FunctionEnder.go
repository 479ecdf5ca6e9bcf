package environment

import (
	"fmt"

	ts "github.com/samuelfneumann/helpinghands/timestep"
)

// FunctionEnder ends an episode whenever a predicate over the current
// simulation returns true, such as a task's success check.
type FunctionEnder struct {
	end     func() (bool, error)
	endType ts.EndType
}

// NewFunctionEnder returns a new FunctionEnder which ends episodes with
// end type endType when f returns true.
func NewFunctionEnder(f func() (bool, error), endType ts.EndType) Ender {
	return &FunctionEnder{f, endType}
}

// End determines whether or not the current episode should be ended.
// If so, End() will modify the timestep so that its StepType field is
// timestep.Last and its EndType is the appropriate ending type.
func (f *FunctionEnder) End(t *ts.TimeStep) (bool, error) {
	done, err := f.end()
	if err != nil {
		return false, fmt.Errorf("end: %v", err)
	}
	if done {
		t.StepType = ts.Last
		t.SetEnd(f.endType)
	}
	return done, nil
}
