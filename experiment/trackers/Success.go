package trackers

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/experiment/tracker"
	ts "github.com/samuelfneumann/helpinghands/timestep"
)

// Success tracks whether each episode ended by solving its task. A
// solved episode is saved as 1 and any other as 0.
type Success struct {
	successes []float64
	filename  string
}

// NewSuccess returns a new Success tracker saving to filename
func NewSuccess(filename string) *Success {
	return &Success{filename: filename}
}

// Track records the outcome of an episode on its last timestep
func (s *Success) Track(step ts.TimeStep) {
	if !step.Last() {
		return
	}
	if step.EndType == ts.TerminalStateReached {
		s.successes = append(s.successes, 1)
	} else {
		s.successes = append(s.successes, 0)
	}
}

// Rate returns the fraction of finished episodes which were solved. It
// is 0 before any episode finishes.
func (s *Success) Rate() float64 {
	if len(s.successes) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range s.successes {
		total += v
	}
	return total / float64(len(s.successes))
}

// Episodes returns the number of finished episodes
func (s *Success) Episodes() int {
	return len(s.successes)
}

// Save saves the per-episode successes to disk
func (s *Success) Save() error {
	if err := tracker.Encode(s.filename, s.successes); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
