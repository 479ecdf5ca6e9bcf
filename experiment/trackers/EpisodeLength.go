package trackers

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/experiment/tracker"
	"github.com/samuelfneumann/helpinghands/timestep"
)

// EpisodeLength tracks and saves the number of actions taken in each
// episode. Unfinished episodes are not saved.
type EpisodeLength struct {
	episodeLengths []float64
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength tracker which saves its
// data at filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track records the episode length when t is the last timestep of an
// episode
func (e *EpisodeLength) Track(t timestep.TimeStep) {
	if t.Last() {
		e.episodeLengths = append(e.episodeLengths, float64(t.Number))
	}
}

// Lengths returns the lengths of all finished episodes
func (e *EpisodeLength) Lengths() []float64 {
	return e.episodeLengths
}

// Save saves the episode lengths to disk
func (e *EpisodeLength) Save() error {
	if err := tracker.Encode(e.filename, e.episodeLengths); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
