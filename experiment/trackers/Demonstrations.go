package trackers

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/samuelfneumann/helpinghands/experiment/tracker"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"github.com/samuelfneumann/helpinghands/utils/matutils"
	"github.com/samuelfneumann/helpinghands/utils/tensorutils"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Frame is an observation flattened for saving
type Frame struct {
	Holding bool

	// Images are saved in row-major order with their shapes
	HeightmapShape []int
	Heightmap      []float64
	InHandShape    []int
	InHand         []float64
}

// NewFrame returns a copy of obs as a Frame
func NewFrame(obs ts.Observation) Frame {
	f := Frame{Holding: obs.Holding}
	f.HeightmapShape, f.Heightmap = flatten(obs.Heightmap)
	f.InHandShape, f.InHand = flatten(obs.InHand)
	return f
}

func flatten(t *tensor.Dense) ([]int, []float64) {
	if t == nil {
		return nil, nil
	}
	data := tensorutils.Float64s(t)
	return append([]int(nil), t.Shape()...),
		append([]float64(nil), data...)
}

// Transition is a single step of a demonstration
type Transition struct {
	// Episode identifies the episode the transition belongs to
	Episode uuid.UUID
	Step    int

	Observation     Frame
	Action          []float64
	Reward          float64
	Discount        float64
	NextObservation Frame

	// Last is whether the transition ends its episode, and EndType why
	Last    bool
	EndType ts.EndType
}

// Demonstrations records every transition of an experiment, such as the
// expert transitions of a planner. Only transitions of episodes solved
// by reaching a terminal state are saved when successOnly is set.
type Demonstrations struct {
	filename    string
	successOnly bool

	episode uuid.UUID
	obs     Frame
	current []Transition
	saved   []Transition
}

// NewDemonstrations returns a new Demonstrations tracker saving to
// filename
func NewDemonstrations(filename string, successOnly bool) *Demonstrations {
	return &Demonstrations{filename: filename, successOnly: successOnly}
}

// Track keeps the observation of step to start the next transition. A
// first timestep starts a new episode, dropping the transitions of an
// unfinished one.
func (d *Demonstrations) Track(step ts.TimeStep) {
	if step.First() {
		d.episode = uuid.New()
		d.current = d.current[:0]
	}
	d.obs = NewFrame(step.Observation)
}

// TrackAction records the transition from the last tracked observation
// through action to next
func (d *Demonstrations) TrackAction(action mat.Vector, next ts.TimeStep) {
	t := Transition{
		Episode:         d.episode,
		Step:            next.Number,
		Observation:     d.obs,
		Action:          matutils.VecSlice(action),
		Reward:          next.Reward,
		Discount:        next.Discount,
		NextObservation: NewFrame(next.Observation),
		Last:            next.Last(),
		EndType:         next.EndType,
	}
	d.current = append(d.current, t)

	if !next.Last() {
		return
	}
	if !d.successOnly || next.EndType == ts.TerminalStateReached {
		d.saved = append(d.saved, d.current...)
	}
	d.current = d.current[:0]
}

// Transitions returns the transitions of the finished episodes kept so
// far
func (d *Demonstrations) Transitions() []Transition {
	return d.saved
}

// Save saves the kept transitions to disk
func (d *Demonstrations) Save() error {
	if err := tracker.Encode(d.filename, d.saved); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// LoadDemonstrations loads the transitions saved by a Demonstrations
// tracker
func LoadDemonstrations(filename string) ([]Transition, error) {
	var data []Transition
	if err := tracker.Decode(filename, &data); err != nil {
		return nil, fmt.Errorf("loadDemonstrations: %v", err)
	}
	return data, nil
}
