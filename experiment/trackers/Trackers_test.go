package trackers_test

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/helpinghands/experiment/tracker"
	"github.com/samuelfneumann/helpinghands/experiment/trackers"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"github.com/samuelfneumann/helpinghands/utils/tensorutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func step(t ts.StepType, reward float64, n int) ts.TimeStep {
	obs := ts.Observation{Heightmap: tensorutils.Zeros(4, 4)}
	return ts.New(t, reward, 0.99, obs, n)
}

func TestReturn(t *testing.T) {
	r := trackers.NewReturn(filepath.Join(t.TempDir(), "return.bin"))
	r.Track(step(ts.First, 0, 0))
	r.Track(step(ts.Mid, -2, 1))
	r.Track(step(ts.Last, -1, 2))

	// An unfinished episode is not saved
	r.Track(step(ts.First, 0, 0))
	r.Track(step(ts.Mid, 5, 1))

	r.Track(step(ts.First, 0, 0))
	r.Track(step(ts.Last, 1, 1))
	assert.Equal(t, []float64{-3, 1}, r.Returns())

	assert.Panics(t, func() { r.Track(step(ts.Mid, 0, 3)) })
}

func TestSuccess(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "success.bin")
	s := trackers.NewSuccess(filename)
	assert.Equal(t, 0.0, s.Rate())

	solved := step(ts.Last, 1, 1)
	solved.SetEnd(ts.TerminalStateReached)
	timeout := step(ts.Last, 0, 10)
	timeout.SetEnd(ts.Timeout)

	s.Track(step(ts.Mid, 0, 1))
	s.Track(solved)
	s.Track(timeout)
	assert.Equal(t, 2, s.Episodes())
	assert.Equal(t, 0.5, s.Rate())

	require.NoError(t, s.Save())
	data, err := tracker.LoadData(filename)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, data)
}

func TestDemonstrations(t *testing.T) {
	action := mat.NewVecDense(5, []float64{0, 0.5, 0, 0.02, 0})
	timeout := step(ts.Last, 0, 2)
	timeout.SetEnd(ts.Timeout)

	episode := func(d *trackers.Demonstrations) {
		d.Track(step(ts.First, 0, 0))
		mid := step(ts.Mid, 0, 1)
		d.TrackAction(action, mid)
		d.Track(mid)
		d.TrackAction(action, timeout)
		d.Track(timeout)
	}

	successOnly := trackers.NewDemonstrations("", true)
	episode(successOnly)
	assert.Empty(t, successOnly.Transitions())

	all := trackers.NewDemonstrations("", false)
	episode(all)
	transitions := all.Transitions()
	require.Len(t, transitions, 2)
	assert.Equal(t, transitions[0].Episode, transitions[1].Episode)
	assert.False(t, transitions[0].Last)
	assert.True(t, transitions[1].Last)
	assert.Equal(t, ts.Timeout, transitions[1].EndType)
	assert.Equal(t, []float64{0, 0.5, 0, 0.02, 0}, transitions[0].Action)
	assert.Equal(t, []int{4, 4}, transitions[0].NextObservation.HeightmapShape)
	assert.Nil(t, transitions[0].NextObservation.InHand)

	episode(all)
	transitions = all.Transitions()
	require.Len(t, transitions, 4)
	assert.NotEqual(t, transitions[0].Episode, transitions[2].Episode)
}

func TestLoadMissing(t *testing.T) {
	_, err := tracker.LoadData(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
	_, err = trackers.LoadDemonstrations(filepath.Join(t.TempDir(),
		"missing.bin"))
	assert.Error(t, err)
}
