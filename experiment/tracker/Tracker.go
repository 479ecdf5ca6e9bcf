// Package tracker outlines Trackers, which cache data generated during
// an experiment and save it to disk once the experiment is over
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	ts "github.com/samuelfneumann/helpinghands/timestep"
	"gonum.org/v1/gonum/mat"
)

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished
type Tracker interface {
	Track(t ts.TimeStep)
	Save() error
}

// ActionTracker is a Tracker which also needs the actions taken. An
// experiment calls TrackAction with the action and the timestep it led
// to, before calling Track with that same timestep.
type ActionTracker interface {
	Tracker
	TrackAction(action mat.Vector, next ts.TimeStep)
}

// Encode gob-encodes data to filename, creating missing directories
func Encode(filename string, data interface{}) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("encode: could not create directory: %v", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("encode: could not open save file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(data); err != nil {
		return fmt.Errorf("encode: could not encode data: %v", err)
	}
	return nil
}

// Decode decodes the gob-encoded data in filename into data, which
// must be a pointer
func Decode(filename string, data interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("decode: could not open data file: %v", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(data); err != nil {
		return fmt.Errorf("decode: could not decode data: %v", err)
	}
	return nil
}

// LoadData loads and returns the per-episode data saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	var data []float64
	if err := Decode(filename, &data); err != nil {
		return nil, fmt.Errorf("loadData: %v", err)
	}
	return data, nil
}
