package manipulation

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/environment"
	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/objects"
	"github.com/samuelfneumann/helpinghands/simulator"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// maxPositionAttempts is the number of samples drawn for a single
	// position before placement fails
	maxPositionAttempts = 100

	// spawnHeight is the height above the workspace floor at which
	// objects without a given position are loaded before they settle
	spawnHeight = 0.05

	settleSteps = 10
)

// GenerateOptions configures GenerateShapes. Zero values select the
// environment's defaults.
type GenerateOptions struct {
	// Scale of the objects. Zero draws a scale uniformly from the
	// configured object scale range for each object.
	Scale float64

	// Positions of the objects. If nil, positions are sampled with
	// ValidPositions.
	Positions []r3.Vec

	// Rotations of the objects. If nil, objects are upright with a
	// random yaw when RandomOrientation is set.
	Rotations         []geometry.Quaternion
	RandomOrientation bool

	// Padding from the workspace border and the minimum distance
	// between objects used when sampling positions. Nil selects the
	// configured MinBoarderPadding and MinObjectDistance; zero is a
	// valid spacing.
	Padding     *float64
	MinDistance *float64

	// ModelID and Index select plate and household object models
	ModelID int
	Index   int
}

// Float64 returns a pointer to v, for the optional fields of
// GenerateOptions
func Float64(v float64) *float64 { return &v }

// GenerateShapes loads n objects of the given shape, records them as
// task objects, and lets them settle. It returns
// simulator.ErrNoValidPosition if positions must be sampled and no
// valid placement is found.
func (e *Env) GenerateShapes(shape objects.Shape, n int,
	opts GenerateOptions) ([]*objects.Object, error) {
	if opts.Positions != nil && len(opts.Positions) != n {
		return nil, fmt.Errorf("generateShapes: have %d positions for %d "+
			"objects", len(opts.Positions), n)
	}
	if opts.Rotations != nil && len(opts.Rotations) != n {
		return nil, fmt.Errorf("generateShapes: have %d rotations for %d "+
			"objects", len(opts.Rotations), n)
	}
	padding, minDistance := e.config.MinBoarderPadding, e.config.MinObjectDistance
	if opts.Padding != nil {
		padding = *opts.Padding
	}
	if opts.MinDistance != nil {
		minDistance = *opts.MinDistance
	}
	if opts.ModelID == 0 {
		opts.ModelID = e.config.ModelID
	}

	positions := opts.Positions
	if positions == nil {
		existing, err := e.objectPositions()
		if err != nil {
			return nil, fmt.Errorf("generateShapes: %v", err)
		}
		positions, err = e.ValidPositions(padding, minDistance,
			existing, n)
		if err != nil {
			return nil, fmt.Errorf("generateShapes: %w", err)
		}
		for i := range positions {
			positions[i].Z += spawnHeight
		}
	}

	yaw := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: e.src}
	scale := distuv.Uniform{
		Min: e.config.ObjectScaleRange.Min,
		Max: e.config.ObjectScaleRange.Max,
		Src: e.src,
	}

	generated := make([]*objects.Object, 0, n)
	for i := 0; i < n; i++ {
		rot := geometry.Identity()
		if opts.Rotations != nil {
			rot = opts.Rotations[i]
		} else if opts.RandomOrientation {
			rot = geometry.FromEuler(0, 0, yaw.Rand())
		}
		s := opts.Scale
		if s == 0 {
			s = scale.Rand()
		}

		obj, err := objects.Generate(e.Engine, shape,
			geometry.NewPose(positions[i], rot), s, objects.Options{
				ModelID: opts.ModelID,
				Index:   opts.Index,
				Source:  e.src,
			})
		if err != nil {
			return nil, fmt.Errorf("generateShapes: %v", err)
		}
		generated = append(generated, obj)
		e.objects = append(e.objects, obj)
	}

	if err := e.Wait(settleSteps); err != nil {
		return nil, fmt.Errorf("generateShapes: %v", err)
	}
	return generated, nil
}

func (e *Env) objectPositions() ([]r3.Vec, error) {
	positions := make([]r3.Vec, len(e.objects))
	for i, obj := range e.objects {
		pos, err := obj.Position()
		if err != nil {
			return nil, err
		}
		positions[i] = pos
	}
	return positions, nil
}

// ValidPositions samples n positions on the workspace floor at least
// padding inside the workspace border and at least minDistance in the
// x-y plane from each other and from existing. It returns
// simulator.ErrNoValidPosition if a position cannot be found in
// maxPositionAttempts samples.
func (e *Env) ValidPositions(padding, minDistance float64, existing []r3.Vec,
	n int) ([]r3.Vec, error) {
	ws := e.config.Workspace
	bounds := []r1.Interval{
		{Min: ws[0].Min + padding, Max: ws[0].Max - padding},
		{Min: ws[1].Min + padding, Max: ws[1].Max - padding},
	}
	for _, b := range bounds {
		if b.Min > b.Max {
			return nil, fmt.Errorf("validPositions: %w: padding %v leaves "+
				"no workspace", simulator.ErrNoValidPosition, padding)
		}
	}
	starter := environment.NewUniformStarter(bounds, e.src)

	taken := append([]r3.Vec(nil), existing...)
	positions := make([]r3.Vec, 0, n)
	for i := 0; i < n; i++ {
		found := false
		for attempt := 0; attempt < maxPositionAttempts && !found; attempt++ {
			v := starter.Start()
			candidate := r3.Vec{X: v.AtVec(0), Y: v.AtVec(1), Z: ws[2].Min}
			if farFrom(candidate, taken, minDistance) {
				positions = append(positions, candidate)
				taken = append(taken, candidate)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("validPositions: %w for object %d of %d",
				simulator.ErrNoValidPosition, i+1, n)
		}
	}
	return positions, nil
}

// farFrom returns whether p is at least d from every point of others
// in the x-y plane
func farFrom(p r3.Vec, others []r3.Vec, d float64) bool {
	for _, o := range others {
		if math.Hypot(p.X-o.X, p.Y-o.Y) < d {
			return false
		}
	}
	return true
}
