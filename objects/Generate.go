package objects

import (
	"fmt"
	"io/fs"
	"math"

	"github.com/samuelfneumann/helpinghands/assets"
	"github.com/samuelfneumann/helpinghands/environment"
	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/samuelfneumann/helpinghands/urdf"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

// HouseholdPattern matches the household object models under the URDF
// directory
const HouseholdPattern = "random_household_object/*/*.urdf"

// Options configures object generation
type Options struct {
	// ModelID selects the plate model, 1 or 2
	ModelID int

	// Index selects the household object. A negative index draws one
	// uniformly with Source.
	Index  int
	Source rand.Source

	// FS holds the URDF files. It defaults to the embedded assets.
	FS fs.FS
}

// Generate loads an object of the given shape at pose with global
// scaling scale
func Generate(engine simulator.Engine, shape Shape, pose geometry.Pose,
	scale float64, opts Options) (*Object, error) {
	if opts.FS == nil {
		opts.FS = assets.FS
	}
	if scale <= 0 {
		return nil, fmt.Errorf("generate: scale must be positive, have %v",
			scale)
	}

	var path string
	var err error
	switch shape {
	case Cube:
		path = urdf.Path("cube.urdf")
	case Brick:
		path = urdf.Path("brick.urdf")
	case Cylinder:
		path = urdf.Path("cylinder.urdf")
	case Triangle:
		path = urdf.Path("triangle.urdf")
	case Roof:
		path = urdf.Path("roof.urdf")
	case Cup:
		path = urdf.Path("cup.urdf")
	case Bowl:
		path = urdf.Path("bowl.urdf")
	case Plate:
		path, err = platePath(opts.ModelID)
	case Spoon:
		path = urdf.Path("random_household_object/spoon/spoon.urdf")
	case RandomBlock:
		path = urdf.Path("random_block.urdf")
	case RandomHousehold:
		path, err = householdPath(opts)
	default:
		err = fmt.Errorf("unknown shape %v", shape)
	}
	if err != nil {
		return nil, fmt.Errorf("generate: %v", err)
	}

	half, err := halfExtents(opts.FS, path)
	if err != nil {
		return nil, fmt.Errorf("generate: %v", err)
	}

	id, err := engine.LoadURDF(path, simulator.NewLoadOptions(pose, scale))
	if err != nil {
		return nil, fmt.Errorf("generate: %v", err)
	}
	return &Object{
		engine: engine,
		id:     id,
		shape:  shape,
		path:   path,
		half:   r3.Scale(scale, half),
	}, nil
}

// Households returns the paths of every household object model
func Households(fsys fs.FS) ([]string, error) {
	if fsys == nil {
		fsys = assets.FS
	}
	paths, err := urdf.Glob(fsys, HouseholdPattern)
	if err != nil {
		return nil, fmt.Errorf("households: %v", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("households: no models match %v",
			HouseholdPattern)
	}
	return paths, nil
}

func platePath(modelID int) (string, error) {
	if modelID != 1 && modelID != 2 {
		return "", fmt.Errorf("no plate model %v", modelID)
	}
	return urdf.Path(fmt.Sprintf("plate%d.urdf", modelID)), nil
}

func householdPath(opts Options) (string, error) {
	paths, err := Households(opts.FS)
	if err != nil {
		return "", err
	}

	index := opts.Index
	if index < 0 {
		if opts.Source == nil {
			return "", fmt.Errorf("random household object needs a source")
		}
		starter := environment.NewCategoricalStarter([]int{len(paths)},
			opts.Source)
		index = int(starter.Start().AtVec(0))
	}
	if index >= len(paths) {
		return "", fmt.Errorf("household index %v out of range [0, %v)",
			index, len(paths))
	}
	return paths[index], nil
}

// halfExtents returns the half sizes of the bounding box of the
// collision shapes of the model's root link
func halfExtents(fsys fs.FS, path string) (r3.Vec, error) {
	model, err := urdf.Load(fsys, path)
	if err != nil {
		return r3.Vec{}, err
	}
	root, err := model.Root()
	if err != nil {
		return r3.Vec{}, err
	}
	link, _ := model.Link(root)
	if len(link.Collisions) == 0 {
		return r3.Vec{}, fmt.Errorf("model %v has no collision shapes", path)
	}

	lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Scale(-1, lo)
	for _, c := range link.Collisions {
		h, err := c.Geometry.HalfExtents()
		if err != nil {
			return r3.Vec{}, err
		}
		origin, err := c.Origin.Pose()
		if err != nil {
			return r3.Vec{}, err
		}
		p := origin.Position
		lo = r3.Vec{X: math.Min(lo.X, p.X-h.X), Y: math.Min(lo.Y, p.Y-h.Y),
			Z: math.Min(lo.Z, p.Z-h.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X+h.X), Y: math.Max(hi.Y, p.Y+h.Y),
			Z: math.Max(hi.Z, p.Z+h.Z)}
	}
	return r3.Scale(0.5, r3.Sub(hi, lo)), nil
}
