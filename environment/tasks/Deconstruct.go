package tasks

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/environment/manipulation"
	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/objects"
	"github.com/samuelfneumann/helpinghands/simulator"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// dropGap is the height above the structure at which the next
	// object is loaded before it settles
	dropGap = 0.005

	// wallOffset is the distance of each wall from the roof centre
	// along the roof, in unscaled model units
	wallOffset = 0.05
)

// builder builds a structure on a base position with a yaw and returns
// the objects of the structure
type builder func(d *Deconstruct, base r3.Vec, yaw, scale float64) error

// Deconstruct starts each episode with a built structure. It is solved
// once every object lies on the ground apart from the others.
type Deconstruct struct {
	*manipulation.Env
	build builder
	check func() (bool, error)

	// structure holds the objects in the order they were built
	structure []*objects.Object
}

func newDeconstruct(env *manipulation.Env, build builder) *Deconstruct {
	d := &Deconstruct{Env: env, build: build}
	env.SetTermination(env.ObjectsOnGroundSeparated)
	return d
}

func newHouseBuilding1Deconstruct(env *manipulation.Env) (Task, error) {
	if env.Config().NumObjects < 2 {
		return nil, fmt.Errorf("newHouseBuilding1Deconstruct: need a "+
			"triangle and at least 1 cube, have %d objects",
			env.Config().NumObjects)
	}
	d := newDeconstruct(env, buildTower)
	d.check = func() (bool, error) {
		stacked, err := d.CheckStack(nil)
		if err != nil || !stacked {
			return false, err
		}
		return d.IsObjOnTop(d.structure[len(d.structure)-1])
	}
	return d, nil
}

func newHouseBuilding2Deconstruct(env *manipulation.Env) (Task, error) {
	d := newDeconstruct(env, buildHouse)
	d.check = func() (bool, error) {
		return roofOnWalls(d.Env, d.structure[2], d.structure[:2])
	}
	return d, nil
}

// Base implements the Task interface
func (d *Deconstruct) Base() *manipulation.Env {
	return d.Env
}

// Structure returns the objects of the built structure, bottom first
func (d *Deconstruct) Structure() []*objects.Object {
	return d.structure
}

// Reset starts a new episode with the structure built at a random
// position. Structures that do not stand are rebuilt.
func (d *Deconstruct) Reset() (ts.TimeStep, error) {
	cfg := d.Config()
	src := d.Source()
	yaw := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: src}
	scale := distuv.Uniform{
		Min: cfg.ObjectScaleRange.Min,
		Max: cfg.ObjectScaleRange.Max,
		Src: src,
	}

	step, err := d.ResetWith(func() error {
		d.structure = nil
		pos, err := d.ValidPositions(cfg.MinBoarderPadding+brickPadding,
			cfg.MinObjectDistance, nil, 1)
		if err != nil {
			return err
		}

		theta := 0.0
		if cfg.RandomOrientation {
			theta = yaw.Rand()
		}
		if err := d.build(d, pos[0], theta, scale.Rand()); err != nil {
			return err
		}

		ok, err := d.check()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: structure did not stand",
				simulator.ErrNoValidPosition)
		}
		return nil
	})
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	return step, nil
}

// place loads one object of the structure at pos, dropped just above
// top, and returns it with its top surface height
func (d *Deconstruct) place(shape objects.Shape, pos r3.Vec, top, yaw,
	scale float64) (*objects.Object, float64, error) {
	pos.Z = top + dropGap
	obj, err := d.GenerateShapes(shape, 1, manipulation.GenerateOptions{
		Scale:     scale,
		Positions: []r3.Vec{pos},
		Rotations: []geometry.Quaternion{geometry.FromEuler(0, 0, yaw)},
	})
	if err != nil {
		return nil, 0, err
	}
	z, err := obj[0].ZPosition()
	if err != nil {
		return nil, 0, err
	}
	d.structure = append(d.structure, obj[0])
	return obj[0], z + obj[0].Height()/2, nil
}

// buildTower stacks cubes with a triangle on top
func buildTower(d *Deconstruct, base r3.Vec, yaw, scale float64) error {
	top := d.Config().Workspace[2].Min
	var err error
	for i := 0; i < d.Config().NumObjects-1; i++ {
		if _, top, err = d.place(objects.Cube, base, top, yaw, scale); err != nil {
			return err
		}
	}
	_, _, err = d.place(objects.Triangle, base, top, yaw, scale)
	return err
}

// buildHouse places two cubes along the yaw direction and rests a roof
// across them
func buildHouse(d *Deconstruct, base r3.Vec, yaw, scale float64) error {
	floor := d.Config().Workspace[2].Min
	along := r3.Vec{X: math.Cos(yaw), Y: math.Sin(yaw)}
	offset := r3.Scale(wallOffset*scale, along)

	var top float64
	var err error
	for _, pos := range []r3.Vec{r3.Sub(base, offset), r3.Add(base, offset)} {
		if _, top, err = d.place(objects.Cube, pos, floor, yaw, scale); err != nil {
			return err
		}
	}
	_, _, err = d.place(objects.Roof, base, top, yaw, scale)
	return err
}
