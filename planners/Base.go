package planners

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/manipulation"
	"github.com/samuelfneumann/helpinghands/objects"
	"github.com/samuelfneumann/helpinghands/robots"
	"github.com/samuelfneumann/helpinghands/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Base holds what every planner needs: the environment it plans for,
// noise on the chosen positions and rotations, and action encoding
type Base struct {
	env    *manipulation.Env
	config envconfig.Config
	src    rand.Source

	posNoise distuv.Uniform
	rotNoise distuv.Uniform
}

// NewBase returns a Base planning over env. Planner noise is drawn
// from its own source seeded by the configuration.
func NewBase(env *manipulation.Env, config envconfig.Config) *Base {
	src := rand.NewSource(config.Seed)
	return &Base{
		env:      env,
		config:   config,
		src:      src,
		posNoise: distuv.Uniform{Min: -config.PosNoise, Max: config.PosNoise, Src: src},
		rotNoise: distuv.Uniform{Min: -config.RotNoise, Max: config.RotNoise, Src: src},
	}
}

// Env returns the environment planned over
func (b *Base) Env() *manipulation.Env {
	return b.env
}

// rotationPeriod is the range of gripper rotations, half a turn when
// the gripper is symmetric
func (b *Base) rotationPeriod() float64 {
	if b.config.HalfRotation {
		return math.Pi
	}
	return 2 * math.Pi
}

// EncodeAction returns the action vector of primitive p at (x, y, z)
// with gripper rotation r, in the order of the action sequence.
// Components the sequence leaves out are dropped and r is wrapped into
// the rotation range.
func (b *Base) EncodeAction(p robots.Primitive, x, y, z,
	r float64) *mat.VecDense {
	r = floatutils.WrapAngle(r, b.rotationPeriod())

	seq := b.config.ActionSequence
	action := mat.NewVecDense(len(seq), nil)
	for i, c := range seq {
		switch c {
		case 'p':
			action.SetVec(i, float64(p))
		case 'x':
			action.SetVec(i, x)
		case 'y':
			action.SetVec(i, y)
		case 'z':
			action.SetVec(i, z)
		case 'r':
			action.SetVec(i, r)
		default:
			panic(fmt.Sprintf("encodeAction: invalid action character %q", c))
		}
	}
	return action
}

// addNoise perturbs a position and rotation by the configured noise.
// The position stays inside the workspace.
func (b *Base) addNoise(x, y, r float64) (float64, float64, float64) {
	if b.config.PosNoise > 0 {
		ws := b.config.Workspace
		x = floatutils.ClipInterval(x+b.posNoise.Rand(), ws[0])
		y = floatutils.ClipInterval(y+b.posNoise.Rand(), ws[1])
	}
	if b.config.RotNoise > 0 {
		r += b.rotNoise.Rand()
	}
	return x, y, r
}

// yaw returns the rotation to grasp obj at, which is zero unless
// objects are randomly oriented
func (b *Base) yaw(obj *objects.Object) (float64, error) {
	if !b.config.RandomOrientation {
		return 0, nil
	}
	rot, err := obj.Rotation()
	if err != nil {
		return 0, err
	}
	return rot.Yaw(), nil
}

// Pick returns the action picking at (x, y) with rotation r, reaching
// into the top of whatever lies there
func (b *Base) Pick(x, y, r float64) (*mat.VecDense, error) {
	x, y, r = b.addNoise(x, y, r)
	z, err := b.env.PrimitiveHeight(robots.Pick, x, y)
	if err != nil {
		return nil, fmt.Errorf("pick: %v", err)
	}
	return b.EncodeAction(robots.Pick, x, y, z, r), nil
}

// Place returns the action placing the held object at (x, y) with
// rotation r, clearing whatever lies there
func (b *Base) Place(x, y, r float64) (*mat.VecDense, error) {
	x, y, r = b.addNoise(x, y, r)
	z, err := b.env.PrimitiveHeight(robots.Place, x, y)
	if err != nil {
		return nil, fmt.Errorf("place: %v", err)
	}
	return b.EncodeAction(robots.Place, x, y, z, r), nil
}

// PickObject returns the action picking obj
func (b *Base) PickObject(obj *objects.Object) (*mat.VecDense, error) {
	pos, err := obj.Position()
	if err != nil {
		return nil, fmt.Errorf("pickObject: %v", err)
	}
	r, err := b.yaw(obj)
	if err != nil {
		return nil, fmt.Errorf("pickObject: %v", err)
	}
	return b.Pick(pos.X, pos.Y, r)
}

// PlaceOn returns the action placing the held object on top of obj
func (b *Base) PlaceOn(obj *objects.Object) (*mat.VecDense, error) {
	pos, err := obj.Position()
	if err != nil {
		return nil, fmt.Errorf("placeOn: %v", err)
	}
	r, err := b.yaw(obj)
	if err != nil {
		return nil, fmt.Errorf("placeOn: %v", err)
	}
	return b.Place(pos.X, pos.Y, r)
}

// randomRotation returns a random gripper rotation when objects are
// randomly oriented and zero otherwise
func (b *Base) randomRotation() float64 {
	if !b.config.RandomOrientation {
		return 0
	}
	return distuv.Uniform{Min: 0, Max: b.rotationPeriod(), Src: b.src}.Rand()
}

// unheld returns objs without the held object
func (b *Base) unheld(objs []*objects.Object) []*objects.Object {
	out := make([]*objects.Object, 0, len(objs))
	for _, obj := range objs {
		if !b.env.IsObjectHeld(obj) {
			out = append(out, obj)
		}
	}
	return out
}

// holdingShape returns whether the held object has the given shape
func (b *Base) holdingShape(shape objects.Shape) bool {
	held := b.env.Robot.HoldingObj
	return held != nil && held.Shape() == shape
}

// pickPlaceSteps returns the number of actions needed to move n objects
// given the current grasp
func (b *Base) pickPlaceSteps(n int) int {
	steps := 2 * n
	if b.env.IsHolding() && steps > 0 {
		steps--
	}
	return steps
}
