// Package robots implements the robot arms that environments control:
// loading a robot model, joint and Cartesian motion with convergence
// checks, and the pick, place, push, and pull motion primitives.
package robots

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/objects"
	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/samuelfneumann/helpinghands/urdf"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnknownRobot is returned when constructing a robot by an unknown name
var ErrUnknownRobot = errors.New("unknown robot")

// Primitive is a motion primitive, which also determines how hard the
// gripper closes
type Primitive int

const (
	Pick Primitive = iota
	Place
	Push
	Pull
)

func (p Primitive) String() string {
	switch p {
	case Pick:
		return "Pick"
	case Place:
		return "Place"
	case Push:
		return "Push"
	case Pull:
		return "Pull"
	}
	return fmt.Sprintf("Primitive(%d)", int(p))
}

// State is the part of a robot's state that is not held by the engine
type State struct {
	HoldingObj    *objects.Object
	GripperClosed bool
}

// model describes a robot model in the assets
type model struct {
	path        string
	arm         []string
	endEffector string
	fingers     [2]string
	home        []float64

	adjustGripperAfterLift bool
}

// gantryArm lists the arm joints shared by every model
var gantryArm = []string{"x_joint", "y_joint", "z_joint", "yaw_joint",
	"pitch_joint"}

// Registry maps robot names to their models. The home pose keeps the
// gripper above and behind the workspace, out of camera view.
var registry = map[string]model{
	"kuka": {
		path:        urdf.Path("robots/kuka.urdf"),
		arm:         gantryArm,
		endEffector: "end_effector_joint",
		fingers:     [2]string{"finger_left_joint", "finger_right_joint"},
		home:        []float64{0, 0, 0.3, 0, 0},
	},
	"ur5": {
		path:        urdf.Path("robots/ur5.urdf"),
		arm:         gantryArm,
		endEffector: "end_effector_joint",
		fingers:     [2]string{"finger_left_joint", "finger_right_joint"},
		home:        []float64{0, 0, 0.35, 0, 0},
	},
	"panda": {
		path:        urdf.Path("robots/panda.urdf"),
		arm:         gantryArm,
		endEffector: "end_effector_joint",
		fingers:     [2]string{"finger_left_joint", "finger_right_joint"},
		home:        []float64{0, 0, 0.3, 0, 0},

		adjustGripperAfterLift: true,
	},
}

// Names returns the sorted names of all robots
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Robot is an arm with a gripper loaded into an engine
type Robot struct {
	Gripper

	engine simulator.Engine
	name   string
	model  model

	id          simulator.BodyID
	armJoints   []int
	homeJoints  []float64
	endEffector int

	HoldingObj    *objects.Object
	GripperClosed bool
	state         State

	// PositionGain is the gain of the arm's position controller
	PositionGain float64

	// AdjustGripperAfterLift makes Pick tighten the grasp after lifting
	// rather than before
	AdjustGripperAfterLift bool
}

// New returns the robot registered under name. The robot must be
// loaded with Initialize before use.
func New(engine simulator.Engine, name string) (*Robot, error) {
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("new: %w: %q", ErrUnknownRobot, name)
	}
	r := &Robot{
		engine:                 engine,
		name:                   name,
		model:                  m,
		homeJoints:             append([]float64(nil), m.home...),
		PositionGain:           0.02,
		AdjustGripperAfterLift: m.adjustGripperAfterLift,
	}
	r.Gripper = &parallelJaw{robot: r}
	return r, nil
}

// Name returns the registry name of the robot
func (r *Robot) Name() string {
	return r.name
}

// ID returns the engine handle of the robot
func (r *Robot) ID() simulator.BodyID {
	return r.id
}

// ArmJoints returns the indices of the arm joints
func (r *Robot) ArmJoints() []int {
	return r.armJoints
}

// EndEffectorLink returns the link index of the end effector
func (r *Robot) EndEffectorLink() int {
	return r.endEffector
}

// HomeJoints returns the home positions of the arm joints
func (r *Robot) HomeJoints() []float64 {
	return r.homeJoints
}

// Initialize loads the robot at the world origin and moves it home with
// the gripper open
func (r *Robot) Initialize() error {
	id, err := r.engine.LoadURDF(r.model.path, simulator.LoadOptions{
		Orientation:  geometry.Identity(),
		UseFixedBase: true,
	})
	if err != nil {
		return fmt.Errorf("initialize: %v", err)
	}
	r.id = id

	joints, err := r.jointsByName()
	if err != nil {
		return fmt.Errorf("initialize: %v", err)
	}
	r.armJoints = r.armJoints[:0]
	for _, name := range r.model.arm {
		j, ok := joints[name]
		if !ok {
			return fmt.Errorf("initialize: model %v has no joint %v",
				r.model.path, name)
		}
		r.armJoints = append(r.armJoints, j)
	}
	ee, ok := joints[r.model.endEffector]
	if !ok {
		return fmt.Errorf("initialize: model %v has no end effector %v",
			r.model.path, r.model.endEffector)
	}
	r.endEffector = ee

	jaw := r.Gripper.(*parallelJaw)
	if err := jaw.initialize(joints); err != nil {
		return fmt.Errorf("initialize: %v", err)
	}
	return r.Reset()
}

// Reset moves the robot home, opens the gripper, and forgets any held
// object
func (r *Robot) Reset() error {
	r.HoldingObj = nil
	r.GripperClosed = false
	if err := r.setJointPoses(r.homeJoints); err != nil {
		return fmt.Errorf("reset: %v", err)
	}
	if err := r.Gripper.(*parallelJaw).resetOpen(); err != nil {
		return fmt.Errorf("reset: %v", err)
	}
	return nil
}

func (r *Robot) jointsByName() (map[string]int, error) {
	n, err := r.engine.NumJoints(r.id)
	if err != nil {
		return nil, err
	}
	joints := make(map[string]int, n)
	for j := 0; j < n; j++ {
		info, err := r.engine.JointInfo(r.id, j)
		if err != nil {
			return nil, err
		}
		joints[info.Name] = j
	}
	return joints, nil
}

// SaveState records the held object and gripper state
func (r *Robot) SaveState() {
	r.state = State{HoldingObj: r.HoldingObj, GripperClosed: r.GripperClosed}
}

// RestoreState restores the state recorded by SaveState, re-commanding
// the gripper to match
func (r *Robot) RestoreState() error {
	r.HoldingObj = r.state.HoldingObj
	r.GripperClosed = r.state.GripperClosed
	if r.GripperClosed {
		_, err := r.CloseGripper(0, Pick)
		return err
	}
	return r.OpenGripper()
}

// PickedObj returns the first of objs that the robot touches in at
// least two places, or nil
func (r *Robot) PickedObj(objs []*objects.Object) (*objects.Object, error) {
	for _, obj := range objs {
		contacts, err := r.engine.ContactPoints(r.id, obj.ID())
		if err != nil {
			return nil, fmt.Errorf("pickedObj: %v", err)
		}
		if len(contacts) >= 2 {
			return obj, nil
		}
	}
	return nil, nil
}

// EndEffectorPose returns the world pose of the end effector
func (r *Robot) EndEffectorPose() (geometry.Pose, error) {
	ls, err := r.engine.LinkState(r.id, r.endEffector)
	if err != nil {
		return geometry.Pose{}, fmt.Errorf("endEffectorPose: %v", err)
	}
	return ls.Pose(), nil
}

// EndEffectorPosition returns the world position of the end effector
func (r *Robot) EndEffectorPosition() (r3.Vec, error) {
	pose, err := r.EndEffectorPose()
	return pose.Position, err
}

// EndToHoldingObj returns the homogeneous transform of the held object
// in the end effector frame, or the zero matrix if nothing is held
func (r *Robot) EndToHoldingObj() (*mat.Dense, error) {
	if r.HoldingObj == nil {
		return mat.NewDense(4, 4, nil), nil
	}
	rel, err := r.endToHoldingObj()
	if err != nil {
		return nil, fmt.Errorf("endToHoldingObj: %v", err)
	}
	return rel.Matrix(), nil
}

func (r *Robot) endToHoldingObj() (geometry.Pose, error) {
	end, err := r.EndEffectorPose()
	if err != nil {
		return geometry.Pose{}, err
	}
	obj, err := r.HoldingObj.Pose()
	if err != nil {
		return geometry.Pose{}, err
	}
	return geometry.Relative(end, obj), nil
}

// JointPositions returns the positions of the arm joints
func (r *Robot) JointPositions() ([]float64, error) {
	q := make([]float64, len(r.armJoints))
	for i, j := range r.armJoints {
		state, err := r.engine.JointState(r.id, j)
		if err != nil {
			return nil, fmt.Errorf("jointPositions: %v", err)
		}
		q[i] = state.Position
	}
	return q, nil
}
