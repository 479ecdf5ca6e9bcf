package envconfig

import (
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/samuelfneumann/helpinghands/simulator"
	"github.com/zclconf/go-cty/cty"
	"gonum.org/v1/gonum/spatial/r1"
)

// hclConfig is the layout of a configuration file. Attributes missing
// from the file keep the values they were given before decoding.
type hclConfig struct {
	Workspace         [][]float64 `hcl:"workspace,optional"`
	MaxSteps          int         `hcl:"max_steps,optional"`
	ObsSize           int         `hcl:"obs_size,optional"`
	InHandSize        int         `hcl:"in_hand_size,optional"`
	Render            bool        `hcl:"render,optional"`
	FastMode          bool        `hcl:"fast_mode,optional"`
	Seed              int         `hcl:"seed,optional"`
	ActionSequence    string      `hcl:"action_sequence,optional"`
	NumObjects        int         `hcl:"num_objects,optional"`
	RandomOrientation bool        `hcl:"random_orientation,optional"`
	RewardType        string      `hcl:"reward_type,optional"`
	SimulateGrasp     bool        `hcl:"simulate_grasp,optional"`
	PerfectGrasp      bool        `hcl:"perfect_grasp,optional"`
	Robot             string      `hcl:"robot,optional"`
	WorkspaceCheck    string      `hcl:"workspace_check,optional"`
	PhysicsMode       string      `hcl:"physics_mode,optional"`
	HardResetFreq     int         `hcl:"hard_reset_freq,optional"`
	ObjectScaleRange  []float64   `hcl:"object_scale_range,optional"`
	MinObjectDistance float64     `hcl:"min_object_distance,optional"`
	MinBoarderPadding float64     `hcl:"min_boarder_padding,optional"`
	Discount          float64     `hcl:"discount,optional"`
	PosNoise          float64     `hcl:"pos_noise,optional"`
	RotNoise          float64     `hcl:"rot_noise,optional"`
	HalfRotation      bool        `hcl:"half_rotation,optional"`
	ModelID           int         `hcl:"model_id,optional"`
	OutDir            string      `hcl:"out_dir,optional"`
}

// evalContext exposes constants usable in configuration files
var evalContext = &hcl.EvalContext{
	Variables: map[string]cty.Value{
		"pi": cty.NumberFloatVal(math.Pi),
	},
}

// Load reads the HCL configuration file at path. Attributes not set in
// the file keep their default values. The returned configuration is
// validated.
func Load(path string) (Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("load: could not parse %s: %w", path, diags)
	}
	return decode(file.Body, path)
}

// Parse is like Load but reads the configuration from src. The
// filename is only used in diagnostics.
func Parse(src []byte, filename string) (Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("parse: could not parse %s: %w", filename,
			diags)
	}
	return decode(file.Body, filename)
}

func decode(body hcl.Body, filename string) (Config, error) {
	c := Default()
	f := toHCL(c)
	if diags := gohcl.DecodeBody(body, evalContext, &f); diags.HasErrors() {
		return Config{}, fmt.Errorf("decode: could not decode %s: %w",
			filename, diags)
	}

	c, err := f.config()
	if err != nil {
		return Config{}, fmt.Errorf("decode: %s: %v", filename, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("decode: %s: %v", filename, err)
	}
	return c, nil
}

func toHCL(c Config) hclConfig {
	workspace := make([][]float64, len(c.Workspace))
	for i, b := range c.Workspace {
		workspace[i] = []float64{b.Min, b.Max}
	}

	return hclConfig{
		Workspace:         workspace,
		MaxSteps:          c.MaxSteps,
		ObsSize:           c.ObsSize,
		InHandSize:        c.InHandSize,
		Render:            c.Render,
		FastMode:          c.FastMode,
		Seed:              int(c.Seed),
		ActionSequence:    c.ActionSequence,
		NumObjects:        c.NumObjects,
		RandomOrientation: c.RandomOrientation,
		RewardType:        string(c.RewardType),
		SimulateGrasp:     c.SimulateGrasp,
		PerfectGrasp:      c.PerfectGrasp,
		Robot:             c.Robot,
		WorkspaceCheck:    string(c.WorkspaceCheck),
		PhysicsMode:       string(c.PhysicsMode),
		HardResetFreq:     c.HardResetFreq,
		ObjectScaleRange:  []float64{c.ObjectScaleRange.Min, c.ObjectScaleRange.Max},
		MinObjectDistance: c.MinObjectDistance,
		MinBoarderPadding: c.MinBoarderPadding,
		Discount:          c.Discount,
		PosNoise:          c.PosNoise,
		RotNoise:          c.RotNoise,
		HalfRotation:      c.HalfRotation,
		ModelID:           c.ModelID,
		OutDir:            c.OutDir,
	}
}

func (f hclConfig) config() (Config, error) {
	if len(f.Workspace) != 3 {
		return Config{}, fmt.Errorf("workspace needs 3 dimensions, have %d",
			len(f.Workspace))
	}
	var workspace [3]r1.Interval
	for i, b := range f.Workspace {
		if len(b) != 2 {
			return Config{}, fmt.Errorf("workspace dimension %d needs "+
				"[min, max], have %v", i, b)
		}
		workspace[i] = r1.Interval{Min: b[0], Max: b[1]}
	}

	if len(f.ObjectScaleRange) != 2 {
		return Config{}, fmt.Errorf("object scale range needs [min, max], "+
			"have %v", f.ObjectScaleRange)
	}
	if f.Seed < 0 {
		return Config{}, fmt.Errorf("seed must be non-negative, have %d",
			f.Seed)
	}

	return Config{
		Workspace:         workspace,
		MaxSteps:          f.MaxSteps,
		ObsSize:           f.ObsSize,
		InHandSize:        f.InHandSize,
		Render:            f.Render,
		FastMode:          f.FastMode,
		Seed:              uint64(f.Seed),
		ActionSequence:    f.ActionSequence,
		NumObjects:        f.NumObjects,
		RandomOrientation: f.RandomOrientation,
		RewardType:        RewardType(f.RewardType),
		SimulateGrasp:     f.SimulateGrasp,
		PerfectGrasp:      f.PerfectGrasp,
		Robot:             f.Robot,
		WorkspaceCheck:    WorkspaceCheck(f.WorkspaceCheck),
		PhysicsMode:       simulator.PhysicsMode(f.PhysicsMode),
		HardResetFreq:     f.HardResetFreq,
		ObjectScaleRange: r1.Interval{
			Min: f.ObjectScaleRange[0],
			Max: f.ObjectScaleRange[1],
		},
		MinObjectDistance: f.MinObjectDistance,
		MinBoarderPadding: f.MinBoarderPadding,
		Discount:          f.Discount,
		PosNoise:          f.PosNoise,
		RotNoise:          f.RotNoise,
		HalfRotation:      f.HalfRotation,
		ModelID:           f.ModelID,
		OutDir:            f.OutDir,
	}, nil
}
