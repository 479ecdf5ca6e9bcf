// Package urdf implements reading of Unified Robot Description Format
// models: the kinematic tree of links and joints together with the
// collision geometry of each link.
package urdf

import (
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/samuelfneumann/helpinghands/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// URDFPath is the directory of URDF models relative to the asset root
const URDFPath = "urdf"

// Robot is a parsed URDF model
type Robot struct {
	Name   string  `xml:"name,attr"`
	Links  []Link  `xml:"link"`
	Joints []Joint `xml:"joint"`
}

// Link is a rigid body of the model
type Link struct {
	Name       string      `xml:"name,attr"`
	Collisions []Collision `xml:"collision"`
}

// Collision is a single collision shape of a link
type Collision struct {
	Origin   Origin   `xml:"origin"`
	Geometry Geometry `xml:"geometry"`
}

// Origin is a pose given as "xyz" and "rpy" attribute strings
type Origin struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

// Geometry holds exactly one of its shapes
type Geometry struct {
	Box      *Box      `xml:"box"`
	Cylinder *Cylinder `xml:"cylinder"`
	Sphere   *Sphere   `xml:"sphere"`
	Mesh     *Mesh     `xml:"mesh"`
}

type Box struct {
	Size string `xml:"size,attr"`
}

type Cylinder struct {
	Radius float64 `xml:"radius,attr"`
	Length float64 `xml:"length,attr"`
}

type Sphere struct {
	Radius float64 `xml:"radius,attr"`
}

type Mesh struct {
	Filename string `xml:"filename,attr"`
	Scale    string `xml:"scale,attr"`
}

// Joint connects a parent link to a child link
type Joint struct {
	Name   string `xml:"name,attr"`
	Type   string `xml:"type,attr"`
	Parent struct {
		Link string `xml:"link,attr"`
	} `xml:"parent"`
	Child struct {
		Link string `xml:"link,attr"`
	} `xml:"child"`
	Origin Origin `xml:"origin"`
	Axis   struct {
		XYZ string `xml:"xyz,attr"`
	} `xml:"axis"`
	Limit *Limit `xml:"limit"`
}

// Limit bounds the motion of a joint
type Limit struct {
	Lower    float64 `xml:"lower,attr"`
	Upper    float64 `xml:"upper,attr"`
	Effort   float64 `xml:"effort,attr"`
	Velocity float64 `xml:"velocity,attr"`
}

// Parse reads a URDF model from r
func Parse(r io.Reader) (*Robot, error) {
	var robot Robot
	if err := xml.NewDecoder(r).Decode(&robot); err != nil {
		return nil, fmt.Errorf("parse: could not decode URDF: %v", err)
	}
	if len(robot.Links) == 0 {
		return nil, fmt.Errorf("parse: model %q has no links", robot.Name)
	}
	if _, err := robot.Root(); err != nil {
		return nil, fmt.Errorf("parse: %v", err)
	}
	return &robot, nil
}

// Load reads the URDF model at p in fsys
func Load(fsys fs.FS, p string) (*Robot, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return nil, fmt.Errorf("load: could not open %v: %v", p, err)
	}
	defer f.Close()

	robot, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load %v: %v", p, err)
	}
	return robot, nil
}

// Path returns the asset path of the URDF file name
func Path(name string) string {
	return path.Join(URDFPath, name)
}

// Glob returns the sorted asset paths matching pattern under URDFPath
func Glob(fsys fs.FS, pattern string) ([]string, error) {
	matches, err := fs.Glob(fsys, path.Join(URDFPath, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob: %v", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Root returns the name of the link that is no joint's child
func (r *Robot) Root() (string, error) {
	children := make(map[string]bool, len(r.Joints))
	for _, j := range r.Joints {
		children[j.Child.Link] = true
	}
	for _, l := range r.Links {
		if !children[l.Name] {
			return l.Name, nil
		}
	}
	return "", fmt.Errorf("root: model %q has no root link", r.Name)
}

// Link returns the link with the given name
func (r *Robot) Link(name string) (Link, bool) {
	for _, l := range r.Links {
		if l.Name == name {
			return l, true
		}
	}
	return Link{}, false
}

// Pose returns the origin as a pose
func (o Origin) Pose() (geometry.Pose, error) {
	xyz, err := parseTriple(o.XYZ)
	if err != nil {
		return geometry.Pose{}, fmt.Errorf("pose: xyz: %v", err)
	}
	rpy, err := parseTriple(o.RPY)
	if err != nil {
		return geometry.Pose{}, fmt.Errorf("pose: rpy: %v", err)
	}
	return geometry.NewPose(xyz, geometry.FromEuler(rpy.X, rpy.Y, rpy.Z)), nil
}

// AxisVec returns the joint axis, defaulting to x as URDF does
func (j Joint) AxisVec() (r3.Vec, error) {
	if strings.TrimSpace(j.Axis.XYZ) == "" {
		return r3.Vec{X: 1}, nil
	}
	return parseTriple(j.Axis.XYZ)
}

// HalfExtents returns the half sizes of the axis-aligned bounding box
// of the geometry in its own frame.
func (g Geometry) HalfExtents() (r3.Vec, error) {
	switch {
	case g.Box != nil:
		size, err := parseTriple(g.Box.Size)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("halfExtents: box: %v", err)
		}
		return r3.Scale(0.5, size), nil

	case g.Cylinder != nil:
		return r3.Vec{
			X: g.Cylinder.Radius,
			Y: g.Cylinder.Radius,
			Z: g.Cylinder.Length / 2,
		}, nil

	case g.Sphere != nil:
		r := g.Sphere.Radius
		return r3.Vec{X: r, Y: r, Z: r}, nil

	case g.Mesh != nil:
		return r3.Vec{}, fmt.Errorf("halfExtents: mesh %v has no "+
			"analytic bounds", g.Mesh.Filename)
	}
	return r3.Vec{}, fmt.Errorf("halfExtents: empty geometry")
}

func parseTriple(s string) (r3.Vec, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return r3.Vec{}, nil
	}
	if len(fields) != 3 {
		return r3.Vec{}, fmt.Errorf("want 3 values, have %q", s)
	}

	var v [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return r3.Vec{}, err
		}
		v[i] = x
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}
