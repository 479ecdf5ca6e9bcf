package equipment

import (
	"fmt"

	"github.com/samuelfneumann/helpinghands/geometry"
	"github.com/samuelfneumann/helpinghands/simulator"
	"gonum.org/v1/gonum/spatial/r3"
)

// DrawerHandle is the knob of a drawer that a gripper pulls on
type DrawerHandle struct {
	engine simulator.Engine
	id     simulator.BodyID
	link   int
}

// Position returns the world position of the handle
func (h *DrawerHandle) Position() (r3.Vec, error) {
	ls, err := h.engine.LinkState(h.id, h.link)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("position: %v", err)
	}
	return ls.WorldPosition, nil
}

// Rotation returns the world orientation of the handle
func (h *DrawerHandle) Rotation() (geometry.Quaternion, error) {
	ls, err := h.engine.LinkState(h.id, h.link)
	if err != nil {
		return geometry.Quaternion{}, fmt.Errorf("rotation: %v", err)
	}
	return ls.WorldOrientation, nil
}
