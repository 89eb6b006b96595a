package world

// Entity is a runtime instance of a template. UID is globally unique and
// stable for the entity's lifetime; it embeds origin context for debugging
// but logic treats it as opaque. X and Y are continuous pixel coordinates;
// Z is the discrete level.
type Entity struct {
	UID string  `json:"uid"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   int     `json:"z"`
	Key string  `json:"key"`

	// Derived fields set by gameplay systems after creation.
	Facing    string  `json:"facing,omitempty"`
	RotationY float64 `json:"rotationY,omitempty"`

	Components Components `json:"components"`
}

func (e *Entity) hasAI() bool     { return e.Components.MovementAI != nil }
func (e *Entity) hasGrowth() bool { return e.Components.Growth != nil }

// tileOf returns the world tile coordinate containing the entity.
func (e *Entity) tileOf(tilePixels int) (tx, ty int) {
	return floorDiv(int(e.X), tilePixels), floorDiv(int(e.Y), tilePixels)
}
