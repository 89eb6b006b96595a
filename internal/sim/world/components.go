package world

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Components is the closed set of component variants an entity may carry,
// at most one per variant. Each is a plain data record; behavior lives in
// the systems that consult them. A nil field means the entity does not
// carry that component.
type Components struct {
	Renderable                   *Renderable                   `json:"Renderable,omitempty"`
	Collision                    *Collision                    `json:"Collision,omitempty"`
	InteractableResource         *InteractableResource         `json:"InteractableResource,omitempty"`
	InteractableDialogue         *InteractableDialogue         `json:"InteractableDialogue,omitempty"`
	InteractableMenu             *InteractableMenu             `json:"InteractableMenu,omitempty"`
	InteractableLevelChange      *InteractableLevelChange      `json:"InteractableLevelChange,omitempty"`
	Collectible                  *Collectible                  `json:"Collectible,omitempty"`
	Growth                       *Growth                       `json:"Growth,omitempty"`
	Vehicle                      *Vehicle                      `json:"Vehicle,omitempty"`
	InteractableVehicle          *InteractableVehicle          `json:"InteractableVehicle,omitempty"`
	MovementAI                   *MovementAI                   `json:"MovementAI,omitempty"`
	Health                       *Health                       `json:"Health,omitempty"`
	Tag                          *Tag                          `json:"Tag,omitempty"`
	Attribute                    *Attribute                    `json:"Attribute,omitempty"`
	Vitals                       *Vitals                       `json:"Vitals,omitempty"`
	InteractableFilteredResource *InteractableFilteredResource `json:"InteractableFilteredResource,omitempty"`
	ItemSource                   *ItemSource                   `json:"ItemSource,omitempty"`
	PipeLogic                    *PipeLogic                    `json:"PipeLogic,omitempty"`
	OutputDirection              *OutputDirection              `json:"OutputDirection,omitempty"`
	Position                     *Position                     `json:"Position,omitempty"`
}

type Renderable struct {
	Mode string `json:"mode,omitempty"`
}

// Collision is a pixel-space AABB relative to the entity origin.
type Collision struct {
	W       float64 `json:"w"`
	H       float64 `json:"h"`
	OffsetX float64 `json:"offset_x,omitempty"`
	OffsetY float64 `json:"offset_y,omitempty"`
}

type InteractableResource struct {
	Item         string `json:"item"`
	Amount       int    `json:"amount"`
	Tool         string `json:"tool,omitempty"`
	RespawnTicks int    `json:"respawn_ticks,omitempty"`
}

type InteractableDialogue struct {
	DialogueID string `json:"dialogue_id"`
}

type InteractableMenu struct {
	Menu string `json:"menu"`
}

type InteractableLevelChange struct {
	DZ int `json:"dz"`
}

type Collectible struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// Growth advances an entity toward its next template. Ticks is runtime
// progress and is persisted so growth survives a save/load cycle.
type Growth struct {
	Next        string `json:"next"`
	MatureTicks int    `json:"mature_ticks"`
	Ticks       int    `json:"ticks,omitempty"`
}

type Vehicle struct {
	Speed float64 `json:"speed"`
}

type InteractableVehicle struct{}

// MovementAI marks an entity for the per-frame AI fast path. VX/VY are the
// current velocity in pixels per second, set by the AI system.
type MovementAI struct {
	Kind  string  `json:"kind"`
	Speed float64 `json:"speed"`
	VX    float64 `json:"vx,omitempty"`
	VY    float64 `json:"vy,omitempty"`
}

type Health struct {
	Max     int `json:"max"`
	Current int `json:"current,omitempty"`
}

type Tag struct {
	Values []string `json:"values"`
}

type Attribute struct {
	Values map[string]float64 `json:"values"`
}

type Vitals struct {
	Hunger int `json:"hunger"`
	Energy int `json:"energy"`
}

type InteractableFilteredResource struct {
	Items []string `json:"items"`
	Tool  string   `json:"tool,omitempty"`
}

// ItemSource produces one Item every EveryTicks pipe ticks. Progress is the
// runtime accumulator.
type ItemSource struct {
	Item       string `json:"item"`
	EveryTicks int    `json:"every_ticks"`
	Progress   int    `json:"progress,omitempty"`
}

// PipeLogic buffers items in transit. Buffer order is FIFO.
type PipeLogic struct {
	Capacity int      `json:"capacity"`
	Buffer   []string `json:"buffer,omitempty"`
}

// OutputDirection is the cardinal tile direction a pipe or source pushes to.
type OutputDirection struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Position grid-snaps a pipe-system entity to a tile.
type Position struct {
	TX int `json:"tx"`
	TY int `json:"ty"`
}

// instantiate decodes one component descriptor into c. An unknown type is a
// recoverable warning: the component is skipped and the entity keeps the
// rest of its set.
func (c *Components) instantiate(typ string, args json.RawMessage) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	dec := func(v any) error {
		if err := json.Unmarshal(args, v); err != nil {
			return fmt.Errorf("component %s args: %w", typ, err)
		}
		return nil
	}
	switch typ {
	case "Renderable":
		c.Renderable = &Renderable{}
		return dec(c.Renderable)
	case "Collision":
		c.Collision = &Collision{}
		return dec(c.Collision)
	case "InteractableResource":
		c.InteractableResource = &InteractableResource{}
		return dec(c.InteractableResource)
	case "InteractableDialogue":
		c.InteractableDialogue = &InteractableDialogue{}
		return dec(c.InteractableDialogue)
	case "InteractableMenu":
		c.InteractableMenu = &InteractableMenu{}
		return dec(c.InteractableMenu)
	case "InteractableLevelChange":
		c.InteractableLevelChange = &InteractableLevelChange{}
		return dec(c.InteractableLevelChange)
	case "Collectible":
		c.Collectible = &Collectible{}
		return dec(c.Collectible)
	case "Growth":
		c.Growth = &Growth{}
		return dec(c.Growth)
	case "Vehicle":
		c.Vehicle = &Vehicle{}
		return dec(c.Vehicle)
	case "InteractableVehicle":
		c.InteractableVehicle = &InteractableVehicle{}
		return dec(c.InteractableVehicle)
	case "MovementAI":
		c.MovementAI = &MovementAI{}
		return dec(c.MovementAI)
	case "Health":
		c.Health = &Health{}
		if err := dec(c.Health); err != nil {
			return err
		}
		if c.Health.Current == 0 {
			c.Health.Current = c.Health.Max
		}
		return nil
	case "Tag":
		c.Tag = &Tag{}
		return dec(c.Tag)
	case "Attribute":
		c.Attribute = &Attribute{}
		return dec(c.Attribute)
	case "Vitals":
		c.Vitals = &Vitals{}
		return dec(c.Vitals)
	case "InteractableFilteredResource":
		c.InteractableFilteredResource = &InteractableFilteredResource{}
		return dec(c.InteractableFilteredResource)
	case "ItemSource":
		c.ItemSource = &ItemSource{}
		return dec(c.ItemSource)
	case "PipeLogic":
		c.PipeLogic = &PipeLogic{}
		return dec(c.PipeLogic)
	case "OutputDirection":
		c.OutputDirection = &OutputDirection{}
		return dec(c.OutputDirection)
	case "Position":
		c.Position = &Position{}
		return dec(c.Position)
	default:
		slog.Warn("unknown component type, skipping", "type", typ)
		return nil
	}
}

// interactable reports whether any interaction component is present; the
// FindEntityAt query only considers these.
func (c *Components) interactable() bool {
	return c.InteractableResource != nil ||
		c.InteractableDialogue != nil ||
		c.InteractableMenu != nil ||
		c.InteractableLevelChange != nil ||
		c.InteractableVehicle != nil ||
		c.InteractableFilteredResource != nil
}
