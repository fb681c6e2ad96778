package plan

import "github.com/bug39/scenesmith/pkg/geo"

// Type selects the placement strategy downstream.
type Type string

const (
	TypeRelationship Type = "relationship"
	TypeLayered      Type = "layered"
)

// Layer tags an entity with its composition role in layered plans.
type Layer string

const (
	LayerFocal   Layer = "focal"
	LayerAnchors Layer = "anchors"
	LayerFrame   Layer = "frame"
	LayerFill    Layer = "fill"
)

// Plan is the canonical normalized form every input schema converges on.
// The resolver never sees raw plan payloads, only this.
type Plan struct {
	Theme        string           `json:"theme"`
	Biome        string           `json:"biome"`
	Type         Type             `json:"type"`
	Explicit     bool             `json:"explicit"` // coordinates came in literally; run soft validation
	Structures   []Structure      `json:"structures"`
	Decorations  []Decoration     `json:"decorations"`
	Arrangements []Arrangement    `json:"arrangements"`
	Atmosphere   []AtmosphereItem `json:"atmosphere"`
	NPCs         []NPC            `json:"npcs"`
}

// StructureByID returns the structure with the given id, or nil.
func (p *Plan) StructureByID(id string) *Structure {
	for i := range p.Structures {
		if p.Structures[i].ID == id {
			return &p.Structures[i]
		}
	}
	return nil
}

// Asset describes the thing to generate and place.
type Asset struct {
	Prompt   string  `json:"prompt"`
	Category string  `json:"category"`  // "structure", "prop", "tree", "rock", "character", ...
	RealSize float64 `json:"real_size"` // largest real-world dimension, meters
	Scale    float64 `json:"scale"`     // derived uniform scale
}

// Bounds3 is an estimated axis-aligned size in meters.
type Bounds3 struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// PlacementSpec positions a structure: an absolute point, a keyword, or a
// position relative to another structure. Exactly one of Position /
// Keyword / RelativeTo is expected; precedence is in that order.
type PlacementSpec struct {
	Position   *geo.Point2D `json:"position,omitempty"`
	Keyword    string       `json:"keyword,omitempty"` // "center", "north", "southwest", ...
	RelativeTo string       `json:"relative_to,omitempty"`
	Side       string       `json:"side,omitempty"`
	Distance   float64      `json:"distance,omitempty"`
}

// Structure is an anchor entity. Everything else references one by id.
type Structure struct {
	ID          string        `json:"id"`
	Asset       Asset         `json:"asset"`
	Placement   PlacementSpec `json:"placement"`
	Facing      string        `json:"facing,omitempty"` // compass keyword or "" for default
	Layer       Layer         `json:"layer,omitempty"`
	MinDistance float64       `json:"min_distance,omitempty"`
	EstSize     Bounds3       `json:"est_size"`
}

// Relationship expresses a secondary entity's placement relative to a
// structure (or the whole zone when TargetID is empty and Relation scatters).
type Relationship struct {
	TargetID        string  `json:"target_id,omitempty"`
	Relation        string  `json:"relation"` // adjacent, attached, scattered, along, flanking, near, behind
	Side            string  `json:"side,omitempty"`
	Distance        float64 `json:"distance,omitempty"`
	Angle           float64 `json:"angle,omitempty"` // radians, around target
	MinDistance     float64 `json:"min_distance,omitempty"`
	AvoidStructures bool    `json:"avoid_structures,omitempty"`
	// SurfaceRatio positions vignette props along the parent's horizontal
	// extent; normalization keeps it inside [0.2, 0.8].
	SurfaceRatio float64 `json:"surface_ratio,omitempty"`
	// LateralOffset spreads multiple entities from one narrative group.
	LateralOffset float64 `json:"lateral_offset,omitempty"`
}

// Decoration is a secondary entity attached or adjacent to a structure.
type Decoration struct {
	ID      string       `json:"id"`
	Asset   Asset        `json:"asset"`
	Rel     Relationship `json:"rel"`
	EstSize Bounds3      `json:"est_size"`
}

// Arrangement is a functional cluster of identical items placed as a unit.
type Arrangement struct {
	ID      string       `json:"id"`
	Asset   Asset        `json:"asset"`
	Rel     Relationship `json:"rel"`
	Pattern string       `json:"pattern"` // "cluster", "grid", "row"
	Count   int          `json:"count"`
	Spacing float64      `json:"spacing"`
	EstSize Bounds3      `json:"est_size"`
}

// AtmosphereItem is a low-priority scattered or framing entity.
type AtmosphereItem struct {
	ID      string       `json:"id"`
	Asset   Asset        `json:"asset"`
	Rel     Relationship `json:"rel"`
	Count   int          `json:"count"`
	Layer   Layer        `json:"layer,omitempty"`
	EstSize Bounds3      `json:"est_size"`
}

// Behavior tags an NPC's idle activity.
type Behavior string

const (
	BehaviorIdle   Behavior = "idle"
	BehaviorWander Behavior = "wander"
)

// NPC is a character entity. It checks against static placements when it
// is placed but is not an obstacle for later static geometry.
type NPC struct {
	ID           string       `json:"id"`
	Asset        Asset        `json:"asset"`
	Rel          Relationship `json:"rel"`
	Behavior     Behavior     `json:"behavior"`
	WanderRadius float64      `json:"wander_radius,omitempty"`
	EstSize      Bounds3      `json:"est_size"`
}

// Mode is the caller's hint for which plan family it requested.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeLayered Mode = "layered"
	ModeZones   Mode = "zones"
)
