package placement

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/bug39/scenesmith/pkg/geo"
	"github.com/bug39/scenesmith/pkg/plan"
)

// Placement is the resolved output: one asset instance at a concrete
// position. Placements are append-only within an iteration; refinement
// mutates position/scale/existence by instance id.
type Placement struct {
	InstanceID  string      `json:"instance_id"`
	AssetID     string      `json:"asset_id,omitempty"`
	Prompt      string      `json:"prompt"`
	Category    string      `json:"category"`
	Position    geo.Point2D `json:"position"`
	Y           float64     `json:"y"`
	Rotation    float64     `json:"rotation"` // yaw, radians
	Scale       float64     `json:"scale"`
	Layer       plan.Layer  `json:"layer,omitempty"`
	StructureID string      `json:"structure_id,omitempty"` // parent structure, if any
	NPC         bool        `json:"npc,omitempty"`
	Behavior    string      `json:"behavior,omitempty"`
	WanderRadius float64    `json:"wander_radius,omitempty"`

	// Size is the unscaled footprint used for collision checks: the
	// measured extent when available, the plan estimate otherwise.
	Size plan.Bounds3 `json:"size"`
}

// Footprint returns the placement's XZ bounding rectangle at its current
// scale. The buffer shrinks the rect (e.g. 0.9 = 10% tolerance); pass 1
// for the exact extent.
func (p Placement) Footprint(buffer float64) geo.Rect {
	w, d := p.Size.Width, p.Size.Depth
	if w <= 0 {
		w = 2
	}
	if d <= 0 {
		d = 2
	}
	return geo.RectAt(p.Position, w*p.Scale*buffer, d*p.Scale*buffer)
}

// newInstanceID mints a globally unique instance id for a category.
func newInstanceID(category string) string {
	if category == "" {
		category = "asset"
	}
	return fmt.Sprintf("%s_%s", category, uuid.NewString())
}

// UnresolvableTargetError reports a relationship that references a
// structure id missing from the plan.
type UnresolvableTargetError struct {
	Entity string
	Target string
}

func (e *UnresolvableTargetError) Error() string {
	return fmt.Sprintf("placement: entity %q references missing structure %q", e.Entity, e.Target)
}
