package plan

import (
	"fmt"

	"github.com/bug39/scenesmith/pkg/geo"
)

// Shared parsing helpers used by the per-shape conversion routines.

func parseAsset(m map[string]any) Asset {
	am := getMap(m, "asset")
	if am == nil {
		am = m // some shapes inline the asset fields
	}
	a := Asset{
		Prompt:   getString(am, "prompt", "description", "name"),
		Category: getString(am, "category", "type"),
		RealSize: getFloat(am, "real_size", "size", "real_world_size"),
		Scale:    getFloat(am, "scale"),
	}
	return fillAsset(a)
}

// parsePlacement reads a structure placement: a literal position, a
// keyword, or relative-to + side + distance. The "placement" field may be
// a nested object or a bare keyword string.
func parsePlacement(m map[string]any) PlacementSpec {
	var spec PlacementSpec

	pm := getMap(m, "placement")
	if pm == nil {
		if kw, ok := m["placement"].(string); ok {
			spec.Keyword = kw
		}
		pm = m
	}

	if x, z, ok := getPoint(pm, "position", "pos", "coords"); ok {
		spec.Position = &geo.Point2D{X: x, Z: z}
		return spec
	}
	if spec.Keyword == "" {
		spec.Keyword = getString(pm, "position", "keyword", "at")
	}
	spec.RelativeTo = getString(pm, "relative_to", "near")
	spec.Side = getString(pm, "side", "direction")
	spec.Distance = getFloat(pm, "distance")
	return spec
}

func parseRelationship(m map[string]any) Relationship {
	rm := getMap(m, "relationship")
	if rm == nil {
		rm = getMap(m, "rel")
	}
	relation := ""
	if rm == nil {
		// Inline fallback: only the unambiguous "relation" key counts, so
		// an element's "type" or "placement" field is never misread.
		rm = m
		relation = getString(m, "relation")
	} else {
		relation = getString(rm, "relation", "type", "placement")
	}
	rel := Relationship{
		TargetID:        getString(rm, "target", "target_id", "structure", "structure_id", "relative_to"),
		Relation:        relation,
		Side:            getString(rm, "side", "direction"),
		Distance:        getFloat(rm, "distance"),
		Angle:           getFloat(rm, "angle"),
		MinDistance:     getFloat(rm, "min_distance", "minDistance"),
		AvoidStructures: getBool(rm, "avoid_structures", "avoidStructures"),
	}
	if rel.Relation == "" {
		rel.Relation = "adjacent"
	}
	return rel
}

// entityID returns the entry's declared id or a generated positional one.
func entityID(m map[string]any, kind string, i int) string {
	if id := getString(m, "id"); id != "" {
		return id
	}
	return fmt.Sprintf("%s_%03d", kind, i)
}

func parseDecoration(m map[string]any, i int) Decoration {
	a := parseAsset(m)
	return Decoration{
		ID:      entityID(m, "decoration", i),
		Asset:   a,
		Rel:     parseRelationship(m),
		EstSize: estimateBounds(a),
	}
}

func parseArrangement(m map[string]any, i int) Arrangement {
	a := parseAsset(m)
	count := getInt(m, "count", "quantity")
	if count <= 0 {
		count = 3
	}
	pattern := getString(m, "pattern")
	if pattern == "" {
		pattern = "cluster"
	}
	spacing := getFloat(m, "spacing")
	if spacing <= 0 {
		spacing = defaultsFor(a.Category).MinDistance * 2
	}
	return Arrangement{
		ID:      entityID(m, "arrangement", i),
		Asset:   a,
		Rel:     parseRelationship(m),
		Pattern: pattern,
		Count:   count,
		Spacing: spacing,
		EstSize: estimateBounds(a),
	}
}

func parseAtmosphere(m map[string]any, i int) AtmosphereItem {
	a := parseAsset(m)
	count := getInt(m, "count", "quantity")
	if count <= 0 {
		count = 1
	}
	rel := parseRelationship(m)
	if rel.Relation == "adjacent" && rel.TargetID == "" {
		rel.Relation = "scattered"
	}
	return AtmosphereItem{
		ID:      entityID(m, "atmosphere", i),
		Asset:   a,
		Rel:     rel,
		Count:   count,
		EstSize: estimateBounds(a),
	}
}

// declaredSize returns the entry's explicit real-world size, if any.
func declaredSize(m map[string]any) float64 {
	if am := getMap(m, "asset"); am != nil {
		return getFloat(am, "real_size", "size", "real_world_size")
	}
	return getFloat(m, "real_size", "size", "real_world_size")
}

func parseNPC(m map[string]any, i int) NPC {
	a := parseAsset(m)
	if a.Category == "" {
		a.Category = "character"
		if declaredSize(m) <= 0 {
			a.RealSize = defaultsFor(a.Category).RealSize
		}
	}
	behavior := Behavior(getString(m, "behavior"))
	if behavior != BehaviorWander {
		behavior = BehaviorIdle
	}
	radius := getFloat(m, "wander_radius", "wanderRadius")
	if behavior == BehaviorWander && radius <= 0 {
		radius = 10
	}
	rel := parseRelationship(m)
	if rel.Relation == "adjacent" {
		rel.Relation = "near"
	}
	return NPC{
		ID:           entityID(m, "npc", i),
		Asset:        a,
		Rel:          rel,
		Behavior:     behavior,
		WanderRadius: radius,
		EstSize:      estimateBounds(a),
	}
}
