package plan

import "github.com/bug39/scenesmith/pkg/validation"

// convertStructures handles the relationship shape: an explicit
// "structures" array with optional decorations/arrangements/atmosphere/
// npcs arrays, all placed via relationships.
func convertStructures(raw map[string]any, report *validation.Report) *Plan {
	p := &Plan{Type: TypeRelationship}

	for i, sm := range getMapArray(raw, "structures") {
		p.Structures = append(p.Structures, parseStructure(sm, i))
	}
	for i, m := range getMapArray(raw, "decorations") {
		p.Decorations = append(p.Decorations, parseDecoration(m, i))
	}
	for i, m := range getMapArray(raw, "arrangements") {
		p.Arrangements = append(p.Arrangements, parseArrangement(m, i))
	}
	for i, m := range getMapArray(raw, "atmosphere") {
		p.Atmosphere = append(p.Atmosphere, parseAtmosphere(m, i))
	}
	for i, m := range getMapArray(raw, "npcs") {
		p.NPCs = append(p.NPCs, parseNPC(m, i))
	}
	return p
}

func parseStructure(m map[string]any, i int) Structure {
	a := parseAsset(m)
	if a.Category == "" {
		a.Category = "structure"
		if declaredSize(m) <= 0 {
			a.RealSize = defaultsFor(a.Category).RealSize
		}
	}
	return Structure{
		ID:          entityID(m, "structure", i),
		Asset:       a,
		Placement:   parsePlacement(m),
		Facing:      getString(m, "facing"),
		MinDistance: getFloat(m, "min_distance", "minDistance"),
		EstSize:     estimateBounds(a),
	}
}

// convertVersioned handles payloads carrying an explicit schema-version
// marker. The entity lists match the relationship shape but coordinates
// are literal, so the plan is marked explicit and runs through the soft
// validation/repair pass before placements are accepted.
func convertVersioned(raw map[string]any, report *validation.Report) *Plan {
	p := convertStructures(raw, report)
	p.Explicit = true
	return p
}
