package plan

import "github.com/bug39/scenesmith/pkg/validation"

// convertAssets is the fallback for a flat "assets" array with no other
// shape marker. Structure-category entries become anchor structures; the
// rest scatter across the zone as atmosphere.
func convertAssets(raw map[string]any, report *validation.Report) *Plan {
	p := &Plan{Type: TypeRelationship}

	si := 0
	ai := 0
	for _, m := range getMapArray(raw, "assets") {
		a := parseAsset(m)
		switch a.Category {
		case "structure", "building":
			s := parseStructure(m, si)
			if s.Placement.Position == nil && s.Placement.Keyword == "" && s.Placement.RelativeTo == "" {
				if si == 0 {
					s.Placement.Keyword = "center"
				} else {
					// Later structures spread around the first one.
					s.Placement.RelativeTo = p.Structures[0].ID
					s.Placement.Side = compassDirs[(si-1)%len(compassDirs)]
					s.Placement.Distance = zoneSpreadBase + s.EstSize.Width
				}
			}
			p.Structures = append(p.Structures, s)
			si++
		default:
			item := parseAtmosphere(m, ai)
			item.Rel.Relation = "scattered"
			item.Rel.TargetID = ""
			p.Atmosphere = append(p.Atmosphere, item)
			ai++
		}
	}
	return p
}
