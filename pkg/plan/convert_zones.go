package plan

import (
	"fmt"

	"github.com/bug39/scenesmith/pkg/validation"
)

// convertZones handles the narrative shape: a "zones" array where each
// zone has an anchor description and embedded vignettes. The anchor
// becomes a Structure; vignette elements become Decorations (props) and
// NPCs (characters).
//
// The first zone takes its explicit or keyword position. Every later zone
// is placed relative to the first with a deterministic spread: compass
// directions are cycled orthogonals-first while the radius grows by
// zoneSpreadStep per zone, so zone anchors never collide by construction.
func convertZones(raw map[string]any, report *validation.Report) *Plan {
	p := &Plan{Type: TypeRelationship}

	zones := getMapArray(raw, "zones")
	var firstID string

	for zi, zm := range zones {
		anchor := getMap(zm, "anchor")
		if anchor == nil {
			report.AddWarning(validation.Result{
				Level:   validation.LevelPlan,
				Message: fmt.Sprintf("zone %d has no anchor; skipped", zi),
				Path:    fmt.Sprintf("zones[%d]", zi),
			})
			continue
		}

		s := parseStructure(anchor, zi)
		if id := getString(zm, "id", "name"); id != "" {
			s.ID = id
		}

		if firstID == "" {
			firstID = s.ID
			if s.Placement.Position == nil && s.Placement.Keyword == "" {
				s.Placement.Keyword = "center"
			}
		} else {
			// Deterministic spread around the first zone.
			s.Placement = PlacementSpec{
				RelativeTo: firstID,
				Side:       zoneSpreadDirs[(zi-1)%len(zoneSpreadDirs)],
				Distance:   zoneSpreadBase + s.EstSize.Width + zoneSpreadStep*float64(zi-1),
			}
		}
		p.Structures = append(p.Structures, s)

		convertVignettes(zm, s.ID, zi, p)
	}
	return p
}

// convertVignettes expands a zone's vignettes into decorations and NPCs
// targeting the zone's anchor structure.
func convertVignettes(zm map[string]any, anchorID string, zi int, p *Plan) {
	for vi, vm := range getMapArray(zm, "vignettes") {
		elements := getMapArray(vm, "elements")

		// Count same-type elements up front so spreads can center.
		var props, chars []map[string]any
		for _, em := range elements {
			if t := getString(em, "type"); t == "character" || t == "npc" || getString(em, "behavior") != "" {
				chars = append(chars, em)
			} else {
				props = append(props, em)
			}
		}

		for i, em := range props {
			d := parseDecoration(em, vi*10+i)
			d.ID = fmt.Sprintf("zone%d_v%d_prop%d", zi, vi, i)
			d.Rel.TargetID = anchorID
			if d.Rel.Relation == "" || d.Rel.Relation == "adjacent" {
				d.Rel.Relation = "attached"
			}
			// Spread same-type props across the parent's horizontal band.
			d.Rel.SurfaceRatio = surfaceBand(i, len(props))
			p.Decorations = append(p.Decorations, d)
		}

		for i, em := range chars {
			n := parseNPC(em, vi*10+i)
			n.ID = fmt.Sprintf("zone%d_v%d_npc%d", zi, vi, i)
			n.Rel.TargetID = anchorID
			if n.Rel.Relation == "" || n.Rel.Relation == "adjacent" {
				n.Rel.Relation = "near"
			}
			// Centered lateral offset so a group doesn't stack on one spot.
			n.Rel.LateralOffset = (float64(i) - float64(len(chars)-1)/2) * npcSpacing
			p.NPCs = append(p.NPCs, n)
		}
	}
}

// surfaceBand maps element index i of n onto [surfaceRatioMin, surfaceRatioMax].
func surfaceBand(i, n int) float64 {
	if n <= 1 {
		return 0.5
	}
	t := float64(i) / float64(n-1)
	return surfaceRatioMin + t*(surfaceRatioMax-surfaceRatioMin)
}
