package plan

import (
	"fmt"

	"github.com/bug39/scenesmith/pkg/validation"
)

// Normalize detects which of the five supported plan shapes the payload
// uses and converts it to the canonical Plan. Detection runs in a fixed
// priority order; the first marker that matches wins:
//
//  1. explicit schema-version marker ("schema_version")
//  2. narrative zones with vignettes ("zones")
//  3. explicit "structures" array
//  4. "layers" object
//  5. flat "assets" array
//
// Shape is never inferred beyond this order. A payload matching none of
// the markers fails with *ParseError.
func Normalize(text string, mode Mode) (*Plan, *validation.Report, error) {
	raw, err := decodeRaw(text)
	if err != nil {
		return nil, nil, err
	}

	report := validation.NewReport()
	var p *Plan

	switch {
	case getString(raw, "schema_version") != "":
		p = convertVersioned(raw, report)
	case len(getArray(raw, "zones")) > 0:
		p = convertZones(raw, report)
	case len(getArray(raw, "structures")) > 0:
		p = convertStructures(raw, report)
	case getMap(raw, "layers") != nil:
		p = convertLayers(raw, report)
	case len(getArray(raw, "assets")) > 0:
		p = convertAssets(raw, report)
	default:
		return nil, nil, &ParseError{Reason: "payload has none of schema_version/zones/structures/layers/assets"}
	}

	p.Theme = getString(raw, "theme", "title")
	p.Biome = getString(raw, "biome")
	if mode == ModeLayered && p.Type != TypeLayered {
		report.AddInfo(validation.Result{
			Level:   validation.LevelPlan,
			Message: fmt.Sprintf("requested layered mode but payload normalized as %s", p.Type),
		})
	}

	dropGroundCover(p, report)
	pruneUnresolvable(p, report)

	report.AddInfo(validation.Result{
		Level: validation.LevelPlan,
		Message: fmt.Sprintf("normalized plan: %d structures, %d decorations, %d arrangements, %d atmosphere, %d npcs",
			len(p.Structures), len(p.Decorations), len(p.Arrangements), len(p.Atmosphere), len(p.NPCs)),
	})
	return p, report, nil
}

// dropGroundCover removes entities whose prompts describe surface texture.
func dropGroundCover(p *Plan, report *validation.Report) {
	drop := func(prompt, path string) bool {
		if !isGroundCover(prompt) {
			return false
		}
		report.AddInfo(validation.Result{
			Level:   validation.LevelPlan,
			Message: fmt.Sprintf("discarded ground-cover prompt %q", prompt),
			Path:    path,
		})
		return true
	}

	decs := p.Decorations[:0]
	for i, d := range p.Decorations {
		if !drop(d.Asset.Prompt, fmt.Sprintf("decorations[%d]", i)) {
			decs = append(decs, d)
		}
	}
	p.Decorations = decs

	atmo := p.Atmosphere[:0]
	for i, a := range p.Atmosphere {
		if !drop(a.Asset.Prompt, fmt.Sprintf("atmosphere[%d]", i)) {
			atmo = append(atmo, a)
		}
	}
	p.Atmosphere = atmo
}

// pruneUnresolvable drops secondary entries whose relationship names a
// structure id that does not exist in the plan. Each drop is a warning,
// never an error: one bad reference must not abort the plan.
func pruneUnresolvable(p *Plan, report *validation.Report) {
	ids := make(map[string]bool, len(p.Structures))
	for _, s := range p.Structures {
		ids[s.ID] = true
	}
	missing := func(target, kind, id string) bool {
		if target == "" || ids[target] {
			return false
		}
		report.AddWarning(validation.Result{
			Level:   validation.LevelPlan,
			Message: fmt.Sprintf("%s %q references missing structure %q; skipped", kind, id, target),
			Entity:  id,
		})
		return true
	}

	decs := p.Decorations[:0]
	for _, d := range p.Decorations {
		if !missing(d.Rel.TargetID, "decoration", d.ID) {
			decs = append(decs, d)
		}
	}
	p.Decorations = decs

	arrs := p.Arrangements[:0]
	for _, a := range p.Arrangements {
		if !missing(a.Rel.TargetID, "arrangement", a.ID) {
			arrs = append(arrs, a)
		}
	}
	p.Arrangements = arrs

	atmo := p.Atmosphere[:0]
	for _, a := range p.Atmosphere {
		if !missing(a.Rel.TargetID, "atmosphere item", a.ID) {
			atmo = append(atmo, a)
		}
	}
	p.Atmosphere = atmo

	npcs := p.NPCs[:0]
	for _, n := range p.NPCs {
		if !missing(n.Rel.TargetID, "npc", n.ID) {
			npcs = append(npcs, n)
		}
	}
	p.NPCs = npcs
}
