package plan

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractJSONPlain(t *testing.T) {
	out, err := ExtractJSON(`{"theme":"village"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"theme":"village"}` {
		t.Errorf("unexpected extraction: %s", out)
	}
}

func TestExtractJSONFenced(t *testing.T) {
	text := "Here is the plan:\n```json\n{\"theme\": \"ruins\", \"assets\": []}\n```\nDone."
	out, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"ruins"`) {
		t.Errorf("extraction lost content: %s", out)
	}
}

func TestExtractJSONBracesInStrings(t *testing.T) {
	out, err := ExtractJSON(`{"prompt":"a {weird} sign"} trailing`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"prompt":"a {weird} sign"}` {
		t.Errorf("brace-in-string confused the scanner: %s", out)
	}
}

func TestExtractJSONNoObject(t *testing.T) {
	_, err := ExtractJSON("no json here at all")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestNormalizeRejectsUnknownShape(t *testing.T) {
	_, _, err := Normalize(`{"something": "else"}`, ModeAuto)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError for markerless payload, got %v", err)
	}
}

func TestNormalizeInvalidJSON(t *testing.T) {
	_, _, err := Normalize(`{"structures": [`, ModeAuto)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError for broken JSON, got %v", err)
	}
}

func TestDetectionPriorityVersionedBeatsStructures(t *testing.T) {
	text := `{"schema_version":"2.0","structures":[{"id":"hall","asset":{"prompt":"great hall"},"position":[10,20]}]}`
	p, _, err := Normalize(text, ModeAuto)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !p.Explicit {
		t.Error("versioned payload should be marked explicit")
	}
	if len(p.Structures) != 1 {
		t.Fatalf("expected 1 structure, got %d", len(p.Structures))
	}
	pos := p.Structures[0].Placement.Position
	if pos == nil || pos.X != 10 || pos.Z != 20 {
		t.Errorf("literal position lost: %+v", pos)
	}
}

func TestStructuresShape(t *testing.T) {
	text := `{"theme":"old well","structures":[{"id":"well","asset":{"prompt":"stone well"},"placement":{"position":"center"}}]}`
	p, _, err := Normalize(text, ModeAuto)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if p.Type != TypeRelationship {
		t.Errorf("type = %s, want relationship", p.Type)
	}
	if p.Theme != "old well" {
		t.Errorf("theme = %q", p.Theme)
	}
	s := p.StructureByID("well")
	if s == nil {
		t.Fatal("structure well missing")
	}
	if s.Placement.Keyword != "center" {
		t.Errorf("keyword = %q, want center", s.Placement.Keyword)
	}
	if s.EstSize.Width <= 0 || s.EstSize.Height <= 0 || s.EstSize.Depth <= 0 {
		t.Errorf("estimated bounds not filled: %+v", s.EstSize)
	}
}

func TestZonesSpreadIsDeterministic(t *testing.T) {
	text := `{"zones":[
		{"id":"square","anchor":{"description":"market hall"}},
		{"id":"forge","anchor":{"description":"blacksmith forge"}},
		{"id":"chapel","anchor":{"description":"small chapel"}}
	]}`
	p, _, err := Normalize(text, ModeAuto)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(p.Structures) != 3 {
		t.Fatalf("expected 3 structures, got %d", len(p.Structures))
	}
	first := p.Structures[0]
	if first.Placement.Keyword != "center" {
		t.Errorf("first zone keyword = %q, want center", first.Placement.Keyword)
	}
	for i, s := range p.Structures[1:] {
		if s.Placement.RelativeTo != first.ID {
			t.Errorf("zone %d not relative to first", i+1)
		}
		if s.Placement.Side != zoneSpreadDirs[i%len(zoneSpreadDirs)] {
			t.Errorf("zone %d side = %q, want %q", i+1, s.Placement.Side, zoneSpreadDirs[i])
		}
		want := zoneSpreadBase + s.EstSize.Width + zoneSpreadStep*float64(i)
		if s.Placement.Distance != want {
			t.Errorf("zone %d distance = %.1f, want %.1f", i+1, s.Placement.Distance, want)
		}
	}
}

func TestZoneVignettesSpreadPropsAndNPCs(t *testing.T) {
	text := `{"zones":[{"id":"camp","anchor":{"description":"canvas tent"},"vignettes":[{"elements":[
		{"type":"prop","description":"wooden crate"},
		{"type":"prop","description":"iron lantern"},
		{"type":"character","description":"guard","behavior":"idle"},
		{"type":"character","description":"merchant","behavior":"wander"}
	]}]}]}`
	p, _, err := Normalize(text, ModeAuto)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(p.Decorations) != 2 || len(p.NPCs) != 2 {
		t.Fatalf("got %d decorations, %d npcs; want 2 and 2", len(p.Decorations), len(p.NPCs))
	}
	// Props spread across the 0.2-0.8 band.
	if r := p.Decorations[0].Rel.SurfaceRatio; r != surfaceRatioMin {
		t.Errorf("first prop ratio = %.2f, want %.2f", r, surfaceRatioMin)
	}
	if r := p.Decorations[1].Rel.SurfaceRatio; r != surfaceRatioMax {
		t.Errorf("second prop ratio = %.2f, want %.2f", r, surfaceRatioMax)
	}
	// NPC lateral offsets centered on zero.
	if off := p.NPCs[0].Rel.LateralOffset + p.NPCs[1].Rel.LateralOffset; off != 0 {
		t.Errorf("npc offsets not centered: sum = %.2f", off)
	}
	if p.NPCs[1].Behavior != BehaviorWander || p.NPCs[1].WanderRadius <= 0 {
		t.Errorf("wander behavior not carried: %+v", p.NPCs[1])
	}
}

func TestLayersShape(t *testing.T) {
	text := `{"layers":{
		"focal":[{"id":"statue","asset":{"prompt":"marble statue","category":"structure"}}],
		"anchors":[{"asset":{"prompt":"oak tree","category":"tree"}}],
		"frame":[{"asset":{"prompt":"pine tree","category":"tree"},"count":4}],
		"fill":[{"asset":{"prompt":"boulder","category":"rock"},"count":6,"min_distance":9}]
	}}`
	p, _, err := Normalize(text, ModeAuto)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if p.Type != TypeLayered {
		t.Fatalf("type = %s, want layered", p.Type)
	}
	if len(p.Structures) != 2 {
		t.Fatalf("expected focal + anchor structures, got %d", len(p.Structures))
	}
	if p.Structures[0].Layer != LayerFocal {
		t.Error("first structure should be focal")
	}
	anchor := p.Structures[1]
	if anchor.Placement.Distance != layerDefaults[LayerAnchors].Radius {
		t.Errorf("anchor radius default not applied: %.1f", anchor.Placement.Distance)
	}
	var frame, fill *AtmosphereItem
	for i := range p.Atmosphere {
		switch p.Atmosphere[i].Layer {
		case LayerFrame:
			frame = &p.Atmosphere[i]
		case LayerFill:
			fill = &p.Atmosphere[i]
		}
	}
	if frame == nil || fill == nil {
		t.Fatal("frame or fill entry missing")
	}
	if frame.Rel.Distance != layerDefaults[LayerFrame].Radius {
		t.Errorf("frame distance default not applied: %.1f", frame.Rel.Distance)
	}
	// Entry's own min_distance must not be overwritten by the layer default.
	if fill.Rel.MinDistance != 9 {
		t.Errorf("fill min_distance overwritten: %.1f, want 9", fill.Rel.MinDistance)
	}
}

func TestAssetsFallbackShape(t *testing.T) {
	text := `{"assets":[
		{"prompt":"ranger cabin","category":"structure"},
		{"prompt":"watchtower","category":"structure"},
		{"prompt":"fern","category":"plant","count":5}
	]}`
	p, _, err := Normalize(text, ModeAuto)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(p.Structures) != 2 || len(p.Atmosphere) != 1 {
		t.Fatalf("got %d structures, %d atmosphere", len(p.Structures), len(p.Atmosphere))
	}
	if p.Structures[1].Placement.RelativeTo != p.Structures[0].ID {
		t.Error("second structure should spread around the first")
	}
	if p.Atmosphere[0].Rel.Relation != "scattered" {
		t.Errorf("non-structure assets should scatter, got %q", p.Atmosphere[0].Rel.Relation)
	}
}

func TestGroundCoverDiscarded(t *testing.T) {
	text := `{"structures":[{"id":"hut","asset":{"prompt":"mud hut"},"placement":{"position":"center"}}],
		"decorations":[
			{"asset":{"prompt":"lush grass covering the terrain"},"relationship":{"target":"hut"}},
			{"asset":{"prompt":"wooden bench"},"relationship":{"target":"hut"}}
		]}`
	p, report, err := Normalize(text, ModeAuto)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(p.Decorations) != 1 {
		t.Fatalf("expected ground cover dropped, got %d decorations", len(p.Decorations))
	}
	if p.Decorations[0].Asset.Prompt != "wooden bench" {
		t.Errorf("wrong decoration kept: %q", p.Decorations[0].Asset.Prompt)
	}
	found := false
	for _, info := range report.Info {
		if strings.Contains(info.Message, "ground-cover") {
			found = true
		}
	}
	if !found {
		t.Error("discard should be recorded as info")
	}
}

func TestUnresolvableTargetSkipped(t *testing.T) {
	text := `{"structures":[{"id":"hut","asset":{"prompt":"mud hut"},"placement":{"position":"center"}}],
		"decorations":[{"asset":{"prompt":"bench"},"relationship":{"target":"nonexistent"}}]}`
	p, report, err := Normalize(text, ModeAuto)
	if err != nil {
		t.Fatalf("skipping a bad target must not error: %v", err)
	}
	if len(p.Decorations) != 0 {
		t.Fatalf("expected decoration dropped, got %d", len(p.Decorations))
	}
	if len(report.Warnings) == 0 {
		t.Fatal("skip should be recorded as a warning")
	}
	if !strings.Contains(report.Warnings[0].Message, "nonexistent") {
		t.Errorf("warning should name the missing id: %s", report.Warnings[0].Message)
	}
}
