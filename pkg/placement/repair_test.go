package placement

import (
	"strings"
	"testing"

	"github.com/bug39/scenesmith/pkg/geo"
	"github.com/bug39/scenesmith/pkg/plan"
)

func explicitStructure(id string, x, z float64) plan.Structure {
	pos := geo.Pt(x, z)
	return plan.Structure{
		ID:        id,
		Asset:     plan.Asset{Prompt: id, Category: "structure", RealSize: 12, Scale: 1},
		Placement: plan.PlacementSpec{Position: &pos},
		EstSize:   plan.Bounds3{Width: 12, Height: 9.6, Depth: 12},
	}
}

func TestClampOutOfBounds(t *testing.T) {
	cfg := testConfig()
	structs := []plan.Structure{explicitStructure("far", 5000, -5000)}

	out, report := ValidateV2Structures(structs, cfg)
	pos := out[0].Placement.Position
	if pos.X != cfg.BoundsMax() || pos.Z != cfg.BoundsMin() {
		t.Errorf("clamped to %+v, want (%.0f, %.0f)", pos, cfg.BoundsMax(), cfg.BoundsMin())
	}
	if len(report.Warnings) != 1 {
		t.Errorf("expected 1 clamp warning, got %d", len(report.Warnings))
	}

	// Idempotence: a second pass produces zero additional warnings.
	_, second := ValidateV2Structures(out, cfg)
	if len(second.Warnings) != 0 {
		t.Errorf("second pass produced %d warnings, want 0", len(second.Warnings))
	}
}

func TestNudgeResolvesNearOverlap(t *testing.T) {
	cfg := testConfig() // threshold 40, nudge 30
	structs := []plan.Structure{
		explicitStructure("a", 0, 0),
		explicitStructure("b", 5, 0),
	}

	out, report := ValidateV2Structures(structs, cfg)
	d := out[0].Placement.Position.Distance(*out[1].Placement.Position)
	if d < 60 {
		t.Errorf("post-repair distance = %.1f, want >= 60", d)
	}

	nudged := 0
	for _, w := range report.Warnings {
		if strings.Contains(w.Message, "Nudged") {
			nudged++
		}
	}
	if nudged != 1 {
		t.Errorf("expected exactly 1 Nudged warning, got %d", nudged)
	}

	// Repaired output passes clean.
	_, second := ValidateV2Structures(out, cfg)
	if len(second.Warnings) != 0 {
		t.Errorf("second pass produced warnings: %s", second.Summary)
	}
}

func TestNudgeCoincidentPair(t *testing.T) {
	cfg := testConfig()
	structs := []plan.Structure{
		explicitStructure("a", 10, 10),
		explicitStructure("b", 10, 10),
	}

	out, _ := ValidateV2Structures(structs, cfg)
	d := out[0].Placement.Position.Distance(*out[1].Placement.Position)
	if d <= cfg.StructureOverlapThreshold {
		t.Errorf("coincident pair still %.1fm apart, want > %.0f", d, cfg.StructureOverlapThreshold)
	}
}

func TestNudgeAtZoneCornerStaysInBounds(t *testing.T) {
	cfg := testConfig()
	hi := cfg.BoundsMax()
	structs := []plan.Structure{
		explicitStructure("a", hi, hi),
		explicitStructure("b", hi, hi),
	}

	out, _ := ValidateV2Structures(structs, cfg)
	lo := cfg.BoundsMin()
	for _, s := range out {
		p := s.Placement.Position
		if p.X < lo || p.X > hi || p.Z < lo || p.Z > hi {
			t.Errorf("structure %q out of bounds at %+v", s.ID, p)
		}
	}
	// A corner pair can't separate outward; the repair must still end
	// above the threshold or the pass would warn forever.
	d := out[0].Placement.Position.Distance(*out[1].Placement.Position)
	if d < cfg.StructureOverlapThreshold {
		t.Errorf("corner pair only %.1fm apart, threshold %.0f", d, cfg.StructureOverlapThreshold)
	}

	_, second := ValidateV2Structures(out, cfg)
	if len(second.Warnings) != 0 {
		t.Errorf("second pass produced warnings: %s", second.Summary)
	}
}

func TestClustersFlaggedNotRepaired(t *testing.T) {
	cfg := testConfig() // cluster radius 60, flag count 3
	structs := []plan.Structure{
		explicitStructure("a", 0, 0),
		explicitStructure("b", 45, 0),
		explicitStructure("c", 0, 45),
	}

	out, report := ValidateV2Structures(structs, cfg)
	// No pair is under the overlap threshold, so positions are untouched.
	for i, s := range out {
		if *s.Placement.Position != *structs[i].Placement.Position {
			t.Errorf("cluster member %s moved: %+v", s.ID, s.Placement.Position)
		}
	}
	flagged := false
	for _, info := range report.Info {
		if strings.Contains(info.Message, "cluster") {
			flagged = true
		}
	}
	if !flagged {
		t.Error("cluster should be flagged as info")
	}
	if len(report.Warnings) != 0 {
		t.Errorf("cluster flagging must not warn or repair, got %d warnings", len(report.Warnings))
	}
}

func TestFrameDistanceFloor(t *testing.T) {
	cfg := testConfig()
	cfg.ZoneSize = 120 // small zone so edge positions land near the focal
	cfg.RebalanceGridSize = 0

	p := normalizeT(t, `{"layers":{
		"focal":[{"id":"statue","asset":{"prompt":"statue","category":"structure"}}],
		"frame":[{"asset":{"prompt":"pine","category":"tree"},"count":6,"relationship":{"distance":5}}]
	}}`)
	r := New(cfg)
	placements, _, err := r.Resolve(p)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	var focal *Placement
	for i := range placements {
		if placements[i].Layer == plan.LayerFocal {
			focal = &placements[i]
		}
	}
	if focal == nil {
		t.Fatal("focal missing")
	}
	frames := 0
	for _, pl := range placements {
		if pl.Layer != plan.LayerFrame {
			continue
		}
		frames++
		if d := pl.Position.Distance(focal.Position); d < cfg.FrameMinDistance-1e-6 {
			t.Errorf("frame element %.1fm from focal, floor is %.0f (requested 5)", d, cfg.FrameMinDistance)
		}
	}
	if frames == 0 {
		t.Fatal("no frame elements placed")
	}
}

func TestFillGradientStaysInZone(t *testing.T) {
	cfg := testConfig()
	p := normalizeT(t, `{"layers":{
		"focal":[{"id":"obelisk","asset":{"prompt":"obelisk","category":"structure"}}],
		"fill":[{"asset":{"prompt":"shrub","category":"plant"},"count":20}]
	}}`)
	r := New(cfg, WithSeed(7))
	placements, _, err := r.Resolve(p)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	fills := 0
	for _, pl := range placements {
		if pl.Layer != plan.LayerFill {
			continue
		}
		fills++
		if pl.Position.X < cfg.BoundsMin() || pl.Position.X > cfg.BoundsMax() ||
			pl.Position.Z < cfg.BoundsMin() || pl.Position.Z > cfg.BoundsMax() {
			t.Errorf("fill element out of zone: %+v", pl.Position)
		}
	}
	if fills < 10 {
		t.Errorf("only %d of 20 fill elements placed", fills)
	}
}
