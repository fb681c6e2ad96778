package placement

import (
	"errors"
	"math"
	"testing"

	"github.com/bug39/scenesmith/pkg/config"
	"github.com/bug39/scenesmith/pkg/plan"
)

func testConfig() config.Engine {
	return config.Default()
}

func normalizeT(t *testing.T, text string) *plan.Plan {
	t.Helper()
	p, _, err := plan.Normalize(text, plan.ModeAuto)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return p
}

func TestSingleStructureAtCenter(t *testing.T) {
	p := normalizeT(t, `{"structures":[{"id":"well","asset":{"prompt":"stone well"},"placement":{"position":"center"}}]}`)
	r := New(testConfig())
	placements, report, err := r.Resolve(p)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(placements) != 1 {
		t.Fatalf("expected exactly 1 placement, got %d", len(placements))
	}
	got := placements[0]
	if got.Position.X != 0 || got.Position.Z != 0 {
		t.Errorf("position = %+v, want zone center", got.Position)
	}
	if got.InstanceID == "" {
		t.Error("instance id missing")
	}
	if got.Scale <= 0 {
		t.Errorf("scale = %f, want > 0", got.Scale)
	}
	if !report.Valid {
		t.Errorf("report invalid: %s", report.Summary)
	}
}

func TestInstanceIDsAreUnique(t *testing.T) {
	p := normalizeT(t, `{"structures":[
		{"id":"a","asset":{"prompt":"hut"},"placement":{"position":"north"}},
		{"id":"b","asset":{"prompt":"hut"},"placement":{"position":"south"}}],
		"atmosphere":[{"asset":{"prompt":"boulder","category":"rock"},"count":8,"relation":"scattered"}]}`)
	r := New(testConfig())
	placements, _, err := r.Resolve(p)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	seen := make(map[string]bool)
	for _, pl := range placements {
		if seen[pl.InstanceID] {
			t.Fatalf("duplicate instance id %q", pl.InstanceID)
		}
		seen[pl.InstanceID] = true
	}
}

func TestZoneSpreadPairwiseDistances(t *testing.T) {
	p := normalizeT(t, `{"zones":[
		{"id":"z0","anchor":{"description":"market hall"}},
		{"id":"z1","anchor":{"description":"forge"}},
		{"id":"z2","anchor":{"description":"chapel"}},
		{"id":"z3","anchor":{"description":"stable"}}
	]}`)
	r := New(testConfig())
	placements, _, err := r.Resolve(p)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(placements) != 4 {
		t.Fatalf("expected 4 anchors, got %d", len(placements))
	}

	minSize := math.MaxFloat64
	for _, s := range p.Structures {
		if s.EstSize.Width < minSize {
			minSize = s.EstSize.Width
		}
	}
	floor := 40 + minSize
	for i := range placements {
		for j := i + 1; j < len(placements); j++ {
			d := placements[i].Position.Distance(placements[j].Position)
			if d < floor {
				t.Errorf("zones %d and %d only %.1fm apart, want >= %.1f", i, j, d, floor)
			}
		}
	}
}

func TestResolvedCoordinatesWithinBounds(t *testing.T) {
	cfg := testConfig()
	p := normalizeT(t, `{"structures":[{"id":"far","asset":{"prompt":"tower"},"position":[9999,-9999]}]}`)
	r := New(cfg)
	placements, _, err := r.Resolve(p)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, pl := range placements {
		if pl.Position.X < cfg.BoundsMin() || pl.Position.X > cfg.BoundsMax() ||
			pl.Position.Z < cfg.BoundsMin() || pl.Position.Z > cfg.BoundsMax() {
			t.Errorf("placement %s outside bounds: %+v", pl.InstanceID, pl.Position)
		}
	}
}

func TestUnresolvableStructureTargetFailsPass(t *testing.T) {
	p := &plan.Plan{
		Type: plan.TypeRelationship,
		Structures: []plan.Structure{{
			ID:        "orphan",
			Asset:     plan.Asset{Prompt: "shed", Category: "structure", RealSize: 6, Scale: 1},
			Placement: plan.PlacementSpec{RelativeTo: "ghost", Side: "north"},
			EstSize:   plan.Bounds3{Width: 6, Height: 5, Depth: 6},
		}},
	}
	r := New(testConfig())
	_, _, err := r.Resolve(p)
	if err == nil {
		t.Fatal("expected UnresolvableTargetError")
	}
	if _, ok := err.(*UnresolvableTargetError); !ok {
		t.Fatalf("wrong error type: %T", err)
	}
}

func TestDecorationPlacedAgainstParent(t *testing.T) {
	p := normalizeT(t, `{"structures":[{"id":"hall","asset":{"prompt":"great hall"},"placement":{"position":"center"}}],
		"decorations":[{"asset":{"prompt":"barrel","category":"prop"},"relationship":{"target":"hall","relation":"attached","side":"east"}}]}`)
	r := New(testConfig())
	placements, _, err := r.Resolve(p)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(placements) != 2 {
		t.Fatalf("expected hall + barrel, got %d placements", len(placements))
	}
	barrel := placements[1]
	if barrel.StructureID != "hall" {
		t.Errorf("barrel parent = %q, want hall", barrel.StructureID)
	}
	hall := placements[0]
	// Attached east: the barrel sits just beyond the hall's east edge.
	if barrel.Position.X <= hall.Position.X {
		t.Errorf("attached-east barrel not east of parent: %+v", barrel.Position)
	}
	if d := barrel.Position.Distance(hall.Position); d > 15 {
		t.Errorf("attached barrel %.1fm from parent, want pressed against it", d)
	}
}

func TestArrangementRowCount(t *testing.T) {
	p := normalizeT(t, `{"structures":[{"id":"inn","asset":{"prompt":"inn"},"placement":{"position":"center"}}],
		"arrangements":[{"asset":{"prompt":"chair","category":"prop"},"relationship":{"target":"inn","side":"south"},"pattern":"row","count":4,"spacing":3}]}`)
	r := New(testConfig())
	placements, _, err := r.Resolve(p)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	chairs := 0
	for _, pl := range placements {
		if pl.Prompt == "chair" {
			chairs++
		}
	}
	if chairs != 4 {
		t.Errorf("placed %d chairs, want 4", chairs)
	}
}

func TestNPCCarriesBehavior(t *testing.T) {
	p := normalizeT(t, `{"structures":[{"id":"camp","asset":{"prompt":"tent"},"placement":{"position":"center"}}],
		"npcs":[{"asset":{"prompt":"wandering trader"},"behavior":"wander","wander_radius":12,"relationship":{"target":"camp","relation":"near"}}]}`)
	r := New(testConfig())
	placements, _, err := r.Resolve(p)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var npc *Placement
	for i := range placements {
		if placements[i].NPC {
			npc = &placements[i]
		}
	}
	if npc == nil {
		t.Fatal("npc placement missing")
	}
	if npc.Behavior != "wander" || npc.WanderRadius != 12 {
		t.Errorf("behavior not carried: %+v", npc)
	}
	if npc.StructureID != "camp" {
		t.Errorf("npc parent = %q, want camp", npc.StructureID)
	}
}

func TestMeasurementDrivesScale(t *testing.T) {
	measure := func(prompt string) (Measurement, bool) {
		if prompt == "stone well" {
			return Measurement{Width: 1, Depth: 1, Height: 1, FootprintArea: 1, MaxY: 1}, true
		}
		return Measurement{}, false
	}
	p := normalizeT(t, `{"structures":[{"id":"well","asset":{"prompt":"stone well","real_size":4},"placement":{"position":"center"}}]}`)
	r := New(testConfig(), WithMeasure(measure))
	placements, _, err := r.Resolve(p)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// A 1m-tall asset scaled to a 4m real size needs scale 4.
	if placements[0].Scale != 4 {
		t.Errorf("scale = %f, want 4", placements[0].Scale)
	}
}

func TestScaleClamped(t *testing.T) {
	measure := func(string) (Measurement, bool) {
		return Measurement{Width: 0.001, Depth: 0.001, Height: 0.001}, true
	}
	cfg := testConfig()
	p := normalizeT(t, `{"structures":[{"id":"giant","asset":{"prompt":"colossus","real_size":5000},"placement":{"position":"center"}}]}`)
	r := New(cfg, WithMeasure(measure))
	placements, _, err := r.Resolve(p)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if placements[0].Scale != cfg.ScaleMax {
		t.Errorf("scale = %f, want clamped to %f", placements[0].Scale, cfg.ScaleMax)
	}
}

func TestCacheFallsBackOnFailure(t *testing.T) {
	calls := 0
	c := NewCache(func(code string) (Measurement, error) {
		calls++
		return Measurement{}, errMeasure
	})
	m := c.Measure("some code")
	if m.Width != 2 || m.Depth != 2 || m.Height != 2 {
		t.Errorf("fallback not default box: %+v", m)
	}
	// Cached: the failing collaborator is not called again.
	c.Measure("some code")
	if calls != 1 {
		t.Errorf("measure called %d times, want 1", calls)
	}
	if c.Failures() != 1 {
		t.Errorf("failures = %d, want 1", c.Failures())
	}
	if c.Len() != 1 {
		t.Errorf("cache len = %d, want 1", c.Len())
	}
}

var errMeasure = errors.New("measure failed")
