package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/bug39/scenesmith/pkg/config"
	"github.com/bug39/scenesmith/pkg/geo"
	"github.com/bug39/scenesmith/pkg/placement"
	"github.com/bug39/scenesmith/pkg/plan"
)

func pl(id string, x, z, w, d float64) placement.Placement {
	return placement.Placement{
		InstanceID: id,
		Prompt:     id,
		Category:   "prop",
		Position:   geo.Pt(x, z),
		Scale:      1,
		Size:       plan.Bounds3{Width: w, Height: 2, Depth: d},
	}
}

func TestEmptySceneIsAllZeros(t *testing.T) {
	report, score := Analyze(nil, nil, config.Default())
	if len(report.Overlaps) != 0 {
		t.Errorf("empty scene reported %d overlaps", len(report.Overlaps))
	}
	if report.CoveragePct != 0 {
		t.Errorf("coverage = %.1f, want 0", report.CoveragePct)
	}
	if report.Clustering != 0 {
		t.Errorf("clustering = %.2f, want 0", report.Clustering)
	}
	if score.Overall != 0 || score.Passed {
		t.Errorf("empty scene score = %+v, want zero and not passed", score)
	}
}

func TestCoincidentDefaultBoxesFullPenetration(t *testing.T) {
	// Two placements at the same spot with no measured size fall back to
	// the 2x2x2 default box; that is one pair at (nearly) full penetration.
	a := pl("a", 10, 10, 0, 0)
	b := pl("b", 10, 10, 0, 0)
	report, _ := Analyze([]placement.Placement{a, b}, nil, config.Default())

	if len(report.Overlaps) != 1 {
		t.Fatalf("expected exactly 1 overlap pair, got %d", len(report.Overlaps))
	}
	m := report.Overlaps[0].Meters
	if m < 1.5 || m > 2 {
		t.Errorf("overlap depth = %.2fm, want ~2 (full penetration of a 2m box)", m)
	}
	if len(report.Flagged) != 2 {
		t.Errorf("flagged = %v, want both instance ids", report.Flagged)
	}
}

func TestOverlapIsSymmetric(t *testing.T) {
	a := pl("a", 0, 0, 6, 6)
	b := pl("b", 3, 1, 6, 6)
	fwd := findOverlaps([]placement.Placement{a, b}, 1)
	rev := findOverlaps([]placement.Placement{b, a}, 1)
	if len(fwd) != 1 || len(rev) != 1 {
		t.Fatalf("pair counts differ: %d vs %d", len(fwd), len(rev))
	}
	if fwd[0].Meters != rev[0].Meters {
		t.Errorf("depth not symmetric: %.3f vs %.3f", fwd[0].Meters, rev[0].Meters)
	}
}

func TestBufferToleratesNearTouch(t *testing.T) {
	// 2m boxes 1.9m apart: exact footprints overlap by 0.1m, but the 0.9
	// buffer shrinks each to 1.8m and the pair passes.
	a := pl("a", 0, 0, 2, 2)
	b := pl("b", 1.9, 0, 2, 2)
	if got := findOverlaps([]placement.Placement{a, b}, 0.9); len(got) != 0 {
		t.Errorf("buffered check flagged a near-touch pair: %+v", got)
	}
	if got := findOverlaps([]placement.Placement{a, b}, 1); len(got) != 1 {
		t.Errorf("exact check should flag the pair")
	}
}

func TestClusteringExtremes(t *testing.T) {
	cfg := config.Default()
	piled := []placement.Placement{
		pl("a", 5, 5, 2, 2), pl("b", 5, 5, 2, 2), pl("c", 5, 5, 2, 2),
	}
	report, _ := Analyze(piled, nil, cfg)
	if report.Clustering != 1 {
		t.Errorf("piled-up clustering = %.2f, want 1", report.Clustering)
	}

	half := cfg.ZoneSize / 2
	spread := []placement.Placement{
		pl("a", -half, -half, 2, 2), pl("b", half, -half, 2, 2),
		pl("c", -half, half, 2, 2), pl("d", half, half, 2, 2),
	}
	report, _ = Analyze(spread, nil, cfg)
	if report.Clustering != 0 {
		t.Errorf("corner-spread clustering = %.2f, want 0", report.Clustering)
	}
}

func TestCoverageCappedAt100(t *testing.T) {
	cfg := config.Default()
	huge := pl("floor", 0, 0, cfg.ZoneSize*2, cfg.ZoneSize*2)
	report, _ := Analyze([]placement.Placement{huge}, nil, cfg)
	if report.CoveragePct != 100 {
		t.Errorf("coverage = %.1f, want capped at 100", report.CoveragePct)
	}
}

func TestDensityGridCountsEveryPlacement(t *testing.T) {
	cfg := config.Default()
	scene := []placement.Placement{
		pl("a", -150, -150, 2, 2), pl("b", 0, 0, 2, 2), pl("c", 150, 150, 2, 2),
	}
	report, _ := Analyze(scene, nil, cfg)
	total := 0
	for _, c := range report.DensityRows {
		total += c
	}
	if total != len(scene) {
		t.Errorf("density grid total = %d, want %d", total, len(scene))
	}
	if len(report.DensityRows) != densityGridSize*densityGridSize {
		t.Errorf("grid has %d cells, want %d", len(report.DensityRows), densityGridSize*densityGridSize)
	}
}

func TestFocalOcclusion(t *testing.T) {
	cfg := config.Default() // camera at (0, 240)
	focal := pl("statue", 0, 0, 4, 4)
	focal.Category = "structure"
	focal.Layer = plan.LayerFocal

	clear := []placement.Placement{focal, pl("bench", 60, 0, 2, 2)}
	_, score := Analyze(clear, nil, cfg)
	if score.Focal != 100 {
		t.Errorf("unoccluded focal score = %.0f, want 100", score.Focal)
	}

	// A blocker sitting on the camera-to-focal segment, nearer than the
	// focal, costs one occlusion penalty.
	blocked := []placement.Placement{focal, pl("wagon", 0, 100, 4, 4)}
	_, score = Analyze(blocked, nil, cfg)
	if score.Focal != 100-occlusionPenalty {
		t.Errorf("occluded focal score = %.0f, want %.0f", score.Focal, 100-occlusionPenalty)
	}
}

func TestBalancePerfectQuadrants(t *testing.T) {
	scene := []placement.Placement{
		pl("a", -50, -50, 2, 2), pl("b", 50, -50, 2, 2),
		pl("c", -50, 50, 2, 2), pl("d", 50, 50, 2, 2),
	}
	if got := balanceScore(scene); got != 100 {
		t.Errorf("one-per-quadrant balance = %.1f, want 100", got)
	}

	lopsided := []placement.Placement{
		pl("a", -50, -50, 2, 2), pl("b", -60, -40, 2, 2),
		pl("c", -40, -60, 2, 2), pl("d", -55, -45, 2, 2),
	}
	if got := balanceScore(lopsided); got >= 50 {
		t.Errorf("one-quadrant balance = %.1f, want well below 50", got)
	}
}

func TestOverlapPenaltyLowersOverall(t *testing.T) {
	cfg := config.Default()
	clean := []placement.Placement{pl("a", -40, -40, 2, 2), pl("b", 40, 40, 2, 2)}
	_, cleanScore := Analyze(clean, nil, cfg)

	colliding := []placement.Placement{pl("a", 0, 0, 6, 6), pl("b", 1, 0, 6, 6)}
	_, hitScore := Analyze(colliding, nil, cfg)

	if hitScore.Overlap >= cleanScore.Overlap {
		t.Errorf("overlap sub-score did not drop: %.0f vs %.0f", hitScore.Overlap, cleanScore.Overlap)
	}
	if math.Abs(cleanScore.Overlap-100) > 1e-9 {
		t.Errorf("clean overlap sub-score = %.0f, want 100", cleanScore.Overlap)
	}
}

func TestSummaryNamesOverlappingPrompts(t *testing.T) {
	cfg := config.Default()
	scene := []placement.Placement{pl("oak tree", 0, 0, 6, 6), pl("market stall", 1, 0, 6, 6)}
	report, score := Analyze(scene, nil, cfg)
	text := Summary(report, score)
	if !strings.Contains(text, "oak tree") || !strings.Contains(text, "market stall") {
		t.Errorf("summary missing prompts:\n%s", text)
	}
	if !strings.Contains(text, "Composition score") {
		t.Errorf("summary missing score line:\n%s", text)
	}
}
