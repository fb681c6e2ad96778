package analysis

import (
	"math"

	"github.com/bug39/scenesmith/pkg/config"
	"github.com/bug39/scenesmith/pkg/geo"
	"github.com/bug39/scenesmith/pkg/placement"
	"github.com/bug39/scenesmith/pkg/plan"
)

// Sub-score weights. Overlap dominates: interpenetrating meshes are the
// most visually fatal defect a generated scene can have.
const (
	weightOverlap = 0.35
	weightFocal   = 0.20
	weightDepth   = 0.15
	weightDensity = 0.15
	weightBalance = 0.15

	overlapPenaltyPerPair = 15.0
	occlusionPenalty      = 25.0
)

// CompositionScore holds the five photographic sub-scores (0-100 each)
// and their weighted overall result.
type CompositionScore struct {
	Depth   float64 `json:"depth"`
	Focal   float64 `json:"focal"`
	Density float64 `json:"density"`
	Balance float64 `json:"balance"`
	Overlap float64 `json:"overlap"`
	Overall float64 `json:"overall"`
	Passed  bool    `json:"passed"`
}

// cameraPos is the evaluation vantage: centered on the south edge,
// looking toward the zone center. Depth banding and focal occlusion are
// judged from here, matching the overview capture.
func cameraPos(cfg config.Engine) geo.Point2D {
	return geo.Pt(0, cfg.ZoneSize*0.6)
}

func scoreComposition(placements []placement.Placement, report CollisionReport, cfg config.Engine) CompositionScore {
	if len(placements) == 0 {
		return CompositionScore{}
	}

	camera := cameraPos(cfg)
	score := CompositionScore{
		Depth:   depthScore(placements, camera, cfg.ZoneSize),
		Focal:   focalScore(placements, camera),
		Density: densityScore(placements, cfg.ZoneSize),
		Balance: balanceScore(placements),
		Overlap: math.Max(0, 100-overlapPenaltyPerPair*float64(len(report.Overlaps))),
	}
	score.Overall = weightOverlap*score.Overlap +
		weightFocal*score.Focal +
		weightDepth*score.Depth +
		weightDensity*score.Density +
		weightBalance*score.Balance
	score.Passed = score.Overall >= cfg.ScoreThreshold
	return score
}

// depthScore rewards occupancy across foreground, midground, and
// background bands. Bands are cut by distance from the camera, not from
// the scene center: a placement near the camera reads as foreground even
// when it sits far from the origin.
func depthScore(placements []placement.Placement, camera geo.Point2D, zoneSize float64) float64 {
	near := zoneSize * 0.5
	far := zoneSize * 0.85
	var fg, mid, bg int
	for _, p := range placements {
		switch d := p.Position.Distance(camera); {
		case d < near:
			fg++
		case d > far:
			bg++
		default:
			mid++
		}
	}
	occupied := 0
	for _, n := range []int{fg, mid, bg} {
		if n > 0 {
			occupied++
		}
	}
	return float64(occupied) / 3 * 100
}

// focalScore approximates whether the scene's focal subject is visible
// from the camera. Any placement within its own blocking radius of the
// camera-to-focal segment, and nearer to the camera than the focal,
// counts as an occluder.
func focalScore(placements []placement.Placement, camera geo.Point2D) float64 {
	fi := focalIndex(placements)
	if fi < 0 {
		return 100
	}
	focal := placements[fi]
	focalDist := camera.Distance(focal.Position)

	occluders := 0
	for i, p := range placements {
		if i == fi {
			continue
		}
		if camera.Distance(p.Position) >= focalDist {
			continue
		}
		radius := math.Max(p.Size.Width, p.Size.Depth) * p.Scale / 2
		if radius <= 0 {
			radius = 1
		}
		if geo.PointSegmentDistance(p.Position, camera, focal.Position) < radius {
			occluders++
		}
	}
	return math.Max(0, 100-occlusionPenalty*float64(occluders))
}

// focalIndex picks the composition subject: the focal-layer placement if
// one exists, else the largest structure, else nothing.
func focalIndex(placements []placement.Placement) int {
	best, bestArea := -1, 0.0
	for i, p := range placements {
		if p.Layer == plan.LayerFocal {
			return i
		}
		if p.Category != "structure" && p.Category != "building" {
			continue
		}
		if a := p.Footprint(1).Area(); best < 0 || a > bestArea {
			best, bestArea = i, a
		}
	}
	return best
}

// densityScore measures evenness over a 3x3 grid, with a bonus when the
// center cell is occupied.
func densityScore(placements []placement.Placement, zoneSize float64) float64 {
	grid := geo.NewGrid(3, zoneSize)
	for _, p := range placements {
		grid.Add(p.Position)
	}
	total := float64(grid.Total())
	if total == 0 {
		return 0
	}
	mean := total / 9
	dev := 0.0
	for _, c := range grid.Counts() {
		dev += math.Abs(float64(c) - mean)
	}
	evenness := 1 - dev/(2*total) // 1 when uniform, ~0 when one cell holds all
	score := evenness * 85
	if grid.Count(1, 1) > 0 {
		score += 15
	}
	return math.Min(score, 100)
}

// balanceScore measures quadrant-count variance, with a bonus when no
// quadrant is empty.
func balanceScore(placements []placement.Placement) float64 {
	var q [4]float64
	for _, p := range placements {
		idx := 0
		if p.Position.X >= 0 {
			idx |= 1
		}
		if p.Position.Z >= 0 {
			idx |= 2
		}
		q[idx]++
	}
	total := float64(len(placements))
	mean := total / 4
	variance := 0.0
	for _, c := range q {
		variance += (c - mean) * (c - mean)
	}
	// 0.75*total^2 is the worst case: everything in one quadrant.
	norm := variance / (0.75 * total * total)
	score := (1 - norm) * 80
	empty := false
	for _, c := range q {
		if c == 0 {
			empty = true
		}
	}
	if !empty {
		score += 20
	}
	return math.Min(math.Max(score, 0), 100)
}
