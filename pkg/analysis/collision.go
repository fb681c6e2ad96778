// Package analysis computes collision and composition metrics over a
// resolved set of placements. Everything here is pure: the same inputs
// always produce the same report, so the orchestrator can recompute
// freely every iteration.
package analysis

import (
	"github.com/bug39/scenesmith/pkg/config"
	"github.com/bug39/scenesmith/pkg/geo"
	"github.com/bug39/scenesmith/pkg/placement"
)

const densityGridSize = 10

// OverlapPair records two placements whose buffered footprints intersect.
// Meters is the minimum-penetration depth: the smaller of the X and Z
// overlap distances, which is how far the pair would have to move apart.
type OverlapPair struct {
	A       string  `json:"a"`
	B       string  `json:"b"`
	APrompt string  `json:"a_prompt"`
	BPrompt string  `json:"b_prompt"`
	Meters  float64 `json:"meters"`
}

// CollisionReport summarizes the physical state of a placed scene.
type CollisionReport struct {
	Overlaps    []OverlapPair `json:"overlaps"`
	Clustering  float64       `json:"clustering"`   // 0 = spread out, 1 = piled up
	CoveragePct float64       `json:"coverage_pct"` // footprint area over zone area
	DensityGrid *geo.Grid     `json:"-"`
	DensityRows []int         `json:"density_grid"` // row-major counts
	Flagged     []string      `json:"flagged"`      // instance ids involved in overlaps
}

// Analyze computes the collision report and composition score for a
// placed scene. The measure function, when non-nil, refreshes footprints
// for placements that carry no size of their own.
func Analyze(placements []placement.Placement, measure placement.MeasureFunc, cfg config.Engine) (CollisionReport, CompositionScore) {
	sized := make([]placement.Placement, len(placements))
	copy(sized, placements)
	for i := range sized {
		if sized[i].Size.Width <= 0 && measure != nil {
			if m, ok := measure(sized[i].Prompt); ok {
				sized[i].Size.Width = m.Width
				sized[i].Size.Depth = m.Depth
				sized[i].Size.Height = m.Height
			}
		}
	}

	report := collisions(sized, cfg)
	score := scoreComposition(sized, report, cfg)
	return report, score
}

func collisions(placements []placement.Placement, cfg config.Engine) CollisionReport {
	report := CollisionReport{
		Overlaps:   findOverlaps(placements, cfg.OverlapBuffer),
		Clustering: clustering(placements, cfg.ZoneSize),
	}

	grid := geo.NewGrid(densityGridSize, cfg.ZoneSize)
	area := 0.0
	for _, p := range placements {
		grid.Add(p.Position)
		area += p.Footprint(1).Area()
	}
	report.DensityGrid = grid
	report.DensityRows = grid.Counts()

	zoneArea := cfg.ZoneSize * cfg.ZoneSize
	if zoneArea > 0 {
		report.CoveragePct = min(area/zoneArea*100, 100)
	}

	seen := make(map[string]bool)
	for _, o := range report.Overlaps {
		for _, id := range []string{o.A, o.B} {
			if !seen[id] {
				seen[id] = true
				report.Flagged = append(report.Flagged, id)
			}
		}
	}
	return report
}

// findOverlaps checks every placement pair with footprints shrunk by the
// buffer factor, so near-touching neighbors are tolerated. Symmetric:
// each pair appears once, in index order.
func findOverlaps(placements []placement.Placement, buffer float64) []OverlapPair {
	var out []OverlapPair
	for i := range placements {
		fa := placements[i].Footprint(buffer)
		for j := i + 1; j < len(placements); j++ {
			fb := placements[j].Footprint(buffer)
			depth := fa.Penetration(fb)
			if depth <= 0 {
				continue
			}
			out = append(out, OverlapPair{
				A:       placements[i].InstanceID,
				B:       placements[j].InstanceID,
				APrompt: placements[i].Prompt,
				BPrompt: placements[j].Prompt,
				Meters:  depth,
			})
		}
	}
	return out
}

// clustering scores how bunched the scene is: the mean distance from the
// placement centroid relative to a quarter of the zone width, inverted.
// 0 means well spread, 1 means everything sits on one spot.
func clustering(placements []placement.Placement, zoneSize float64) float64 {
	if len(placements) < 2 {
		return 0
	}
	var centroid geo.Point2D
	for _, p := range placements {
		centroid = centroid.Add(p.Position)
	}
	centroid = centroid.Scale(1 / float64(len(placements)))

	mean := 0.0
	for _, p := range placements {
		mean += p.Position.Distance(centroid)
	}
	mean /= float64(len(placements))

	ref := zoneSize / 4
	if ref <= 0 {
		return 0
	}
	score := 1 - mean/ref
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
