package placement

import (
	"fmt"
	"math"

	"github.com/bug39/scenesmith/pkg/config"
	"github.com/bug39/scenesmith/pkg/geo"
	"github.com/bug39/scenesmith/pkg/plan"
	"github.com/bug39/scenesmith/pkg/validation"
)

// ValidateV2Structures soft-validates explicit-coordinate structures:
// out-of-bounds positions are clamped into the usable zone, overlapping
// pairs are nudged apart, and larger clusters are flagged but left alone
// since over-repair would destroy intentional groupings. The pass is
// idempotent: applying it to its own output produces zero new warnings.
func ValidateV2Structures(structs []plan.Structure, cfg config.Engine) ([]plan.Structure, *validation.Report) {
	report := validation.NewReport()
	out := make([]plan.Structure, len(structs))
	copy(out, structs)

	clampIntoBounds(out, cfg, report)
	nudgeOverlaps(out, cfg, report)
	flagClusters(out, cfg, report)

	return out, report
}

func clampIntoBounds(structs []plan.Structure, cfg config.Engine, report *validation.Report) {
	lo, hi := cfg.BoundsMin(), cfg.BoundsMax()
	for i := range structs {
		pos := structs[i].Placement.Position
		if pos == nil {
			continue
		}
		clamped := pos.Clamp(lo, hi)
		if clamped != *pos {
			report.AddWarning(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("Clamped %q from (%.1f, %.1f) into bounds", structs[i].ID, pos.X, pos.Z),
				Entity:      structs[i].ID,
				ActualValue: fmt.Sprintf("(%.1f, %.1f)", pos.X, pos.Z),
				Expected:    fmt.Sprintf("within [%.0f, %.0f]", lo, hi),
			})
			structs[i].Placement.Position = &clamped
		}
	}
}

// nudgeOverlaps pushes apart pairs of structures closer than the overlap
// threshold, moving each along the vector between them and keeping both
// inside the zone. Exactly coincident pairs fall back to an
// evenly-distributed angle so repeated collisions don't all resolve in
// the same direction.
func nudgeOverlaps(structs []plan.Structure, cfg config.Engine, report *validation.Report) {
	lo, hi := cfg.BoundsMin(), cfg.BoundsMax()
	fallbackIdx := 0
	for i := range structs {
		for j := i + 1; j < len(structs); j++ {
			pi, pj := structs[i].Placement.Position, structs[j].Placement.Position
			if pi == nil || pj == nil {
				continue
			}
			dist := pi.Distance(*pj)
			if dist >= cfg.StructureOverlapThreshold {
				continue
			}

			var axis geo.Point2D
			if dist < 1e-9 {
				angle := 2 * math.Pi * float64(fallbackIdx) / 8
				axis = geo.Pt(math.Cos(angle), math.Sin(angle))
				fallbackIdx++
			} else {
				axis = pj.Sub(*pi).Normalize()
			}

			ni := pi.Sub(axis.Scale(cfg.NudgeDistance)).Clamp(lo, hi)
			nj := pj.Add(axis.Scale(cfg.NudgeDistance)).Clamp(lo, hi)
			if ni.Distance(nj) < cfg.StructureOverlapThreshold {
				// A pair pinned at the zone edge can't separate outward.
				// Push the partner inward past the threshold instead.
				dir := geo.Pt((lo+hi)/2, (lo+hi)/2).Sub(ni).Normalize()
				if dir.Length() < 1e-9 {
					dir = axis
				}
				nj = ni.Add(dir.Scale(cfg.StructureOverlapThreshold + 1)).Clamp(lo, hi)
			}
			structs[i].Placement.Position = &ni
			structs[j].Placement.Position = &nj

			report.AddWarning(validation.Result{
				Level:   validation.LevelPlacement,
				Message: fmt.Sprintf("Nudged %q and %q apart (were %.1fm apart, threshold %.0fm)", structs[i].ID, structs[j].ID, dist, cfg.StructureOverlapThreshold),
				Entity:  structs[i].ID,
			})
		}
	}
}

// flagClusters warns about groups of ClusterFlagCount or more structures
// within the cluster radius. Flag only, no repair.
func flagClusters(structs []plan.Structure, cfg config.Engine, report *validation.Report) {
	for i := range structs {
		pi := structs[i].Placement.Position
		if pi == nil {
			continue
		}
		neighbors := 0
		for j := range structs {
			if i == j {
				continue
			}
			pj := structs[j].Placement.Position
			if pj != nil && pi.Distance(*pj) <= cfg.ClusterRadius {
				neighbors++
			}
		}
		if neighbors+1 >= cfg.ClusterFlagCount {
			report.AddInfo(validation.Result{
				Level:   validation.LevelPlacement,
				Message: fmt.Sprintf("structure %q sits in a cluster of %d within %.0fm; left as-is", structs[i].ID, neighbors+1, cfg.ClusterRadius),
				Entity:  structs[i].ID,
			})
		}
	}
}
