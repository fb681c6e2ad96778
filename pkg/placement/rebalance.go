package placement

import (
	"fmt"

	"github.com/bug39/scenesmith/pkg/geo"
	"github.com/bug39/scenesmith/pkg/plan"
	"github.com/bug39/scenesmith/pkg/validation"
)

// rebalance evens out lopsided distributions that individual relative-
// placement rules can produce: a coarse grid identifies over-full and
// under-full cells and a bounded number of movable placements migrate
// from the former to the latter. Moves never violate the collision
// constraint; a move that cannot find a clear spot is abandoned.
func (r *Resolver) rebalance() {
	n := r.cfg.RebalanceGridSize
	grid := geo.NewGrid(n, r.cfg.ZoneSize)
	for _, p := range r.accepted {
		grid.Add(p.Position)
	}

	total := grid.Total()
	if total == 0 {
		return
	}
	target := float64(total) / float64(n*n)

	type cell struct{ col, row int }
	var overfull, underfull []cell
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			c := float64(grid.Count(col, row))
			if c > target+1 {
				overfull = append(overfull, cell{col, row})
			} else if c < target {
				underfull = append(underfull, cell{col, row})
			}
		}
	}
	if len(overfull) == 0 || len(underfull) == 0 {
		return
	}

	moves := 0
	ui := 0
	for _, oc := range overfull {
		if moves >= r.cfg.RebalanceMaxMoves || ui >= len(underfull) {
			break
		}
		for i := range r.accepted {
			if moves >= r.cfg.RebalanceMaxMoves || ui >= len(underfull) {
				break
			}
			p := &r.accepted[i]
			if !movable(*p) {
				continue
			}
			col, row := grid.Cell(p.Position)
			if col != oc.col || row != oc.row {
				continue
			}

			dest := grid.CellCenter(underfull[ui].col, underfull[ui].row)
			if r.relocate(i, dest) {
				moves++
				ui++
			}
		}
	}
	if moves > 0 {
		r.report.AddInfo(validation.Result{
			Level:   validation.LevelPlacement,
			Message: fmt.Sprintf("rebalanced %d placements into under-full cells", moves),
		})
	}
}

// movable excludes anchors, the focal, and frame elements from
// rebalancing; moving those would defeat the composition the plan asked
// for (frame elements must also keep their distance-from-focal floor).
func movable(p Placement) bool {
	if p.Category == "structure" || p.Category == "building" || p.NPC {
		return false
	}
	switch p.Layer {
	case plan.LayerFocal, plan.LayerAnchors, plan.LayerFrame:
		return false
	}
	return true
}

// relocate tries jittered spots around dest for the placement at index i.
func (r *Resolver) relocate(i int, dest geo.Point2D) bool {
	cand := r.accepted[i]
	for attempt := 0; attempt < secondaryAttempts; attempt++ {
		jitter := geo.Pt(r.rng.Float64()*2-1, r.rng.Float64()*2-1).Scale(float64(attempt) * 4)
		cand.Position = r.clampPos(dest.Add(jitter))
		if !r.collidesExcept(cand, 0, i) {
			r.accepted[i] = cand
			return true
		}
	}
	return false
}
