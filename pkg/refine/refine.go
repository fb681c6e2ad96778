// Package refine applies evaluation feedback to a placed scene. Every
// operation is best effort: an unmatched target is counted and logged,
// never fatal, so one hallucinated target name cannot sink an otherwise
// good refinement batch.
package refine

import (
	"fmt"
	"math"
	"strings"

	"github.com/bug39/scenesmith/pkg/config"
	"github.com/bug39/scenesmith/pkg/evaluate"
	"github.com/bug39/scenesmith/pkg/geo"
	"github.com/bug39/scenesmith/pkg/placement"
	"github.com/bug39/scenesmith/pkg/plan"
	"github.com/bug39/scenesmith/pkg/validation"
)

// Operation kinds, applied in this fixed order. Rescales and removals
// must settle before moves and adds so new geometry is computed against
// the final state of the old geometry.
const (
	KindRescale = "rescale"
	KindRemove  = "remove"
	KindMove    = "move"
	KindAdd     = "add"
)

// Op is one normalized refinement operation.
type Op struct {
	Kind       string
	Target     string
	Location   string
	Multiplier float64 // rescale: relative to current scale (preferred)
	TargetSize float64 // rescale: absolute real-world size (legacy)
	Position   *geo.Point2D
	Prompt     string
	Category   string
	Count      int
}

// Summary reports the outcome of one refinement batch.
type Summary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// FromActions normalizes evaluation actions into operations. Action
// types have drifted across evaluator prompt revisions; the aliases here
// cover every form seen in logs.
func FromActions(actions []evaluate.Action) []Op {
	ops := make([]Op, 0, len(actions))
	for _, a := range actions {
		op := Op{
			Target:     a.Target,
			Location:   a.Location,
			Multiplier: a.Multiplier,
			TargetSize: a.TargetSize,
			Prompt:     a.Prompt,
			Category:   a.Category,
			Count:      a.Count,
		}
		if len(a.Position) >= 2 {
			p := geo.Pt(a.Position[0], a.Position[1])
			op.Position = &p
		}
		switch strings.ToLower(a.Type) {
		case "rescale", "resize", "scale":
			op.Kind = KindRescale
		case "remove", "delete":
			op.Kind = KindRemove
		case "move", "reposition", "relocate":
			op.Kind = KindMove
		case "add", "place":
			op.Kind = KindAdd
		default:
			op.Kind = strings.ToLower(a.Type)
		}
		if op.Target == "" {
			op.Target = a.Description
		}
		if op.Prompt == "" && op.Kind == KindAdd {
			op.Prompt = a.Description
		}
		ops = append(ops, op)
	}
	return ops
}

// Apply runs a refinement batch against the current placements in the
// fixed order rescale, remove, move, add, and returns the mutated set.
// The measure function (may be nil) sizes newly added assets.
func Apply(ops []Op, placements []placement.Placement, cfg config.Engine, measure placement.MeasureFunc) ([]placement.Placement, Summary, *validation.Report) {
	a := &applier{
		placements: placements,
		cfg:        cfg,
		measure:    measure,
		report:     validation.NewReport(),
	}

	for _, kind := range []string{KindRescale, KindRemove, KindMove, KindAdd} {
		for _, op := range ops {
			if op.Kind != kind {
				continue
			}
			a.summary.Attempted++
			if a.apply(op) {
				a.summary.Succeeded++
			} else {
				a.summary.Failed++
			}
		}
	}
	for _, op := range ops {
		switch op.Kind {
		case KindRescale, KindRemove, KindMove, KindAdd:
		default:
			a.summary.Attempted++
			a.summary.Failed++
			a.warn(fmt.Sprintf("unsupported refinement operation %q", op.Kind))
		}
	}

	a.report.AddInfo(validation.Result{
		Level: validation.LevelPlacement,
		Message: fmt.Sprintf("refinement batch: %d attempted, %d succeeded, %d failed",
			a.summary.Attempted, a.summary.Succeeded, a.summary.Failed),
	})
	return a.placements, a.summary, a.report
}

type applier struct {
	placements []placement.Placement
	cfg        config.Engine
	measure    placement.MeasureFunc
	report     *validation.Report
	summary    Summary
}

func (a *applier) apply(op Op) bool {
	switch op.Kind {
	case KindRescale:
		return a.rescale(op)
	case KindRemove:
		return a.remove(op)
	case KindMove:
		return a.move(op)
	case KindAdd:
		return a.add(op)
	}
	return false
}

func (a *applier) rescale(op Op) bool {
	i := a.match(op.Target, op.Location)
	if i < 0 {
		a.targetMissing(op)
		return false
	}
	p := &a.placements[i]
	switch {
	case op.Multiplier > 0:
		p.Scale = clampScale(p.Scale*op.Multiplier, a.cfg)
	case op.TargetSize > 0:
		largest := math.Max(p.Size.Width, math.Max(p.Size.Depth, p.Size.Height))
		if largest <= 0 {
			largest = placement.DefaultMeasurement().Width
		}
		p.Scale = clampScale(op.TargetSize/largest, a.cfg)
	default:
		a.warn(fmt.Sprintf("rescale of %q carries neither multiplier nor target size", op.Target))
		return false
	}
	return true
}

func (a *applier) remove(op Op) bool {
	i := a.match(op.Target, op.Location)
	if i < 0 {
		a.targetMissing(op)
		return false
	}
	a.placements = append(a.placements[:i], a.placements[i+1:]...)
	return true
}

func (a *applier) move(op Op) bool {
	i := a.match(op.Target, op.Location)
	if i < 0 {
		a.targetMissing(op)
		return false
	}
	var dest geo.Point2D
	switch {
	case op.Position != nil:
		dest = *op.Position
	case op.Location != "":
		dest = placement.KeywordPosition(a.cfg, op.Location)
	default:
		a.warn(fmt.Sprintf("move of %q carries no destination", op.Target))
		return false
	}
	a.placements[i].Position = dest.Clamp(a.cfg.BoundsMin(), a.cfg.BoundsMax())
	return true
}

// add resolves the new entity through the regular placement path so it
// lands collision-free against everything already in the scene.
func (a *applier) add(op Op) bool {
	if op.Prompt == "" {
		a.warn("add operation carries no prompt")
		return false
	}
	asset, est := plan.PrepareAsset(plan.Asset{Prompt: op.Prompt, Category: op.Category})

	p := &plan.Plan{Type: plan.TypeRelationship}
	if op.Position != nil || op.Location != "" {
		s := plan.Structure{
			ID:      fmt.Sprintf("refine_add_%d", a.summary.Attempted),
			Asset:   asset,
			EstSize: est,
		}
		if op.Position != nil {
			s.Placement.Position = op.Position
		} else {
			s.Placement.Keyword = op.Location
		}
		p.Structures = []plan.Structure{s}
	} else {
		p.Atmosphere = []plan.AtmosphereItem{{
			ID:    fmt.Sprintf("refine_add_%d", a.summary.Attempted),
			Asset: asset,
			Count: max(op.Count, 1),
			Rel:   plan.Relationship{Relation: "scattered"},
		}}
	}

	r := placement.New(a.cfg, placement.WithExisting(a.placements), placement.WithMeasure(a.measure))
	added, report, err := r.Resolve(p)
	a.report.Merge(report)
	if err != nil || len(added) == 0 {
		a.warn(fmt.Sprintf("could not place added %q", op.Prompt))
		return false
	}
	a.placements = append(a.placements, added...)
	return true
}

// match finds the operation's target placement: exact instance id first,
// then structure id, then fuzzy prompt match. When several placements
// match fuzzily, the one nearest the stated location wins.
func (a *applier) match(target, location string) int {
	if target == "" {
		return -1
	}
	for i := range a.placements {
		if a.placements[i].InstanceID == target {
			return i
		}
	}
	for i := range a.placements {
		if a.placements[i].StructureID == target {
			return i
		}
	}

	needle := strings.ToLower(target)
	var candidates []int
	for i := range a.placements {
		prompt := strings.ToLower(a.placements[i].Prompt)
		if prompt == "" {
			continue
		}
		if strings.Contains(prompt, needle) || strings.Contains(needle, prompt) {
			candidates = append(candidates, i)
		}
	}
	switch len(candidates) {
	case 0:
		return -1
	case 1:
		return candidates[0]
	}
	ref := placement.KeywordPosition(a.cfg, location)
	best, bestDist := candidates[0], math.MaxFloat64
	for _, i := range candidates {
		if d := a.placements[i].Position.Distance(ref); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func (a *applier) targetMissing(op Op) {
	a.warn(fmt.Sprintf("refinement target %q not found", op.Target))
}

func (a *applier) warn(msg string) {
	a.report.AddWarning(validation.Result{
		Level:   validation.LevelPlacement,
		Message: msg,
	})
}

func clampScale(s float64, cfg config.Engine) float64 {
	if s < cfg.ScaleMin {
		return cfg.ScaleMin
	}
	if s > cfg.ScaleMax {
		return cfg.ScaleMax
	}
	return s
}
