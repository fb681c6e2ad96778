package placement

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/bug39/scenesmith/pkg/config"
	"github.com/bug39/scenesmith/pkg/geo"
	"github.com/bug39/scenesmith/pkg/plan"
	"github.com/bug39/scenesmith/pkg/validation"
)

// MeasureFunc looks up the measurement for an asset prompt. ok is false
// when the asset hasn't been generated or measured.
type MeasureFunc func(prompt string) (Measurement, bool)

// Resolver turns a normalized plan into concrete placements. Candidates
// are validated against all existing placements (pre-existing world
// content and this pass's own accepted placements) before acceptance.
type Resolver struct {
	cfg      config.Engine
	measure  MeasureFunc
	existing []Placement
	accepted []Placement
	report   *validation.Report
	rng      *rand.Rand
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMeasure supplies the measurement lookup.
func WithMeasure(fn MeasureFunc) Option {
	return func(r *Resolver) { r.measure = fn }
}

// WithExisting supplies pre-existing world placements that new candidates
// must not overlap.
func WithExisting(ps []Placement) Option {
	return func(r *Resolver) { r.existing = ps }
}

// WithSeed fixes the jitter seed. The default seed is derived from the
// plan theme so a given plan resolves reproducibly.
func WithSeed(seed int64) Option {
	return func(r *Resolver) { r.rng = rand.New(rand.NewSource(seed)) }
}

// New creates a resolver for one placement pass.
func New(cfg config.Engine, opts ...Option) *Resolver {
	r := &Resolver{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve places every entity in the plan. Structures are resolved
// strictly first; decorations, arrangements, atmosphere, and NPCs follow,
// each referencing structures by id. Explicit-coordinate plans run
// through the soft validation/repair pass before anything is placed.
func (r *Resolver) Resolve(p *plan.Plan) ([]Placement, *validation.Report, error) {
	r.accepted = nil
	r.report = validation.NewReport()
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(int64(hashCode(p.Theme))))
	}

	if p.Explicit {
		repaired, repairReport := ValidateV2Structures(p.Structures, r.cfg)
		p.Structures = repaired
		r.report.Merge(repairReport)
	}

	var err error
	switch p.Type {
	case plan.TypeLayered:
		err = r.resolveLayered(p)
	default:
		err = r.resolveRelationship(p)
	}
	if err != nil {
		return nil, r.report, err
	}

	if r.cfg.RebalanceGridSize > 1 {
		r.rebalance()
	}

	r.report.AddInfo(validation.Result{
		Level:   validation.LevelPlacement,
		Message: fmt.Sprintf("resolved %d placements", len(r.accepted)),
	})
	return r.accepted, r.report, nil
}

// sizeFor returns the collision extent for an asset: measured when
// available, the plan estimate otherwise, the default box as a last resort.
func (r *Resolver) sizeFor(a plan.Asset, est plan.Bounds3) plan.Bounds3 {
	if r.measure != nil {
		if m, ok := r.measure(a.Prompt); ok {
			return plan.Bounds3{Width: m.Width, Height: m.Height, Depth: m.Depth}
		}
	}
	if est.Width > 0 && est.Depth > 0 {
		return est
	}
	d := DefaultMeasurement()
	return plan.Bounds3{Width: d.Width, Height: d.Height, Depth: d.Depth}
}

// scaleFor derives the uniform scale that brings a measured asset to its
// real-world size, clamped to the configured range.
func (r *Resolver) scaleFor(a plan.Asset) float64 {
	scale := a.Scale
	if scale <= 0 {
		scale = 1
	}
	if r.measure != nil && a.RealSize > 0 {
		if m, ok := r.measure(a.Prompt); ok {
			largest := math.Max(m.Width, math.Max(m.Depth, m.Height))
			if largest > 0 {
				scale = a.RealSize / largest
			}
		}
	}
	return clamp(scale, r.cfg.ScaleMin, r.cfg.ScaleMax)
}

// clampPos keeps a position inside the usable zone.
func (r *Resolver) clampPos(p geo.Point2D) geo.Point2D {
	return p.Clamp(r.cfg.BoundsMin(), r.cfg.BoundsMax())
}

// collides checks a candidate against every existing and accepted
// placement. A requested minDistance acts as a floor on top of the
// footprint spacing, never an override. NPCs check against static
// placements when placed, but statics never check against NPCs.
func (r *Resolver) collides(cand Placement, minDistance float64) bool {
	return r.collidesExcept(cand, minDistance, -1)
}

// collidesExcept is collides with one accepted index ignored, used when
// relocating a placement past its own old footprint.
func (r *Resolver) collidesExcept(cand Placement, minDistance float64, skip int) bool {
	fp := cand.Footprint(r.cfg.OverlapBuffer)
	check := func(other Placement) bool {
		if other.NPC {
			return false // wanderers are not obstacles
		}
		if cand.NPC && other.NPC {
			return false
		}
		if fp.Intersects(other.Footprint(r.cfg.OverlapBuffer)) {
			return true
		}
		return minDistance > 0 && cand.Position.Distance(other.Position) < minDistance
	}
	for _, other := range r.existing {
		if check(other) {
			return true
		}
	}
	for i, other := range r.accepted {
		if i == skip {
			continue
		}
		if check(other) {
			return true
		}
	}
	return false
}

// tryPlace attempts to accept a candidate, jittering around its base
// position a bounded number of times when it collides. Returns false when
// no valid spot was found.
func (r *Resolver) tryPlace(cand *Placement, minDistance float64, attempts int) bool {
	base := cand.Position
	for i := 0; i < attempts; i++ {
		if i > 0 {
			radius := float64(i) * 3
			angle := r.rng.Float64() * 2 * math.Pi
			cand.Position = base.Add(geo.Pt(math.Cos(angle), math.Sin(angle)).Scale(radius))
		}
		cand.Position = r.clampPos(cand.Position)
		if !r.collides(*cand, minDistance) {
			r.accepted = append(r.accepted, *cand)
			return true
		}
	}
	return false
}

// accept adds a placement without collision checking (used when an anchor
// must land even if crowded; the analyzer flags any resulting overlap).
func (r *Resolver) accept(cand Placement) {
	cand.Position = r.clampPos(cand.Position)
	r.accepted = append(r.accepted, cand)
}

func (r *Resolver) skipWarn(kind, id, reason string) {
	r.report.AddWarning(validation.Result{
		Level:   validation.LevelPlacement,
		Message: fmt.Sprintf("%s %q skipped: %s", kind, id, reason),
		Entity:  id,
	})
}

// compassVector maps a direction keyword to a unit vector. North is -Z.
func compassVector(dir string) (geo.Point2D, bool) {
	d := math.Sqrt2 / 2
	switch dir {
	case "north":
		return geo.Pt(0, -1), true
	case "south":
		return geo.Pt(0, 1), true
	case "east":
		return geo.Pt(1, 0), true
	case "west":
		return geo.Pt(-1, 0), true
	case "northeast":
		return geo.Pt(d, -d), true
	case "northwest":
		return geo.Pt(-d, -d), true
	case "southeast":
		return geo.Pt(d, d), true
	case "southwest":
		return geo.Pt(-d, d), true
	}
	return geo.Point2D{}, false
}

// keywordPosition resolves a position keyword to a concrete point.
func (r *Resolver) keywordPosition(kw string) geo.Point2D {
	return KeywordPosition(r.cfg, kw)
}

// KeywordPosition resolves a position keyword ("center", compass
// directions) to a concrete zone point. Unknown keywords land at center.
func KeywordPosition(cfg config.Engine, kw string) geo.Point2D {
	if kw == "" || kw == "center" || kw == "middle" {
		return geo.Origin
	}
	if v, ok := compassVector(kw); ok {
		return v.Scale(cfg.ZoneSize * 0.3)
	}
	return geo.Origin
}

// sideVector resolves a side keyword relative to a facing yaw. Compass
// keywords are absolute; front/behind/left/right rotate with the facing.
func sideVector(side string, facing float64) geo.Point2D {
	if v, ok := compassVector(side); ok {
		return v
	}
	fwd := geo.Pt(math.Cos(facing), math.Sin(facing))
	switch side {
	case "behind", "back":
		return fwd.Scale(-1)
	case "left":
		return fwd.Rotate(-math.Pi / 2)
	case "right":
		return fwd.Rotate(math.Pi / 2)
	default: // "front" and unknown sides face forward
		return fwd
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
