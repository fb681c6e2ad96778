package placement

import (
	"math"

	"github.com/bug39/scenesmith/pkg/geo"
	"github.com/bug39/scenesmith/pkg/plan"
)

// resolveLayered places a layered-composition plan: exactly one focal,
// anchors ringed around it, frame elements near the zone edge, and fill
// scattered with a density gradient.
func (r *Resolver) resolveLayered(p *plan.Plan) error {
	var focal Placement
	haveFocal := false
	anchorIdx := 0
	anchorCount := 0
	for _, s := range p.Structures {
		if s.Layer == plan.LayerAnchors {
			anchorCount++
		}
	}

	for i := range p.Structures {
		s := &p.Structures[i]
		switch s.Layer {
		case plan.LayerFocal:
			if haveFocal {
				r.skipWarn("structure", s.ID, "second focal ignored")
				continue
			}
			pl, err := r.resolveFocal(s)
			if err != nil {
				return err
			}
			focal = pl
			haveFocal = true
		case plan.LayerAnchors:
			if !haveFocal {
				r.skipWarn("structure", s.ID, "anchor before focal")
				continue
			}
			r.resolveAnchor(s, focal, anchorIdx, anchorCount)
			anchorIdx++
		default:
			pl, err := r.resolveStructure(s, map[string]Placement{})
			if err != nil {
				return err
			}
			if !haveFocal {
				focal = pl
				haveFocal = true
			}
		}
	}

	for i := range p.Atmosphere {
		item := &p.Atmosphere[i]
		switch item.Layer {
		case plan.LayerFrame:
			r.resolveFrame(item, focal)
		case plan.LayerFill:
			r.resolveFill(item)
		default:
			r.resolveAtmosphere(item, map[string]Placement{})
		}
	}
	return nil
}

// resolveFocal places the single primary composition anchor: at its
// requested position, or at the rule-of-thirds offset from center.
func (r *Resolver) resolveFocal(s *plan.Structure) (Placement, error) {
	pos := geo.Pt(-r.cfg.ZoneSize/6, -r.cfg.ZoneSize/6) // rule-of-thirds point
	if s.Placement.Position != nil {
		pos = *s.Placement.Position
	} else if s.Placement.Keyword != "" {
		pos = r.keywordPosition(s.Placement.Keyword)
	}

	cand := Placement{
		InstanceID:  newInstanceID(s.Asset.Category),
		Prompt:      s.Asset.Prompt,
		Category:    s.Asset.Category,
		Position:    pos,
		Rotation:    pos.AngleTo(geo.Origin),
		Scale:       r.scaleFor(s.Asset),
		Layer:       plan.LayerFocal,
		StructureID: s.ID,
		Size:        r.sizeFor(s.Asset, s.EstSize),
	}
	if !r.tryPlace(&cand, s.MinDistance, structureAttempts) {
		r.accept(cand)
	}
	return r.accepted[len(r.accepted)-1], nil
}

// resolveAnchor rings a supporting structure around the focal at the
// layer radius, evenly spaced by index.
func (r *Resolver) resolveAnchor(s *plan.Structure, focal Placement, idx, total int) {
	radius := s.Placement.Distance
	if radius <= 0 {
		radius = 25
	}
	angle := 2 * math.Pi * float64(idx) / float64(max(total, 1))
	pos := focal.Position.Add(geo.Pt(math.Cos(angle), math.Sin(angle)).Scale(radius))

	cand := Placement{
		InstanceID:  newInstanceID(s.Asset.Category),
		Prompt:      s.Asset.Prompt,
		Category:    s.Asset.Category,
		Position:    pos,
		Rotation:    pos.AngleTo(focal.Position),
		Scale:       r.scaleFor(s.Asset),
		Layer:       plan.LayerAnchors,
		StructureID: s.ID,
		Size:        r.sizeFor(s.Asset, s.EstSize),
	}
	if !r.tryPlace(&cand, s.MinDistance, structureAttempts) {
		r.skipWarn("structure", s.ID, "anchor could not be placed")
	}
}

// resolveFrame places frame elements near the zone edge. Their distance
// from the focal never drops below the configured floor regardless of
// what the plan requested: frame elements must stay visually behind
// everything else.
func (r *Resolver) resolveFrame(item *plan.AtmosphereItem, focal Placement) {
	size := r.sizeFor(item.Asset, item.EstSize)
	scale := r.scaleFor(item.Asset)
	count := max(item.Count, 1)
	edgeRadius := r.cfg.ZoneSize / 2 * 0.85

	minFromFocal := math.Max(item.Rel.Distance, r.cfg.FrameMinDistance)
	placedCount := 0
	for i := 0; i < count; i++ {
		baseAngle := 2*math.Pi*float64(i)/float64(count) + r.rng.Float64()*0.4

		// Retry by rotating around the ring rather than jittering freely,
		// so the distance-from-focal floor holds on every attempt.
		for attempt := 0; attempt < secondaryAttempts; attempt++ {
			angle := baseAngle + float64(attempt)*0.25
			pos := geo.Pt(math.Cos(angle), math.Sin(angle)).Scale(edgeRadius)
			if pos.Distance(focal.Position) < minFromFocal {
				away := pos.Sub(focal.Position).Normalize()
				pos = focal.Position.Add(away.Scale(minFromFocal))
			}

			cand := Placement{
				InstanceID: newInstanceID(item.Asset.Category),
				Prompt:     item.Asset.Prompt,
				Category:   item.Asset.Category,
				Position:   pos,
				Rotation:   pos.AngleTo(focal.Position),
				Scale:      scale,
				Layer:      plan.LayerFrame,
				Size:       size,
			}
			if !r.collides(cand, item.Rel.MinDistance) {
				r.accepted = append(r.accepted, cand)
				placedCount++
				break
			}
		}
	}
	if placedCount == 0 {
		r.skipWarn("atmosphere", item.ID, "no frame elements placed")
	}
}

// resolveFill scatters fill elements across the whole zone with a density
// gradient: denser near the edges by default, or the reverse when
// configured, so the middle ground reads as intentional.
func (r *Resolver) resolveFill(item *plan.AtmosphereItem) {
	size := r.sizeFor(item.Asset, item.EstSize)
	scale := r.scaleFor(item.Asset)
	count := max(item.Count, 1)
	half := r.cfg.ZoneSize / 2 * 0.95

	placedCount := 0
	for i := 0; i < count; i++ {
		pos := r.gradientPoint(half)
		cand := Placement{
			InstanceID: newInstanceID(item.Asset.Category),
			Prompt:     item.Asset.Prompt,
			Category:   item.Asset.Category,
			Position:   pos,
			Rotation:   r.rng.Float64() * 2 * math.Pi,
			Scale:      scale,
			Layer:      plan.LayerFill,
			Size:       size,
		}
		if r.tryPlace(&cand, item.Rel.MinDistance, secondaryAttempts) {
			placedCount++
		}
	}
	if placedCount == 0 {
		r.skipWarn("atmosphere", item.ID, "no fill elements placed")
	}
}

// gradientPoint samples a zone point weighted by distance from center.
func (r *Resolver) gradientPoint(half float64) geo.Point2D {
	for attempt := 0; attempt < scatterAttempts; attempt++ {
		pos := geo.Pt(r.rng.Float64()*2-1, r.rng.Float64()*2-1).Scale(half)
		w := pos.Length() / (half * math.Sqrt2) // 0 at center, ~1 at corners
		if !r.cfg.FillDenserAtEdges {
			w = 1 - w
		}
		if r.rng.Float64() < w {
			return pos
		}
	}
	return geo.Pt(r.rng.Float64()*2-1, r.rng.Float64()*2-1).Scale(half)
}
