package placement

import (
	"math"

	"github.com/bug39/scenesmith/pkg/geo"
	"github.com/bug39/scenesmith/pkg/plan"
)

const (
	structureAttempts = 8
	secondaryAttempts = 6
	scatterAttempts   = 12
	attachGap         = 0.3 // meters between a parent wall and an attached prop
)

// resolveRelationship places a relationship-typed plan: structures first,
// then decorations, arrangements, atmosphere, and NPCs, in that order.
func (r *Resolver) resolveRelationship(p *plan.Plan) error {
	placed := make(map[string]Placement, len(p.Structures))

	for i := range p.Structures {
		s := &p.Structures[i]
		pl, err := r.resolveStructure(s, placed)
		if err != nil {
			return err
		}
		placed[s.ID] = pl
	}

	for i := range p.Decorations {
		r.resolveDecoration(&p.Decorations[i], placed)
	}
	for i := range p.Arrangements {
		r.resolveArrangement(&p.Arrangements[i], placed)
	}
	for i := range p.Atmosphere {
		r.resolveAtmosphere(&p.Atmosphere[i], placed)
	}
	for i := range p.NPCs {
		r.resolveNPC(&p.NPCs[i], placed)
	}
	return nil
}

// resolveStructure places one anchor. Anchors always land: when every
// jittered candidate collides the structure is accepted anyway with a
// warning, since skipping it would orphan all its dependents.
func (r *Resolver) resolveStructure(s *plan.Structure, placed map[string]Placement) (Placement, error) {
	var base geo.Point2D
	spec := s.Placement
	switch {
	case spec.Position != nil:
		base = *spec.Position
	case spec.Keyword != "":
		base = r.keywordPosition(spec.Keyword)
	case spec.RelativeTo != "":
		target, ok := placed[spec.RelativeTo]
		if !ok {
			return Placement{}, &UnresolvableTargetError{Entity: s.ID, Target: spec.RelativeTo}
		}
		dir := sideVector(spec.Side, target.Rotation)
		dist := spec.Distance
		if dist <= 0 {
			dist = halfAlong(target, dir) + s.EstSize.Width/2 + 4
		}
		base = target.Position.Add(dir.Scale(dist))
	default:
		base = geo.Origin
	}

	yaw := 0.0
	if v, ok := compassVector(s.Facing); ok {
		yaw = v.Angle()
	} else if base.Length() > 1 {
		yaw = base.AngleTo(geo.Origin) // default: face the zone center
	}

	cand := Placement{
		InstanceID:  newInstanceID(s.Asset.Category),
		Prompt:      s.Asset.Prompt,
		Category:    s.Asset.Category,
		Position:    base,
		Rotation:    yaw,
		Scale:       r.scaleFor(s.Asset),
		Layer:       s.Layer,
		StructureID: s.ID,
		Size:        r.sizeFor(s.Asset, s.EstSize),
	}

	minDist := s.MinDistance
	if !r.tryPlace(&cand, minDist, structureAttempts) {
		r.skipWarn("structure", s.ID, "no collision-free spot; placed anyway")
		r.accept(cand)
	}
	return r.accepted[len(r.accepted)-1], nil
}

func (r *Resolver) resolveDecoration(d *plan.Decoration, placed map[string]Placement) {
	target, ok := placed[d.Rel.TargetID]
	if !ok {
		r.skipWarn("decoration", d.ID, "unresolved target "+d.Rel.TargetID)
		return
	}

	size := r.sizeFor(d.Asset, d.EstSize)
	scale := r.scaleFor(d.Asset)
	childHalf := size.Width * scale / 2

	dir := sideVector(d.Rel.Side, target.Rotation)
	if d.Rel.Angle != 0 {
		dir = geo.Pt(math.Cos(d.Rel.Angle), math.Sin(d.Rel.Angle))
	}
	parentHalf := halfAlong(target, dir)

	var pos geo.Point2D
	switch d.Rel.Relation {
	case "attached":
		// Pressed against the parent's footprint edge, spread along the
		// surface by the ratio band.
		pos = target.Position.Add(dir.Scale(parentHalf + childHalf + attachGap))
		pos = pos.Add(lateral(dir, d.Rel.SurfaceRatio, target))
	case "flanking":
		pos = target.Position.Add(dir.Rotate(math.Pi / 2).Scale(parentHalf + childHalf + relDistance(d.Rel, 2)))
	default: // adjacent, along, near
		pos = target.Position.Add(dir.Scale(parentHalf + childHalf + relDistance(d.Rel, 2)))
		pos = pos.Add(lateral(dir, d.Rel.SurfaceRatio, target))
	}

	cand := Placement{
		InstanceID:  newInstanceID(d.Asset.Category),
		Prompt:      d.Asset.Prompt,
		Category:    d.Asset.Category,
		Position:    pos,
		Rotation:    pos.AngleTo(target.Position), // face the parent
		Scale:       scale,
		StructureID: d.Rel.TargetID,
		Size:        size,
	}
	if !r.tryPlace(&cand, d.Rel.MinDistance, secondaryAttempts) {
		r.skipWarn("decoration", d.ID, "no collision-free spot")
	}
}

// resolveArrangement places a cluster/grid/row pattern of identical items
// as a unit relative to a structure.
func (r *Resolver) resolveArrangement(a *plan.Arrangement, placed map[string]Placement) {
	target, ok := placed[a.Rel.TargetID]
	if !ok {
		r.skipWarn("arrangement", a.ID, "unresolved target "+a.Rel.TargetID)
		return
	}

	size := r.sizeFor(a.Asset, a.EstSize)
	scale := r.scaleFor(a.Asset)
	dir := sideVector(a.Rel.Side, target.Rotation)
	spread := a.Spacing * float64(a.Count) / 2
	center := target.Position.Add(dir.Scale(halfAlong(target, dir) + relDistance(a.Rel, 4) + spread))

	offsets := patternOffsets(a.Pattern, a.Count, a.Spacing, dir)
	placedCount := 0
	for _, off := range offsets {
		cand := Placement{
			InstanceID:  newInstanceID(a.Asset.Category),
			Prompt:      a.Asset.Prompt,
			Category:    a.Asset.Category,
			Position:    center.Add(off),
			Rotation:    center.Add(off).AngleTo(center), // items face the pattern center
			Scale:       scale,
			StructureID: a.Rel.TargetID,
			Size:        size,
		}
		if r.tryPlace(&cand, a.Rel.MinDistance, secondaryAttempts) {
			placedCount++
		}
	}
	if placedCount < a.Count {
		r.skipWarn("arrangement", a.ID, "placed fewer items than requested")
	}
}

// patternOffsets returns Count offsets around the pattern center.
func patternOffsets(pattern string, count int, spacing float64, dir geo.Point2D) []geo.Point2D {
	offsets := make([]geo.Point2D, 0, count)
	switch pattern {
	case "grid":
		side := int(math.Ceil(math.Sqrt(float64(count))))
		for i := 0; i < count; i++ {
			col := float64(i%side) - float64(side-1)/2
			row := float64(i/side) - float64(side-1)/2
			offsets = append(offsets, geo.Pt(col*spacing, row*spacing))
		}
	case "row":
		perp := dir.Rotate(math.Pi / 2)
		for i := 0; i < count; i++ {
			t := float64(i) - float64(count-1)/2
			offsets = append(offsets, perp.Scale(t*spacing))
		}
	default: // cluster: ring around the center
		radius := spacing
		if count > 4 {
			radius = spacing * float64(count) / (2 * math.Pi)
		}
		for i := 0; i < count; i++ {
			angle := 2 * math.Pi * float64(i) / float64(count)
			offsets = append(offsets, geo.Pt(math.Cos(angle), math.Sin(angle)).Scale(radius))
		}
	}
	return offsets
}

// resolveAtmosphere scatters, aligns, or flanks low-priority entities
// relative to a structure or the whole zone.
func (r *Resolver) resolveAtmosphere(a *plan.AtmosphereItem, placed map[string]Placement) {
	size := r.sizeFor(a.Asset, a.EstSize)
	scale := r.scaleFor(a.Asset)
	count := a.Count
	if count <= 0 {
		count = 1
	}

	var target *Placement
	if a.Rel.TargetID != "" {
		t, ok := placed[a.Rel.TargetID]
		if !ok {
			r.skipWarn("atmosphere", a.ID, "unresolved target "+a.Rel.TargetID)
			return
		}
		target = &t
	}

	placedCount := 0
	for i := 0; i < count; i++ {
		var pos geo.Point2D
		switch {
		case a.Rel.Relation == "flanking" && target != nil:
			// Alternate left/right of the target.
			side := 1.0
			if i%2 == 1 {
				side = -1
			}
			perp := sideVector(a.Rel.Side, target.Rotation).Rotate(math.Pi / 2)
			dist := halfAlong(*target, perp) + relDistance(a.Rel, 3) + float64(i/2)*3
			pos = target.Position.Add(perp.Scale(side * dist))
		case (a.Rel.Relation == "along" || a.Rel.Relation == "align") && target != nil:
			dir := sideVector(a.Rel.Side, target.Rotation)
			perp := dir.Rotate(math.Pi / 2)
			t := float64(i) - float64(count-1)/2
			pos = target.Position.
				Add(dir.Scale(halfAlong(*target, dir) + relDistance(a.Rel, 3))).
				Add(perp.Scale(t * math.Max(a.Rel.MinDistance, 3)))
		case target != nil: // scattered around a structure
			angle := r.rng.Float64() * 2 * math.Pi
			dist := halfAlong(*target, geo.Pt(1, 0)) + relDistance(a.Rel, 6) + r.rng.Float64()*10
			pos = target.Position.Add(geo.Pt(math.Cos(angle), math.Sin(angle)).Scale(dist))
		default: // scattered across the zone
			pos = r.scatterPoint(a.Rel.AvoidStructures)
		}

		cand := Placement{
			InstanceID:  newInstanceID(a.Asset.Category),
			Prompt:      a.Asset.Prompt,
			Category:    a.Asset.Category,
			Position:    pos,
			Rotation:    r.rng.Float64() * 2 * math.Pi,
			Scale:       scale,
			Layer:       a.Layer,
			StructureID: a.Rel.TargetID,
			Size:        size,
		}
		if r.tryPlace(&cand, a.Rel.MinDistance, secondaryAttempts) {
			placedCount++
		}
	}
	if placedCount == 0 && count > 0 {
		r.skipWarn("atmosphere", a.ID, "no items placed")
	}
}

// scatterPoint picks a random zone point, keeping clear of structure
// anchors when asked to.
func (r *Resolver) scatterPoint(avoidStructures bool) geo.Point2D {
	half := r.cfg.ZoneSize / 2 * 0.95
	for attempt := 0; attempt < scatterAttempts; attempt++ {
		pos := geo.Pt(r.rng.Float64()*2-1, r.rng.Float64()*2-1).Scale(half)
		if !avoidStructures || r.clearOfStructures(pos) {
			return pos
		}
	}
	return geo.Pt(r.rng.Float64()*2-1, r.rng.Float64()*2-1).Scale(half)
}

// clearOfStructures reports whether pos keeps a courtesy margin from
// every accepted structure-category placement.
func (r *Resolver) clearOfStructures(pos geo.Point2D) bool {
	for _, p := range r.accepted {
		if p.Category != "structure" && p.Category != "building" {
			continue
		}
		clearance := p.Size.Width*p.Scale/2 + 8
		if pos.Distance(p.Position) < clearance {
			return false
		}
	}
	return true
}

// resolveNPC places a character near or behind a structure, spreading
// members of one narrative group with their lateral offsets.
func (r *Resolver) resolveNPC(n *plan.NPC, placed map[string]Placement) {
	target, ok := placed[n.Rel.TargetID]
	if !ok && n.Rel.TargetID != "" {
		r.skipWarn("npc", n.ID, "unresolved target "+n.Rel.TargetID)
		return
	}

	size := r.sizeFor(n.Asset, n.EstSize)
	scale := r.scaleFor(n.Asset)

	var pos geo.Point2D
	var yaw float64
	if ok {
		side := n.Rel.Side
		if side == "" {
			if n.Rel.Relation == "behind" {
				side = "behind"
			} else {
				side = "front"
			}
		}
		dir := sideVector(side, target.Rotation)
		dist := relDistance(n.Rel, 2.5)
		pos = target.Position.Add(dir.Scale(halfAlong(target, dir) + dist))
		pos = pos.Add(dir.Rotate(math.Pi / 2).Scale(n.Rel.LateralOffset))
		yaw = pos.AngleTo(target.Position)
	} else {
		pos = r.scatterPoint(true)
		yaw = r.rng.Float64() * 2 * math.Pi
	}

	cand := Placement{
		InstanceID:   newInstanceID("npc"),
		Prompt:       n.Asset.Prompt,
		Category:     n.Asset.Category,
		Position:     pos,
		Rotation:     yaw,
		Scale:        scale,
		StructureID:  n.Rel.TargetID,
		NPC:          true,
		Behavior:     string(n.Behavior),
		WanderRadius: n.WanderRadius,
		Size:         size,
	}
	if !r.tryPlace(&cand, n.Rel.MinDistance, secondaryAttempts) {
		r.skipWarn("npc", n.ID, "no collision-free spot")
	}
}

// halfAlong returns a placement's scaled half extent projected onto dir.
func halfAlong(p Placement, dir geo.Point2D) float64 {
	halfW := p.Size.Width * p.Scale / 2
	halfD := p.Size.Depth * p.Scale / 2
	return math.Abs(dir.X)*halfW + math.Abs(dir.Z)*halfD
}

// lateral converts a surface ratio in [0.2, 0.8] to an offset along the
// parent's edge perpendicular to dir. Ratio 0.5 (and unset) is centered.
func lateral(dir geo.Point2D, ratio float64, target Placement) geo.Point2D {
	if ratio == 0 {
		return geo.Point2D{}
	}
	width := target.Size.Width * target.Scale
	return dir.Rotate(math.Pi / 2).Scale((ratio - 0.5) * width)
}

func relDistance(rel plan.Relationship, fallback float64) float64 {
	if rel.Distance > 0 {
		return rel.Distance
	}
	return fallback
}
