package geo

import "math"

// Rect is an axis-aligned rectangle in the XZ plane, stored as a center
// point and half extents. Footprint checks treat every entity as one of
// these regardless of its actual mesh.
type Rect struct {
	Center Point2D `json:"center"`
	HalfW  float64 `json:"half_w"` // X half extent
	HalfD  float64 `json:"half_d"` // Z half extent
}

// RectAt builds a Rect from a center point and full width/depth.
func RectAt(center Point2D, width, depth float64) Rect {
	return Rect{Center: center, HalfW: width / 2, HalfD: depth / 2}
}

// Min returns the minimum corner.
func (r Rect) Min() Point2D {
	return Point2D{r.Center.X - r.HalfW, r.Center.Z - r.HalfD}
}

// Max returns the maximum corner.
func (r Rect) Max() Point2D {
	return Point2D{r.Center.X + r.HalfW, r.Center.Z + r.HalfD}
}

// Area returns the rectangle's area.
func (r Rect) Area() float64 {
	return 4 * r.HalfW * r.HalfD
}

// Intersects reports whether r and o overlap. Touching edges do not count.
func (r Rect) Intersects(o Rect) bool {
	return math.Abs(r.Center.X-o.Center.X) < r.HalfW+o.HalfW &&
		math.Abs(r.Center.Z-o.Center.Z) < r.HalfD+o.HalfD
}

// Penetration returns the overlap depth between r and o: the smaller of
// the X and Z penetration depths. Zero when the rectangles do not overlap.
func (r Rect) Penetration(o Rect) float64 {
	px := r.HalfW + o.HalfW - math.Abs(r.Center.X-o.Center.X)
	pz := r.HalfD + o.HalfD - math.Abs(r.Center.Z-o.Center.Z)
	if px <= 0 || pz <= 0 {
		return 0
	}
	return math.Min(px, pz)
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(p Point2D) bool {
	return math.Abs(p.X-r.Center.X) <= r.HalfW &&
		math.Abs(p.Z-r.Center.Z) <= r.HalfD
}
