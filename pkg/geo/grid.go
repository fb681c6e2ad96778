package geo

// Grid maps points in a square zone centered on the origin to NxN cells
// and counts occupants per cell. Used for density histograms and for the
// rebalancing pass.
type Grid struct {
	Size     int     // cells per side
	ZoneSize float64 // zone side length in meters
	counts   []int
}

// NewGrid creates an empty Size x Size grid over a zone of the given side length.
func NewGrid(size int, zoneSize float64) *Grid {
	return &Grid{
		Size:     size,
		ZoneSize: zoneSize,
		counts:   make([]int, size*size),
	}
}

// Cell returns the (col, row) cell containing p, clamped to the grid.
func (g *Grid) Cell(p Point2D) (int, int) {
	half := g.ZoneSize / 2
	cell := g.ZoneSize / float64(g.Size)
	col := int((p.X + half) / cell)
	row := int((p.Z + half) / cell)
	if col < 0 {
		col = 0
	}
	if col >= g.Size {
		col = g.Size - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= g.Size {
		row = g.Size - 1
	}
	return col, row
}

// Add records an occupant at p.
func (g *Grid) Add(p Point2D) {
	col, row := g.Cell(p)
	g.counts[row*g.Size+col]++
}

// Count returns the occupant count of cell (col, row).
func (g *Grid) Count(col, row int) int {
	return g.counts[row*g.Size+col]
}

// Counts returns the flat row-major count slice.
func (g *Grid) Counts() []int {
	out := make([]int, len(g.counts))
	copy(out, g.counts)
	return out
}

// CellCenter returns the world-space center of cell (col, row).
func (g *Grid) CellCenter(col, row int) Point2D {
	half := g.ZoneSize / 2
	cell := g.ZoneSize / float64(g.Size)
	return Point2D{
		X: -half + (float64(col)+0.5)*cell,
		Z: -half + (float64(row)+0.5)*cell,
	}
}

// Total returns the total occupant count.
func (g *Grid) Total() int {
	n := 0
	for _, c := range g.counts {
		n += c
	}
	return n
}
