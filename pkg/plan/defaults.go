package plan

// categoryDefault centralizes per-category fallback values. Conversion
// routines apply these in one pass instead of scattering defaults through
// the code; an entry's own values always win.
type categoryDefault struct {
	RealSize    float64 // meters, largest dimension
	AspectW     float64 // width as fraction of real size
	AspectH     float64 // height as fraction of real size
	AspectD     float64 // depth as fraction of real size
	MinDistance float64 // spacing floor between peers
}

var categoryDefaults = map[string]categoryDefault{
	"structure": {RealSize: 12, AspectW: 1.0, AspectH: 0.8, AspectD: 1.0, MinDistance: 8},
	"prop":      {RealSize: 1.5, AspectW: 1.0, AspectH: 1.0, AspectD: 1.0, MinDistance: 1},
	"tree":      {RealSize: 8, AspectW: 0.6, AspectH: 1.0, AspectD: 0.6, MinDistance: 4},
	"rock":      {RealSize: 2, AspectW: 1.0, AspectH: 0.7, AspectD: 1.0, MinDistance: 1.5},
	"plant":     {RealSize: 1, AspectW: 1.0, AspectH: 1.0, AspectD: 1.0, MinDistance: 0.8},
	"character": {RealSize: 1.8, AspectW: 0.4, AspectH: 1.0, AspectD: 0.4, MinDistance: 1},
}

var genericDefault = categoryDefault{RealSize: 2, AspectW: 1.0, AspectH: 1.0, AspectD: 1.0, MinDistance: 1.5}

// layerDefault holds per-layer spacing for layered plans. These are
// applied only when an entry didn't set its own value; generic fallbacks
// never overwrite them, which preserves per-layer composition intent.
type layerDefault struct {
	Radius      float64 // placement radius around the focal (anchors) or edge inset (frame)
	MinDistance float64
}

var layerDefaults = map[Layer]layerDefault{
	LayerFocal:   {Radius: 0, MinDistance: 0},
	LayerAnchors: {Radius: 25, MinDistance: 10},
	LayerFrame:   {Radius: 40, MinDistance: 15},
	LayerFill:    {Radius: 0, MinDistance: 5},
}

// defaultsFor returns the category defaults, falling back to the generic row.
func defaultsFor(category string) categoryDefault {
	if d, ok := categoryDefaults[category]; ok {
		return d
	}
	return genericDefault
}

// estimateBounds derives an entity's estimated bounding box from its real
// size and category aspect ratios.
func estimateBounds(a Asset) Bounds3 {
	d := defaultsFor(a.Category)
	size := a.RealSize
	if size <= 0 {
		size = d.RealSize
	}
	return Bounds3{
		Width:  size * d.AspectW,
		Height: size * d.AspectH,
		Depth:  size * d.AspectD,
	}
}

// PrepareAsset applies category defaults to an asset and derives its
// estimated bounding box, for callers building plan entries outside the
// normalizer (refinement adds, mainly).
func PrepareAsset(a Asset) (Asset, Bounds3) {
	a = fillAsset(a)
	return a, estimateBounds(a)
}

// fillAsset applies category defaults to an asset's size and derived scale.
func fillAsset(a Asset) Asset {
	d := defaultsFor(a.Category)
	if a.RealSize <= 0 {
		a.RealSize = d.RealSize
	}
	if a.Scale <= 0 {
		a.Scale = 1
	}
	return a
}

// zoneSpreadBase is the base distance between narrative-zone anchors; the
// anchor's structure size is added so zones never collide by construction.
const zoneSpreadBase = 40.0

// surfaceRatioMin and surfaceRatioMax bound the horizontal band vignette
// props are spread across on their parent structure.
const (
	surfaceRatioMin = 0.2
	surfaceRatioMax = 0.8
)

// npcSpacing is the lateral spacing between NPCs from one narrative group.
const npcSpacing = 1.5

// compassDirs are the 8 directions cycled for side keywords.
var compassDirs = []string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"}

// zoneSpreadDirs cycles orthogonal directions before diagonals, and
// zoneSpreadStep widens each successive zone's radius. Together they keep
// every pairwise zone-anchor distance above zoneSpreadBase plus the
// smallest anchor size, so zones never collide by construction.
var zoneSpreadDirs = []string{"north", "east", "south", "west", "northeast", "southeast", "southwest", "northwest"}

const zoneSpreadStep = 15.0
