package placement

import (
	"hash/fnv"

	"github.com/bug39/scenesmith/pkg/geo"
)

// Measurement describes one asset's extent at scale 1, as reported by the
// external measurement collaborator.
type Measurement struct {
	Width         float64     `json:"width"`
	Depth         float64     `json:"depth"`
	Height        float64     `json:"height"`
	FootprintArea float64     `json:"footprint_area"`
	CenterOffset  geo.Point2D `json:"center_offset"`
	MinY          float64     `json:"min_y"`
	MaxY          float64     `json:"max_y"`
}

// DefaultMeasurement is the fixed fallback box used whenever measurement
// fails or hasn't happened: a 2x2x2 cube.
func DefaultMeasurement() Measurement {
	return Measurement{
		Width:         2,
		Depth:         2,
		Height:        2,
		FootprintArea: 4,
		MaxY:          2,
	}
}

// MeasureCodeFunc is the external collaborator: it measures renderable
// asset code and may fail.
type MeasureCodeFunc func(code string) (Measurement, error)

// Cache memoizes measurements by a hash of the asset code. It is
// append-only for the lifetime of one generation request and is the only
// state shared between the resolver and the analyzer. Measurement failure
// falls back to the default box and is never propagated.
type Cache struct {
	measure  MeasureCodeFunc
	byHash   map[uint64]Measurement
	failures int
}

// NewCache creates a cache over the given measurement collaborator.
// A nil collaborator yields the default box for everything.
func NewCache(measure MeasureCodeFunc) *Cache {
	return &Cache{
		measure: measure,
		byHash:  make(map[uint64]Measurement),
	}
}

// Measure returns the measurement for the given asset code, consulting
// the cache first.
func (c *Cache) Measure(code string) Measurement {
	h := hashCode(code)
	if m, ok := c.byHash[h]; ok {
		return m
	}
	m := DefaultMeasurement()
	if c.measure != nil {
		if got, err := c.measure(code); err == nil {
			m = got
		} else {
			c.failures++
		}
	}
	c.byHash[h] = m
	return m
}

// Failures returns how many measurement calls fell back to the default box.
func (c *Cache) Failures() int { return c.failures }

// Len returns the number of cached measurements.
func (c *Cache) Len() int { return len(c.byHash) }

func hashCode(code string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(code))
	return h.Sum64()
}
