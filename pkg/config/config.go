package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine holds all tunables for one composition request. Every threshold
// the resolver, analyzer, and orchestrator consult lives here so none of
// them hides a magic number.
type Engine struct {
	// ZoneSize is the side length of the usable square zone in meters.
	// Coordinates are clamped to [-ZoneSize/2, ZoneSize/2].
	ZoneSize float64 `yaml:"zone_size"`

	// Scale clamp range for resolved placements.
	ScaleMin float64 `yaml:"scale_min"`
	ScaleMax float64 `yaml:"scale_max"`

	// OverlapBuffer shrinks footprints before overlap checks (0.9 = 10%
	// tolerance before a pair is flagged).
	OverlapBuffer float64 `yaml:"overlap_buffer"`

	// Soft validation of explicit-coordinate plans.
	StructureOverlapThreshold float64 `yaml:"structure_overlap_threshold"`
	NudgeDistance             float64 `yaml:"nudge_distance"`
	ClusterRadius             float64 `yaml:"cluster_radius"`
	ClusterFlagCount          int     `yaml:"cluster_flag_count"`

	// FrameMinDistance is the floor on a frame-layer element's distance
	// from the focal point, regardless of what the plan requested.
	FrameMinDistance float64 `yaml:"frame_min_distance"`

	// FillDenserAtEdges selects the fill-layer density gradient direction.
	FillDenserAtEdges bool `yaml:"fill_denser_at_edges"`

	// Refinement loop control.
	ScoreThreshold float64 `yaml:"score_threshold"`
	MaxIterations  int     `yaml:"max_iterations"`
	PlateauDelta   float64 `yaml:"plateau_delta"`

	// Rebalancing pass.
	RebalanceGridSize int `yaml:"rebalance_grid_size"`
	RebalanceMaxMoves int `yaml:"rebalance_max_moves"`

	// Asset-load wait (best effort; the loop proceeds on timeout).
	LoadWaitTimeout  time.Duration `yaml:"load_wait_timeout"`
	LoadPollInterval time.Duration `yaml:"load_poll_interval"`
}

// Default returns the engine configuration used when no file is supplied.
func Default() Engine {
	return Engine{
		ZoneSize:                  400,
		ScaleMin:                  0.1,
		ScaleMax:                  200,
		OverlapBuffer:             0.9,
		StructureOverlapThreshold: 40,
		NudgeDistance:             30,
		ClusterRadius:             60,
		ClusterFlagCount:          3,
		FrameMinDistance:          40,
		FillDenserAtEdges:         true,
		ScoreThreshold:            75,
		MaxIterations:             4,
		PlateauDelta:              3,
		RebalanceGridSize:         4,
		RebalanceMaxMoves:         6,
		LoadWaitTimeout:           15 * time.Second,
		LoadPollInterval:          500 * time.Millisecond,
	}
}

// BoundsMin returns the minimum usable coordinate.
func (e Engine) BoundsMin() float64 { return -e.ZoneSize / 2 }

// BoundsMax returns the maximum usable coordinate.
func (e Engine) BoundsMax() float64 { return e.ZoneSize / 2 }

// Load reads an engine config from a YAML file, overlaying Default.
func Load(path string) (Engine, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading engine config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing engine config YAML: %w", err)
	}
	return cfg, nil
}
