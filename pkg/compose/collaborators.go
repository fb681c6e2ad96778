package compose

import (
	"context"

	"github.com/bug39/scenesmith/pkg/placement"
)

// Planner produces plan and evaluation text from prompts. Implemented by
// an LLM client elsewhere; the orchestrator only consumes it.
type Planner interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithImages(ctx context.Context, prompt string, images [][]byte) (string, error)
	Cancel()
}

// AssetGenerator turns an asset prompt into a loadable asset. The
// returned code is the asset's source form, which the Measurer sizes.
type AssetGenerator interface {
	Generate(ctx context.Context, prompt, category string) (id, code string, err error)
}

// Measurer computes the bounding box of generated asset code at scale 1.
type Measurer interface {
	Measure(code string) (placement.Measurement, error)
}

// Renderer captures views of the current scene for evaluation.
type Renderer interface {
	Capture(ctx context.Context, preset string) ([]byte, error)
	CaptureOrthographic(ctx context.Context) ([]byte, error)
	PendingLoads() int
}

// World applies placements to the running scene.
type World interface {
	ExecuteScenePlan(ctx context.Context, placements []placement.Placement) error
	UpdateInstance(ctx context.Context, p placement.Placement) error
	DeleteInstance(ctx context.Context, instanceID string) error
	GetWorldData(ctx context.Context) ([]placement.Placement, error)
}

// Capture view presets requested each evaluation round.
const (
	PresetOverview = "overview"
	PresetGround   = "ground"
)
