package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bug39/scenesmith/pkg/analysis"
	"github.com/bug39/scenesmith/pkg/config"
	"github.com/bug39/scenesmith/pkg/placement"
	"github.com/bug39/scenesmith/pkg/plan"
)

// runCompose is the offline pipeline: a saved raw plan (as an LLM
// produced it) through normalize, place, and analyze, with the full
// scene printed as JSON. No collaborators are involved, so no captures
// and no refinement loop.
func runCompose(cfg config.Engine, planPath string, seed int64) error {
	raw, err := os.ReadFile(planPath)
	if err != nil {
		return fmt.Errorf("reading plan: %w", err)
	}

	p, report, err := plan.Normalize(string(raw), plan.ModeAuto)
	if err != nil {
		return fmt.Errorf("normalizing plan: %w", err)
	}

	var opts []placement.Option
	if seed != 0 {
		opts = append(opts, placement.WithSeed(seed))
	}
	placements, placeReport, err := placement.New(cfg, opts...).Resolve(p)
	report.Merge(placeReport)
	if err != nil {
		printValidationReport(report)
		return fmt.Errorf("resolving placements: %w", err)
	}

	collisions, score := analysis.Analyze(placements, nil, cfg)

	printValidationReport(report)
	fmt.Println()
	printAnalysis(collisions, score)
	fmt.Println()

	output := map[string]any{
		"theme":       p.Theme,
		"plan_type":   p.Type,
		"placements":  placements,
		"collisions":  collisions,
		"composition": score,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func runAnalyze(cfg config.Engine, placementsPath string) error {
	raw, err := os.ReadFile(placementsPath)
	if err != nil {
		return fmt.Errorf("reading placements: %w", err)
	}

	var placements []placement.Placement
	if err := json.Unmarshal(raw, &placements); err != nil {
		return fmt.Errorf("parsing placements: %w", err)
	}

	collisions, score := analysis.Analyze(placements, nil, cfg)
	printAnalysis(collisions, score)

	if !score.Passed {
		os.Exit(1)
	}
	return nil
}
