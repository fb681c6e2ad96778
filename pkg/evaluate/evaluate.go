// Package evaluate parses scene-evaluation responses into a single
// normalized shape. Two response schemas are in the wild: the legacy
// scored form (overall_score / satisfactory / action_items) and the
// binary-verdict form (verdict / issues). The orchestrator only ever
// sees the normalized Evaluation.
package evaluate

import (
	"encoding/json"

	"github.com/bug39/scenesmith/pkg/plan"
)

// Verdict score mapping for the binary schema.
const (
	acceptScore    = 85
	needsWorkScore = 45
)

// Action is one requested change to the scene. Fields are a superset of
// what either schema emits; refinement interprets them by Type.
type Action struct {
	Type        string    `json:"type"`
	Target      string    `json:"target"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Priority    int       `json:"priority"`
	Multiplier  float64   `json:"multiplier"`
	TargetSize  float64   `json:"target_size"`
	Position    []float64 `json:"position"`
	Prompt      string    `json:"prompt"`
	Category    string    `json:"category"`
	Count       int       `json:"count"`
}

// Evaluation is the normalized result consumed by the refinement loop.
type Evaluation struct {
	Score        int      `json:"score"`
	Satisfactory bool     `json:"satisfactory"`
	Actions      []Action `json:"actions"`
}

// Neutral is the stand-in evaluation substituted when a response cannot
// be parsed: middling score, not satisfactory, nothing to refine. The
// loop keeps moving instead of failing the request.
func Neutral() Evaluation {
	return Evaluation{Score: 50}
}

// ParseSceneEvaluation extracts and normalizes an evaluation from raw
// response text. Returns nil when no evaluation can be recovered.
func ParseSceneEvaluation(text string) *Evaluation {
	raw, err := plan.ExtractJSON(text)
	if err != nil {
		return nil
	}

	var legacy struct {
		OverallScore *float64 `json:"overall_score"`
		Satisfactory *bool    `json:"satisfactory"`
		ActionItems  []Action `json:"action_items"`
	}
	if err := json.Unmarshal([]byte(raw), &legacy); err == nil &&
		(legacy.OverallScore != nil || legacy.Satisfactory != nil) {
		ev := Evaluation{Actions: legacy.ActionItems}
		if legacy.OverallScore != nil {
			ev.Score = clampScore(int(*legacy.OverallScore))
		}
		if legacy.Satisfactory != nil {
			ev.Satisfactory = *legacy.Satisfactory
		}
		return &ev
	}

	var binary struct {
		Verdict string   `json:"verdict"`
		Issues  []Action `json:"issues"`
	}
	if err := json.Unmarshal([]byte(raw), &binary); err == nil {
		switch binary.Verdict {
		case "accept":
			return &Evaluation{Score: acceptScore, Satisfactory: true, Actions: binary.Issues}
		case "needs_work":
			return &Evaluation{Score: needsWorkScore, Actions: binary.Issues}
		}
	}
	return nil
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
