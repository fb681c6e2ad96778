package compose

import (
	"fmt"
	"strings"
)

// planPrompt asks the planner for a structured scene plan. The schema
// hint matches the normalizer's preferred (structures) shape; the
// normalizer still accepts the older shapes a drifted planner may emit.
func planPrompt(request string) string {
	var b strings.Builder
	b.WriteString("Design a 3D scene for the following request. ")
	b.WriteString("Respond with a single JSON object: a theme string and ")
	b.WriteString("structures / decorations / arrangements / atmosphere / npcs collections. ")
	b.WriteString("Express secondary placement as relationships (target, relation, side, distance) ")
	b.WriteString("rather than coordinates. Do not include ground cover; the terrain already has it.\n\n")
	b.WriteString("Request: ")
	b.WriteString(request)
	return b.String()
}

// evalPrompt asks for a scene evaluation against the attached captures.
// The analysis summary gives the evaluator measured facts so it does not
// have to guess distances from pixels.
func evalPrompt(request, analysisSummary string, iteration int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate iteration %d of a generated 3D scene against the original request.\n\n", iteration)
	b.WriteString("Request: ")
	b.WriteString(request)
	b.WriteString("\n\nMeasured scene analysis:\n")
	b.WriteString(analysisSummary)
	b.WriteString("\nThe attached images are an overview, a ground-level view, and an orthographic top-down view.\n")
	b.WriteString(`Respond with JSON: {"overall_score": 0-100, "satisfactory": bool, "action_items": `)
	b.WriteString(`[{"type": "rescale|remove|move|add", "target": "...", "description": "...", "location": "...", "multiplier": n}]}`)
	return b.String()
}
