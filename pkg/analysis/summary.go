package analysis

import (
	"fmt"
	"strings"
)

// Summary renders the report as the plain-text block embedded in scene
// evaluation prompts. Kept terse: the evaluator reads it alongside the
// captures, not instead of them.
func Summary(report CollisionReport, score CompositionScore) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Composition score: %.0f/100 (%s)\n", score.Overall, passFail(score.Passed))
	fmt.Fprintf(&b, "  overlap %.0f | focal %.0f | depth %.0f | density %.0f | balance %.0f\n",
		score.Overlap, score.Focal, score.Depth, score.Density, score.Balance)
	fmt.Fprintf(&b, "Coverage: %.1f%%  Clustering: %.2f\n", report.CoveragePct, report.Clustering)

	if len(report.Overlaps) == 0 {
		b.WriteString("No overlapping placements.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Overlapping pairs (%d):\n", len(report.Overlaps))
	for _, o := range report.Overlaps {
		fmt.Fprintf(&b, "  - %q and %q interpenetrate by %.1fm\n", o.APrompt, o.BPrompt, o.Meters)
	}
	return b.String()
}

func passFail(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}
