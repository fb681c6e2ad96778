package plan

import "strings"

// groundCoverPhrases mark asset descriptions that describe surface
// texture rather than a placeable object. Matching prompts are discarded
// during normalization (recorded as info, never an error).
var groundCoverPhrases = []string{
	"ground cover",
	"groundcover",
	"grass covering",
	"grassy ground",
	"dirt ground",
	"terrain texture",
	"ground texture",
	"floor texture",
	"carpet of",
	"blanket of snow",
	"snow covering",
	"moss covering",
	"scattered leaves on the ground",
	"sand covering",
	"gravel surface",
}

// isGroundCover reports whether a prompt describes ground cover.
func isGroundCover(prompt string) bool {
	p := strings.ToLower(prompt)
	for _, phrase := range groundCoverPhrases {
		if strings.Contains(p, phrase) {
			return true
		}
	}
	return false
}
