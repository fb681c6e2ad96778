package compose

// Phase names one stage of a composition request.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhasePlanning         Phase = "planning"
	PhaseGeneratingAssets Phase = "generating_assets"
	PhasePlacing          Phase = "placing"
	PhaseCapturing        Phase = "capturing"
	PhaseEvaluating       Phase = "evaluating"
	PhaseRefining         Phase = "refining"
	PhaseComplete         Phase = "complete"
	PhaseError            Phase = "error"
	PhaseAborted          Phase = "aborted"
)

// Event is one phase transition, published on the orchestrator's event
// stream for UIs and the dev server.
type Event struct {
	Phase     Phase  `json:"phase"`
	Iteration int    `json:"iteration"`
	Message   string `json:"message,omitempty"`
	Score     int    `json:"score,omitempty"`
}

// emit publishes without blocking: a slow or absent listener never stalls
// the composition loop.
func (o *Orchestrator) emit(ev Event) {
	select {
	case o.events <- ev:
	default:
	}
}
