package nutricoach

// Event type markers for plan-generation progress streams. A stream is
// an ordered sequence of status/recipes/tool events, then either a
// final or an error event, then exactly one complete event.
const (
	EventStatus   = "status"
	EventRecipes  = "recipes"
	EventTool     = "tool"
	EventError    = "error"
	EventFinal    = "final"
	EventComplete = "complete"
)

// Tool-call phases within tool events.
const (
	PhaseStart   = "start"
	PhaseReady   = "ready"
	PhaseSuccess = "success"
	PhaseError   = "error"
)

// ProgressEvent is one line of the plan-generation progress stream,
// serialized as NDJSON for streaming callers.
type ProgressEvent struct {
	Type       string        `json:"type"`
	Message    string        `json:"message,omitempty"`
	Tool       string        `json:"tool,omitempty"`
	Phase      string        `json:"phase,omitempty"`
	Ingredient string        `json:"ingredient,omitempty"`
	Query      string        `json:"query,omitempty"`
	Product    string        `json:"product,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Count      int           `json:"count,omitempty"`
	Results    int           `json:"results,omitempty"`
	Breakfasts []string      `json:"breakfasts,omitempty"`
	Mains      []string      `json:"mains,omitempty"`
	Payload    *PlanResponse `json:"payload,omitempty"`
}

// ProgressFunc receives progress events in emission order. A nil
// ProgressFunc disables progress reporting.
type ProgressFunc func(ProgressEvent)

// Emit calls f with the event when f is non-nil.
func (f ProgressFunc) Emit(event ProgressEvent) {
	if f != nil {
		f(event)
	}
}
