package harness

// TraceEvent records one flow step's outcome for golden comparison.
//
// Copy ids minted during a run are random, so the trace replaces them
// with ordinal labels ("copy-1", "copy-2") in insertion order. At is the
// offset from the scenario clock start, keeping traces byte-stable
// across runs.
type TraceEvent struct {
	Step              int     `json:"step"`
	At                string  `json:"at"`
	Submit            string  `json:"submit"`
	Autopilot         bool    `json:"autopilot,omitempty"`
	Error             string  `json:"error,omitempty"`
	Reason            string  `json:"reason,omitempty"`
	Duplicate         bool    `json:"duplicate,omitempty"`
	Copy              string  `json:"copy,omitempty"`
	Action            string  `json:"action,omitempty"`
	Marker            string  `json:"marker,omitempty"`
	Weight            float64 `json:"weight,omitempty"`
	ScoreCacheUpdated bool    `json:"score_cache_updated,omitempty"`
	PantryConsumed    int64   `json:"pantry_consumed,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect clause and final
	// assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// outcomes returns the per-step outcome labels for trace_reasons:
// the ack reason, or the error code for steps that were rejected.
func (r *Result) outcomes() []string {
	out := make([]string, len(r.Trace))
	for i, ev := range r.Trace {
		if ev.Error != "" {
			out[i] = ev.Error
			continue
		}
		out[i] = ev.Reason
	}
	return out
}
