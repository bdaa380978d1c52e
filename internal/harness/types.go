package harness

// TraceEvent records one handled prompt.
type TraceEvent struct {
	Seq     int64          `json:"seq"`
	Agent   string         `json:"agent"`
	Prompt  string         `json:"prompt"`
	Intent  string         `json:"intent,omitempty"`
	Kind    string         `json:"kind"`
	Payload map[string]any `json:"payload"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
