package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Step    int    `json:"step"`
	Action  string `json:"action"`
	Outcome string `json:"outcome"` // "ok", a migration kind or an error code
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect clause and assertion
	// held.
	Pass bool `json:"pass"`

	// Trace contains the executed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expect and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// Digest is the structure digest of the final state, if configured.
	Digest string `json:"digest,omitempty"`

	// Structure is the canonical structure of the final state, if
	// configured.
	Structure map[string]any `json:"structure,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace records an executed step.
func (r *Result) AddTrace(step int, action, outcome string) {
	r.Trace = append(r.Trace, TraceEvent{Step: step, Action: action, Outcome: outcome})
}
