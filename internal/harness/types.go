package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Step  int      `json:"step"`
	Op    string   `json:"op"`
	Keys  []string `json:"keys,omitempty"`  // keys of the step lens (or of the diff)
	Error string   `json:"error,omitempty"` // error code, or message for non-lens errors
	State any      `json:"state"`           // encoded state after the step
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Base is the encoded starting state.
	Base any `json:"base"`

	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations, empty when Pass is true.
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

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Final returns the state after the last step.
func (r *Result) Final() any {
	if len(r.Trace) == 0 {
		return r.Base
	}
	return r.Trace[len(r.Trace)-1].State
}
