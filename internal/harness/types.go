package harness

import (
	"fmt"

	"github.com/roach88/bootsel/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Record summarizes the bootstrap.
	Record ir.BootstrapRecord `json:"record"`

	// Trace contains the bootstrap's events in seq order.
	Trace []ir.TraceEvent `json:"trace"`

	// Alerts are the default notifications shown to the user.
	Alerts []string `json:"alerts,omitempty"`

	// HandlerCalls are the calls made to page-defined handlers.
	HandlerCalls []string `json:"handler_calls,omitempty"`

	// Starts counts entry point invocations.
	Starts int `json:"starts"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []ir.TraceEvent{},
		Errors: []string{},
	}
}

func (r *Result) fail(format string, args ...any) {
	r.Pass = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}
