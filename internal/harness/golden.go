package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/bootsel/internal/ir"
)

// TraceSnapshot captures the trace of one scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string          `json:"scenario_name"`
	BootstrapID  string          `json:"bootstrap_id"`
	Outcome      ir.Outcome      `json:"outcome"`
	Trace        []ir.TraceEvent `json:"trace"`
}

// NewTraceSnapshot builds the snapshot of a result.
func NewTraceSnapshot(name string, r *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: name,
		BootstrapID:  r.Record.ID,
		Outcome:      r.Record.Outcome,
		Trace:        r.Trace,
	}
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical. The
// per-event bootstrap ID is hoisted to the top level. The manifest hash is
// dropped because any edit to the fixture manifest changes it.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		event := map[string]any{
			"seq":  ev.Seq,
			"kind": ev.Kind,
		}
		attrs := make(map[string]string, len(ev.Attrs))
		for k, v := range ev.Attrs {
			if k == "manifest_hash" {
				continue
			}
			attrs[k] = v
		}
		if len(attrs) > 0 {
			event["attrs"] = attrs
		}
		trace[i] = event
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"bootstrap_id":  s.BootstrapID,
		"outcome":       string(s.Outcome),
		"trace":         trace,
	}
}

// Marshal returns the canonical JSON form of the snapshot.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot be executed. A trace mismatch
// fails the test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot := NewTraceSnapshot(name, result)
	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}
