package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/bootsel/internal/compiler"
	"github.com/roach88/bootsel/internal/engine"
	"github.com/roach88/bootsel/internal/simhost"
	"github.com/roach88/bootsel/internal/testutil"
)

// Run compiles the scenario's manifest, bootstraps it on a simulated page
// and checks the settled state against the scenario's expectations.
//
// The returned error is non-nil only when the scenario cannot be executed
// (bad manifest, host failure). Expectation failures are reported in
// Result.Errors with Pass set to false.
func Run(s *Scenario) (*Result, error) {
	m, err := compiler.LoadManifest(s.Manifest)
	if err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", s.Manifest, err)
	}

	order, err := simhost.ParseOrder(s.Order)
	if err != nil {
		return nil, err
	}

	sim, err := simhost.Simulate(m, simhost.Params{
		Options: simhost.Options{
			Direct:     s.Direct,
			ShellFails: s.ShellFails,
			FailStart:  s.FailStart,
			Metas:      s.Metas,
			Query:      s.Query,
			Order:      order,
		},
		Env:      s.Env,
		Fail:     s.Fail,
		Handlers: s.Handlers,
		IDs:      testutil.NewFixedIDGenerator(s.BootstrapID),
		Clock:    engine.NewClock(),
		Logger:   testutil.DiscardLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("simulate %s: %w", s.Name, err)
	}

	result := NewResult()
	result.Record = sim.Record
	result.Trace = append(result.Trace, sim.Events...)
	result.Alerts = sim.Alerts
	result.HandlerCalls = sim.HandlerCalls
	result.Starts = sim.Starts

	checkExpect(result, s.Expect)
	for _, a := range s.Assertions {
		if err := evaluateAssertion(result.Trace, a); err != nil {
			result.fail("%s", err.Error())
		}
	}
	return result, nil
}

func checkExpect(r *Result, want Expect) {
	if got := string(r.Record.Outcome); got != want.Outcome {
		r.fail("outcome: expected %q, got %q", want.Outcome, got)
	}
	if want.Artifact != "" && r.Record.ArtifactID != want.Artifact {
		r.fail("artifact: expected %q, got %q", want.Artifact, r.Record.ArtifactID)
	}
	if want.Target != "" && r.Record.Target != want.Target {
		r.fail("target: expected %q, got %q", want.Target, r.Record.Target)
	}
	if want.Alerts != nil && len(r.Alerts) != *want.Alerts {
		r.fail("alerts: expected %d, got %d %q", *want.Alerts, len(r.Alerts), r.Alerts)
	}
	if want.Started != nil && r.Starts != *want.Started {
		r.fail("started: expected %d, got %d", *want.Started, r.Starts)
	}
	if want.HandlerCalls != nil && !slices.Equal(r.HandlerCalls, want.HandlerCalls) {
		r.fail("handler_calls: expected %q, got %q", want.HandlerCalls, r.HandlerCalls)
	}
}
