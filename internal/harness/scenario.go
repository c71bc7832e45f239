package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bootsel/internal/ir"
	"github.com/roach88/bootsel/internal/metadata"
	"github.com/roach88/bootsel/internal/simhost"
)

// Scenario describes one simulated page load and its expected result.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Manifest is the CUE manifest directory, relative to the scenario file.
	Manifest string `yaml:"manifest"`

	// BootstrapID is the fixed bootstrap ID. Defaults to
	// testutil.DefaultBootstrapID.
	BootstrapID string `yaml:"bootstrap_id,omitempty"`

	// Direct makes a development shell available.
	Direct bool `yaml:"direct,omitempty"`

	// ShellFails makes the shell refuse to attach.
	ShellFails bool `yaml:"shell_fails,omitempty"`

	// FailStart makes the loaded artifact report an initialization failure.
	FailStart bool `yaml:"fail_start,omitempty"`

	// Env maps property names to computed values. Properties missing here
	// evaluate as unset.
	Env map[string]string `yaml:"env,omitempty"`

	// Fail lists properties whose provider errors out.
	Fail []string `yaml:"fail,omitempty"`

	// Metas is the page metadata, in document order.
	Metas []metadata.Entry `yaml:"metas,omitempty"`

	// Handlers names the handler expressions the page defines.
	Handlers []string `yaml:"handlers,omitempty"`

	// Query is the page query string, including the leading '?'.
	Query string `yaml:"query,omitempty"`

	// Order is inject-first or load-first (the default).
	Order string `yaml:"order,omitempty"`

	Expect Expect `yaml:"expect"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect is the expected settled state of the page load.
type Expect struct {
	// Outcome is the terminal outcome, e.g. "started" or "bad_property".
	Outcome string `yaml:"outcome"`

	// Artifact is the selected artifact ID. Checked when non-empty.
	Artifact string `yaml:"artifact,omitempty"`

	// Target is the derived artifact path. Checked when non-empty.
	Target string `yaml:"target,omitempty"`

	// Alerts is the number of default notifications shown. Checked when set.
	Alerts *int `yaml:"alerts,omitempty"`

	// Started is the number of entry point invocations. Checked when set.
	Started *int `yaml:"started,omitempty"`

	// HandlerCalls lists the page handler calls in order. Checked when set.
	HandlerCalls []string `yaml:"handler_calls,omitempty"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type is trace_contains, trace_order or trace_count.
	Type string `yaml:"type"`

	// Kind is the event kind (trace_contains, trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Attrs is the attribute subset to match (trace_contains).
	Attrs map[string]string `yaml:"attrs,omitempty"`

	// Count is the expected number of events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Kinds is the expected kind order (trace_order).
	Kinds []string `yaml:"kinds,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

var outcomes = map[string]bool{
	string(ir.OutcomeStarted):     true,
	string(ir.OutcomePending):     true,
	string(ir.OutcomeAttached):    true,
	string(ir.OutcomeBadProperty): true,
	string(ir.OutcomeUnsupported): true,
	string(ir.OutcomeBadLoad):     true,
	string(ir.OutcomeConfigError): true,
}

// LoadScenario reads and parses a scenario YAML file. The manifest path is
// resolved relative to the file's directory.
//
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving a relative manifest path
// against baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches "expects:" vs "expect:"
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if s.Manifest != "" && !filepath.IsAbs(s.Manifest) && baseDir != "" {
		s.Manifest = filepath.Join(baseDir, s.Manifest)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Manifest == "" {
		return fmt.Errorf("manifest is required")
	}
	if info, err := os.Stat(s.Manifest); err != nil || !info.IsDir() {
		return fmt.Errorf("manifest directory not found: %s", s.Manifest)
	}
	if _, err := simhost.ParseOrder(s.Order); err != nil {
		return err
	}
	if s.ShellFails && !s.Direct {
		return fmt.Errorf("shell_fails requires direct")
	}

	if s.Expect.Outcome == "" {
		return fmt.Errorf("expect.outcome is required")
	}
	if !outcomes[s.Expect.Outcome] {
		return fmt.Errorf("expect.outcome: unknown outcome %q", s.Expect.Outcome)
	}
	if s.Expect.Alerts != nil && *s.Expect.Alerts < 0 {
		return fmt.Errorf("expect.alerts must be non-negative")
	}
	if s.Expect.Started != nil && *s.Expect.Started < 0 {
		return fmt.Errorf("expect.started must be non-negative")
	}

	for i, m := range s.Metas {
		if m.Name == "" {
			return fmt.Errorf("metas[%d]: name is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
