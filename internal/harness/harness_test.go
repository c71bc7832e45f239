package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bootsel/internal/metadata"
)

func TestScenariosGolden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		s, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunReportsExpectationFailures(t *testing.T) {
	alerts, started := 3, 2
	s := &Scenario{
		Name:        "mismatch",
		Description: "every expectation is wrong",
		Manifest:    manifestDir(t),
		Env:         map[string]string{"platform": "gecko", "locale": "en"},
		Expect: Expect{
			Outcome:      "bad_property",
			Artifact:     "B1",
			Target:       "B1.cache.html",
			Alerts:       &alerts,
			Started:      &started,
			HandlerCalls: []string{"onBadProp(locale)"},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Kind: "started", Count: 5},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 7)
	assert.Contains(t, result.Errors[0], `outcome: expected "bad_property", got "started"`)
	assert.Contains(t, result.Errors[1], `artifact: expected "B1", got "A1"`)
	assert.Contains(t, result.Errors[2], "target")
	assert.Contains(t, result.Errors[3], "alerts: expected 3, got 0")
	assert.Contains(t, result.Errors[4], "started: expected 2, got 1")
	assert.Contains(t, result.Errors[5], "handler_calls")
	assert.Contains(t, result.Errors[6], "Assertion failed: trace_count")
}

func TestRunDefaultBootstrapID(t *testing.T) {
	s := &Scenario{
		Name:        "default_id",
		Description: "no bootstrap_id",
		Manifest:    manifestDir(t),
		Env:         map[string]string{"platform": "webkit", "locale": "en"},
		Expect:      Expect{Outcome: "started"},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "boot-default", result.Record.ID)
	assert.Equal(t, "B1", result.Record.ArtifactID)
	for _, ev := range result.Trace {
		assert.Equal(t, "boot-default", ev.BootstrapID)
	}
}

func TestRunUnsetProperty(t *testing.T) {
	s := &Scenario{
		Name:        "unset",
		Description: "locale missing from env",
		Manifest:    manifestDir(t),
		Env:         map[string]string{"platform": "webkit"},
		Expect:      Expect{Outcome: "bad_property"},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t,
		`While attempting to load module "app", property "locale" was not specified. Allowed values: en,fr`,
		result.Alerts[0])
}

func TestRunMetaOverridesEnv(t *testing.T) {
	s := &Scenario{
		Name:        "meta_override",
		Description: "a property directive wins over the computed value",
		Manifest:    manifestDir(t),
		Env:         map[string]string{"platform": "webkit", "locale": "de"},
		Metas:       []metadata.Entry{{Name: "bootsel:property", Content: "locale=fr"}},
		Expect:      Expect{Outcome: "started", Artifact: "B2"},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunBadManifest(t *testing.T) {
	s := &Scenario{
		Name:        "broken",
		Description: "manifest fails validation",
		Manifest:    filepath.Join("..", "..", "testdata", "manifests", "broken"),
		Expect:      Expect{Outcome: "started"},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load manifest")
}
