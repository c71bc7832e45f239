package simhost

import (
	"errors"
	"fmt"

	"github.com/roach88/bootsel/internal/ir"
	"github.com/roach88/bootsel/internal/metadata"
	"github.com/roach88/bootsel/internal/selection"
)

// ErrProviderFailed is returned by providers listed as failing.
var ErrProviderFailed = errors.New("simulated provider failure")

// Providers registers a provider for every non-static property of m.
//
// A property listed in fail errors out. Otherwise a metadata override wins
// over env, and a property absent from both evaluates as unset.
func Providers(m *ir.Manifest, cfg *metadata.Config, env map[string]string, fail []string) *selection.Registry {
	failing := make(map[string]bool, len(fail))
	for _, name := range fail {
		failing[name] = true
	}

	reg := selection.NewRegistry()
	for _, p := range m.Properties {
		if p.IsStatic() {
			continue
		}
		name := p.Name
		if failing[name] {
			reg.Register(name, func() (string, error) {
				return "", fmt.Errorf("%s: %w", name, ErrProviderFailed)
			})
			continue
		}
		var fallback selection.Provider
		if v, ok := env[name]; ok {
			fallback = selection.Static(v)
		}
		reg.Register(name, cfg.Provider(name, fallback))
	}
	return reg
}
