package selection

import (
	"errors"
	"fmt"
	"sync"
)

// Provider computes a property's current value.
//
// Providers must return the same value for the same environment within one
// page load. Return ErrUnset when the environment has no value; any other
// error (or a panic) marks the environment as unsupported.
type Provider func() (string, error)

// Static returns a provider that always yields value.
func Static(value string) Provider {
	return func() (string, error) { return value, nil }
}

// Registry holds the providers of one bootstrap.
//
// Thread-safety: Registry is safe for concurrent use. Providers themselves are
// invoked without holding the lock.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	resolved  map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		resolved:  make(map[string]string),
	}
}

// Register adds or replaces the provider for name.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// Has reports whether a provider is registered for name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// Evaluate invokes the provider for name exactly once.
//
// A missing provider is reported as a *ProviderError, as is a panic inside the
// provider. ErrUnset is returned unwrapped so callers can report the property
// as unspecified.
func (r *Registry) Evaluate(name string) (value string, err error) {
	r.mu.RLock()
	p, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return "", &ProviderError{Property: name, Err: fmt.Errorf("no provider registered")}
	}

	defer func() {
		if rec := recover(); rec != nil {
			value = ""
			err = &ProviderError{Property: name, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	value, err = p()
	if errors.Is(err, ErrUnset) {
		return "", ErrUnset
	}
	if err != nil {
		return "", &ProviderError{Property: name, Err: err}
	}
	r.remember(name, value)
	return value, nil
}

// EvaluateAll evaluates the named properties in order and returns their
// values. When allowed is non-nil, a value outside allowed[name] stops
// evaluation with a *BadPropertyError and later providers are not called.
func (r *Registry) EvaluateAll(order []string, allowed map[string][]string) ([]string, error) {
	values := make([]string, 0, len(order))
	for _, name := range order {
		v, err := r.Evaluate(name)
		if err == ErrUnset {
			return values, &BadPropertyError{Property: name, Allowed: allowed[name], Unset: true}
		}
		if err != nil {
			return values, err
		}
		if allowed != nil && !contains(allowed[name], v) {
			return values, &BadPropertyError{Property: name, Allowed: allowed[name], Value: v}
		}
		values = append(values, v)
	}
	return values, nil
}

// Lookup returns the value resolved for name by the latest selection.
// This is the property lookup exposed to a loaded artifact.
func (r *Registry) Lookup(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.resolved[name]
	return v, ok
}

// Resolved returns a copy of every value resolved so far.
func (r *Registry) Resolved() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.resolved))
	for k, v := range r.resolved {
		out[k] = v
	}
	return out
}

func (r *Registry) remember(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved[name] = value
}

// forget drops every resolved value so Lookup only reflects the current
// selection.
func (r *Registry) forget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.resolved)
}

func contains(values []string, v string) bool {
	for _, a := range values {
		if a == v {
			return true
		}
	}
	return false
}
