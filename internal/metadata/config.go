package metadata

import (
	"sync"

	"github.com/roach88/bootsel/internal/report"
	"github.com/roach88/bootsel/internal/selection"
)

// Config is the configuration state of one page load.
//
// It holds metadata property overrides, per-module base paths, the
// user-registered error handlers and the set of dependency URLs already
// injected. Bootstraps of different modules on the same page share one
// Config; Reset clears it on navigation.
//
// Thread-safety: Config is safe for concurrent use.
type Config struct {
	mu              sync.RWMutex
	props           map[string]string
	bases           map[string]string
	onPropertyError report.PropertyErrorHandler
	onLoadError     report.LoadErrorHandler
	loaded          map[string]bool
}

// NewConfig creates empty page-load state.
func NewConfig() *Config {
	c := &Config{}
	c.Reset()
	return c
}

// Reset discards all state.
func (c *Config) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.props = make(map[string]string)
	c.bases = make(map[string]string)
	c.loaded = make(map[string]bool)
	c.onPropertyError = nil
	c.onLoadError = nil
}

// MetaProperty returns the metadata override for a property.
// An empty override reads as absent.
func (c *Config) MetaProperty(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := c.props[name]
	return v, v != ""
}

// SetMetaProperty records a property override. Later entries win.
func (c *Config) SetMetaProperty(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.props[name] = value
}

// BasePath returns the base path override for module.
func (c *Config) BasePath(module string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.bases[module]
	return v, ok
}

// SetBasePath records a base path for module.
func (c *Config) SetBasePath(module, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bases[module] = path
}

// PropertyErrorHandler implements report.HandlerSource.
func (c *Config) PropertyErrorHandler() report.PropertyErrorHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onPropertyError
}

// LoadErrorHandler implements report.HandlerSource.
func (c *Config) LoadErrorHandler() report.LoadErrorHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onLoadError
}

// SetPropertyErrorHandler registers the bad property handler.
func (c *Config) SetPropertyErrorHandler(h report.PropertyErrorHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPropertyError = h
}

// SetLoadErrorHandler registers the bad load handler.
func (c *Config) SetLoadErrorHandler(h report.LoadErrorHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLoadError = h
}

// MarkLoaded records a dependency URL as injected. It returns false when the
// URL was already injected during this page load.
func (c *Config) MarkLoaded(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded[url] {
		return false
	}
	c.loaded[url] = true
	return true
}

// Provider wraps fallback so that a metadata override for name, when
// present, is returned instead of the computed value. With a nil fallback an
// absent override yields selection.ErrUnset.
func (c *Config) Provider(name string, fallback selection.Provider) selection.Provider {
	return func() (string, error) {
		if v, ok := c.MetaProperty(name); ok {
			return v, nil
		}
		if fallback == nil {
			return "", selection.ErrUnset
		}
		return fallback()
	}
}

var _ report.HandlerSource = (*Config)(nil)
