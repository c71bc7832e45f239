package bootstrap

import (
	"github.com/roach88/bootsel/internal/ir"
	"github.com/roach88/bootsel/internal/metadata"
)

// Scope is the global scope of a nested frame.
type Scope interface {
	Set(name string, value any)
	Get(name string) (any, bool)
}

// Frame is a nested execution context created by the host.
type Frame interface {
	// Global returns the frame's global scope.
	Global() Scope

	// Start invokes the loaded artifact's entry point. The artifact calls
	// onFailure if it cannot initialize.
	Start(onFailure func(), module string)
}

// Shell is the development shell used in direct-attach mode.
type Shell interface {
	// Attach hands the frame scope to the shell. It returns false when the
	// module failed to load.
	Attach(scope Scope, module string) bool
}

// Host is the environment a bootstrap runs in.
//
// Completion callbacks (onLoad, done) may be invoked at any later point and
// in any order relative to each other, but never concurrently with another
// bootstrap callback.
type Host interface {
	// Shell reports whether a development shell is available.
	Shell() (Shell, bool)

	// Metadata returns the document's <meta> entries in document order.
	Metadata() []metadata.Entry

	// Query returns the page query string including its leading '?'.
	Query() string

	// Window and Document return the parent's root objects for bridging.
	Window() any
	Document() any

	// CreateFrame creates a nested frame. An empty src creates an empty
	// frame; otherwise src is loaded and onLoad is called once it has loaded.
	CreateFrame(id, src string, onLoad func()) (Frame, error)

	// Inject loads the dependency resources in order and calls done once
	// all of them have been injected. done is called even for an empty list.
	Inject(deps []ir.Dependency, done func()) error

	// Hooks returns the host's resize and unload hooks.
	Hooks() *HookSet
}

// Names installed into a frame's global scope.
const (
	ScopeWindow      = "$wnd"
	ScopeDocument    = "$doc"
	ScopeGetProperty = "__bootsel_getProperty"
)

// GetPropertyFunc is the property lookup installed into a frame scope.
type GetPropertyFunc func(name string) (string, bool)
