package simhost

import (
	"sync"

	"github.com/roach88/bootsel/internal/bootstrap"
	"github.com/roach88/bootsel/internal/engine"
)

// Scope is a map-backed frame scope.
type Scope struct {
	mu   sync.RWMutex
	vars map[string]any
}

func newScope() *Scope {
	return &Scope{vars: make(map[string]any)}
}

// Set implements bootstrap.Scope.
func (s *Scope) Set(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = value
}

// Get implements bootstrap.Scope.
func (s *Scope) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

// Frame is a simulated nested frame.
type Frame struct {
	id        string
	src       string
	scope     *Scope
	loop      *engine.Loop
	failStart bool

	mu      sync.Mutex
	loaded  bool
	starts  int
	modules []string
}

// ID returns the frame id.
func (f *Frame) ID() string { return f.id }

// Src returns the loaded resource, empty for direct-attach frames.
func (f *Frame) Src() string { return f.src }

// Global implements bootstrap.Frame.
func (f *Frame) Global() bootstrap.Scope { return f.scope }

// Start implements bootstrap.Frame. A failing artifact reports back on a
// later loop turn.
func (f *Frame) Start(onFailure func(), module string) {
	f.mu.Lock()
	f.starts++
	f.modules = append(f.modules, module)
	f.mu.Unlock()

	if f.failStart && onFailure != nil {
		_ = f.loop.Post(onFailure)
	}
}

// Starts returns how many times the entry point was invoked.
func (f *Frame) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// Loaded reports whether the frame's resource finished loading.
func (f *Frame) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

func (f *Frame) markLoaded() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = true
}

// Shell is a simulated development shell.
type Shell struct {
	ok bool

	mu       sync.Mutex
	attached []string
}

// Attach implements bootstrap.Shell.
func (s *Shell) Attach(scope bootstrap.Scope, module string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = append(s.attached, module)
	return s.ok
}

// Attached returns the attached modules.
func (s *Shell) Attached() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.attached...)
}
