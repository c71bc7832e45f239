package engine

import (
	"log/slog"
	"sync"
)

// State is the lifecycle state of one bootstrap.
type State int

const (
	// StateIdle: loading has not begun.
	StateIdle State = iota

	// StateResourcesPending: waiting for injection, load, or both.
	StateResourcesPending

	// StateReady: both signals arrived. Transient; the coordinator moves
	// straight on to StateStarted.
	StateReady

	// StateStarted: the start action was invoked. Terminal.
	StateStarted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResourcesPending:
		return "resources_pending"
	case StateReady:
		return "ready"
	case StateStarted:
		return "started"
	default:
		return "unknown"
	}
}

// Lifecycle is a snapshot of the coordinator flags. Every flag only ever
// moves from false to true.
type Lifecycle struct {
	InjectionDone bool
	LoadDone      bool
	Started       bool
}

// Coordinator starts an artifact exactly once after two independent
// completions: dependency injection and artifact load.
//
// The signals may arrive in either order and may repeat. Whichever call
// completes the pair runs the start action; every call after that is a
// no-op.
//
// Thread-safety: Coordinator is safe for concurrent use.
type Coordinator struct {
	mu      sync.Mutex
	flags   Lifecycle
	begun   bool
	start   func()
	observe func(State)
	logger  *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithObserver registers fn to be called on every state transition.
// fn runs outside the coordinator lock.
func WithObserver(fn func(State)) CoordinatorOption {
	return func(c *Coordinator) {
		c.observe = fn
	}
}

// WithCoordinatorLogger sets the logger. Defaults to slog.Default().
func WithCoordinatorLogger(l *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// NewCoordinator creates a coordinator that invokes start exactly once.
func NewCoordinator(start func(), opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		start:  start,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin records that loading has started. Idempotent.
func (c *Coordinator) Begin() {
	c.mu.Lock()
	if c.begun || c.flags.InjectionDone || c.flags.LoadDone {
		c.begun = true
		c.mu.Unlock()
		return
	}
	c.begun = true
	c.mu.Unlock()

	c.notify(StateResourcesPending)
}

// MarkInjectionDone records that every dependency resource was injected.
// It reports whether this call started the artifact.
func (c *Coordinator) MarkInjectionDone() bool {
	return c.mark(func(l *Lifecycle) *bool { return &l.InjectionDone }, "injection")
}

// MarkLoadDone records that the artifact payload finished loading.
// It reports whether this call started the artifact.
func (c *Coordinator) MarkLoadDone() bool {
	return c.mark(func(l *Lifecycle) *bool { return &l.LoadDone }, "load")
}

func (c *Coordinator) mark(flag func(*Lifecycle) *bool, signal string) bool {
	c.mu.Lock()
	if c.flags.Started {
		c.mu.Unlock()
		c.logger.Debug("lifecycle signal ignored after start", "signal", signal)
		return false
	}

	f := flag(&c.flags)
	if *f {
		c.mu.Unlock()
		c.logger.Debug("lifecycle signal repeated", "signal", signal)
		return false
	}
	*f = true

	first := !c.begun
	c.begun = true
	ready := c.flags.InjectionDone && c.flags.LoadDone
	if ready {
		c.flags.Started = true
	}
	c.mu.Unlock()

	c.logger.Debug("lifecycle signal", "signal", signal, "ready", ready)

	if !ready {
		if first {
			c.notify(StateResourcesPending)
		}
		return false
	}

	c.notify(StateReady)
	c.notify(StateStarted)
	if c.start != nil {
		c.start()
	}
	return true
}

func (c *Coordinator) notify(s State) {
	if c.observe != nil {
		c.observe(s)
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.flags.Started:
		return StateStarted
	case c.flags.InjectionDone && c.flags.LoadDone:
		return StateReady
	case c.begun:
		return StateResourcesPending
	default:
		return StateIdle
	}
}

// Snapshot returns the current flags.
func (c *Coordinator) Snapshot() Lifecycle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags
}
