package simhost

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/bootsel/internal/bootstrap"
	"github.com/roach88/bootsel/internal/engine"
	"github.com/roach88/bootsel/internal/ir"
	"github.com/roach88/bootsel/internal/metadata"
)

// Order selects which lifecycle signal is delivered first.
type Order string

const (
	// InjectFirst delivers the injection-done signal before the frame load.
	InjectFirst Order = "inject-first"

	// LoadFirst delivers the frame load before the injection-done signal.
	LoadFirst Order = "load-first"
)

// ParseOrder validates an order name. The empty string means LoadFirst.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "":
		return LoadFirst, nil
	case InjectFirst, LoadFirst:
		return Order(s), nil
	default:
		return "", fmt.Errorf("unknown order %q (want %s or %s)", s, InjectFirst, LoadFirst)
	}
}

// Options configures a simulated host.
type Options struct {
	// Direct makes a development shell available.
	Direct bool

	// ShellFails makes the shell's attach report a load failure.
	ShellFails bool

	// FailStart makes the loaded artifact report an initialization failure.
	FailStart bool

	Metas []metadata.Entry
	Query string
	Order Order
}

// Window is the parent root object bridged into frames.
type Window struct {
	Query string
}

// Document is the parent document bridged into frames.
type Document struct {
	Metas []metadata.Entry
}

// Host is a simulated page.
//
// Thread-safety: Host is safe for concurrent use, though callbacks only run
// on the loop goroutine.
type Host struct {
	loop   *engine.Loop
	opts   Options
	hooks  bootstrap.HookSet
	logger *slog.Logger

	mu          sync.Mutex
	frames      []*Frame
	injected    []ir.Dependency
	pendingLoad func()
	shell       *Shell
}

// New creates a host posting its callbacks to loop.
func New(loop *engine.Loop, opts Options, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Order == "" {
		opts.Order = LoadFirst
	}
	h := &Host{loop: loop, opts: opts, logger: logger}
	if opts.Direct {
		h.shell = &Shell{ok: !opts.ShellFails}
	}
	return h
}

// Shell implements bootstrap.Host.
func (h *Host) Shell() (bootstrap.Shell, bool) {
	if h.shell == nil {
		return nil, false
	}
	return h.shell, true
}

// Metadata implements bootstrap.Host.
func (h *Host) Metadata() []metadata.Entry {
	return append([]metadata.Entry(nil), h.opts.Metas...)
}

// Query implements bootstrap.Host.
func (h *Host) Query() string { return h.opts.Query }

// Window implements bootstrap.Host.
func (h *Host) Window() any { return &Window{Query: h.opts.Query} }

// Document implements bootstrap.Host.
func (h *Host) Document() any { return &Document{Metas: h.Metadata()} }

// Hooks implements bootstrap.Host.
func (h *Host) Hooks() *bootstrap.HookSet { return &h.hooks }

// CreateFrame implements bootstrap.Host.
func (h *Host) CreateFrame(id, src string, onLoad func()) (bootstrap.Frame, error) {
	f := &Frame{
		id:        id,
		src:       src,
		scope:     newScope(),
		loop:      h.loop,
		failStart: h.opts.FailStart,
	}

	h.mu.Lock()
	h.frames = append(h.frames, f)
	h.mu.Unlock()

	h.logger.Debug("frame created", "id", id, "src", src)

	if src == "" || onLoad == nil {
		return f, nil
	}

	load := func() {
		f.markLoaded()
		onLoad()
	}
	if h.opts.Order == InjectFirst {
		h.mu.Lock()
		h.pendingLoad = load
		h.mu.Unlock()
		return f, nil
	}
	if err := h.loop.Post(load); err != nil {
		return nil, fmt.Errorf("post frame load: %w", err)
	}
	return f, nil
}

// Inject implements bootstrap.Host. Each dependency is injected on its own
// loop turn, followed by done and then any frame load held back by
// InjectFirst.
func (h *Host) Inject(deps []ir.Dependency, done func()) error {
	for _, d := range deps {
		d := d
		if err := h.loop.Post(func() {
			h.mu.Lock()
			h.injected = append(h.injected, d)
			h.mu.Unlock()
			h.logger.Debug("dependency injected", "kind", d.Kind, "src", d.Src)
		}); err != nil {
			return fmt.Errorf("post inject %s: %w", d.Src, err)
		}
	}
	if err := h.loop.Post(done); err != nil {
		return fmt.Errorf("post injection done: %w", err)
	}

	h.mu.Lock()
	load := h.pendingLoad
	h.pendingLoad = nil
	h.mu.Unlock()
	if load != nil {
		if err := h.loop.Post(load); err != nil {
			return fmt.Errorf("post frame load: %w", err)
		}
	}
	return nil
}

// Frames returns the frames created so far.
func (h *Host) Frames() []*Frame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Frame(nil), h.frames...)
}

// Injected returns the dependencies injected so far, in order.
func (h *Host) Injected() []ir.Dependency {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ir.Dependency(nil), h.injected...)
}

// Attached returns the modules the shell attached, nil without a shell.
func (h *Host) Attached() []string {
	if h.shell == nil {
		return nil
	}
	return h.shell.Attached()
}

var _ bootstrap.Host = (*Host)(nil)
