package simhost

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/bootsel/internal/bootstrap"
	"github.com/roach88/bootsel/internal/engine"
	"github.com/roach88/bootsel/internal/ir"
	"github.com/roach88/bootsel/internal/metadata"
	"github.com/roach88/bootsel/internal/report"
)

// Params describes one simulated page load.
type Params struct {
	Options

	// Env holds the computed property values.
	Env map[string]string

	// Fail lists properties whose provider fails.
	Fail []string

	// Handlers names the handler expressions the page defines. Each one
	// records its calls in Result.HandlerCalls.
	Handlers []string

	// IDs generates bootstrap IDs. Defaults to UUIDv7.
	IDs engine.IDGenerator

	// Notifier receives alerts in addition to the recorded copy.
	Notifier report.Notifier

	// Clock stamps trace events. Defaults to a fresh clock.
	Clock *engine.Clock

	Logger *slog.Logger
}

// Result is the settled state of a simulated page load.
type Result struct {
	Record       ir.BootstrapRecord
	Events       []ir.TraceEvent
	Alerts       []string
	HandlerCalls []string
	Starts       int
	Lifecycle    engine.Lifecycle
	Injected     []ir.Dependency
}

// Simulate bootstraps m on a fresh simulated page and runs the loop until
// no callbacks remain.
func Simulate(m *ir.Manifest, p Params) (*Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	alerts := &report.Recorder{}
	var notifier report.Notifier = alerts
	if p.Notifier != nil {
		notifier = teeNotifier{alerts, p.Notifier}
	}

	calls := &callLog{}
	trace := &bootstrap.TraceRecorder{}

	ctx := bootstrap.NewContext(notifier, calls.table(p.Handlers))
	ctx.Tracer = trace
	ctx.Logger = logger
	if p.IDs != nil {
		ctx.IDs = p.IDs
	}
	if p.Clock != nil {
		ctx.Clock = p.Clock
	}

	loop := engine.NewLoop(logger)
	host := New(loop, p.Options, logger)
	registry := Providers(m, ctx.Config, p.Env, p.Fail)

	b, err := bootstrap.New(m, registry, host, ctx)
	if err != nil {
		return nil, err
	}
	if _, err := b.Run(); err != nil {
		return nil, err
	}
	loop.Drain()
	loop.Close()

	res := &Result{
		Record:       b.Record(),
		Events:       trace.Events(),
		Alerts:       alerts.Messages(),
		HandlerCalls: calls.entries(),
		Lifecycle:    b.Lifecycle(),
		Injected:     host.Injected(),
	}
	for _, f := range host.Frames() {
		res.Starts += f.Starts()
	}
	return res, nil
}

type teeNotifier []report.Notifier

func (t teeNotifier) Alert(msg string) {
	for _, n := range t {
		n.Alert(msg)
	}
}

// callLog records calls to named page handlers.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, s)
}

func (c *callLog) entries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *callLog) table(names []string) *metadata.HandlerTable {
	t := &metadata.HandlerTable{
		Property: make(map[string]report.PropertyErrorHandler, len(names)),
		Load:     make(map[string]report.LoadErrorHandler, len(names)),
	}
	for _, name := range names {
		name := name
		t.Property[name] = func(prop string, allowed []string, value string) {
			c.add(fmt.Sprintf("%s(%s, [%s], %q)", name, prop, strings.Join(allowed, ","), value))
		}
		t.Load[name] = func(module string) {
			c.add(fmt.Sprintf("%s(%s)", name, module))
		}
	}
	return t
}
