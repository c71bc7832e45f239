package bootstrap

import (
	"log/slog"
	"sync"

	"github.com/roach88/bootsel/internal/engine"
	"github.com/roach88/bootsel/internal/metadata"
	"github.com/roach88/bootsel/internal/report"
)

// Context is the page-load scoped state shared by the bootstraps of one
// document.
type Context struct {
	Config   *metadata.Config
	Resolver metadata.Resolver
	Notifier report.Notifier
	Clock    *engine.Clock
	IDs      engine.IDGenerator
	Tracer   Tracer
	Logger   *slog.Logger

	mu       sync.Mutex
	ingested bool
	summary  metadata.Summary
}

// NewContext creates a page-load context. Nil fields are filled with
// defaults: a fresh Config and Clock, UUIDv7 IDs, no tracing and
// slog.Default().
func NewContext(notifier report.Notifier, resolver metadata.Resolver) *Context {
	c := &Context{Notifier: notifier, Resolver: resolver}
	c.fill()
	return c
}

func (c *Context) fill() {
	if c.Config == nil {
		c.Config = metadata.NewConfig()
	}
	if c.Clock == nil {
		c.Clock = engine.NewClock()
	}
	if c.IDs == nil {
		c.IDs = engine.UUIDv7Generator{}
	}
	if c.Tracer == nil {
		c.Tracer = nopTracer{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// ingest processes the document metadata once per page load. Later
// bootstraps on the same page reuse the first summary.
func (c *Context) ingest(entries []metadata.Entry) (metadata.Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ingested {
		return c.summary, false
	}
	in := metadata.NewIngestor(c.Config, c.Resolver, c.Notifier, metadata.WithLogger(c.Logger))
	c.summary = in.Ingest(entries)
	c.ingested = true
	return c.summary, true
}

// Navigate resets the context for a new page load.
func (c *Context) Navigate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Config.Reset()
	c.ingested = false
	c.summary = metadata.Summary{}
}
