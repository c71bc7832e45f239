package bootstrap

import (
	"sync"

	"github.com/roach88/bootsel/internal/ir"
)

// Tracer receives bootstrap trace events in seq order.
type Tracer interface {
	Trace(ev ir.TraceEvent)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(ev ir.TraceEvent)

// Trace implements Tracer.
func (f TracerFunc) Trace(ev ir.TraceEvent) { f(ev) }

// TraceRecorder collects trace events in memory.
type TraceRecorder struct {
	mu     sync.Mutex
	events []ir.TraceEvent
}

// Trace implements Tracer.
func (r *TraceRecorder) Trace(ev ir.TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns the recorded events.
func (r *TraceRecorder) Events() []ir.TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ir.TraceEvent(nil), r.events...)
}

// For returns the events of one bootstrap.
func (r *TraceRecorder) For(bootstrapID string) []ir.TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ir.TraceEvent
	for _, ev := range r.events {
		if ev.BootstrapID == bootstrapID {
			out = append(out, ev)
		}
	}
	return out
}

type nopTracer struct{}

func (nopTracer) Trace(ir.TraceEvent) {}
