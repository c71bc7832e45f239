package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrLoopClosed is returned by Post after Close.
var ErrLoopClosed = errors.New("loop closed")

// Loop runs posted callbacks one at a time, in FIFO order.
//
// The queue is unbounded so a callback may post further callbacks without
// blocking. Post is safe from any goroutine; callbacks only ever run on the
// goroutine calling Run or Drain, never concurrently.
//
// The queue uses a buffered signal channel so Run can wait for work and
// for context cancellation in the same select.
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool
	signal chan struct{} // buffered, size 1
	logger *slog.Logger
}

// NewLoop creates an empty loop. A nil logger means slog.Default().
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		tasks:  make([]func(), 0, 16),
		signal: make(chan struct{}, 1),
		logger: logger,
	}
}

// Post queues fn to run after every callback already queued.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLoopClosed
	}
	l.tasks = append(l.tasks, fn)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case l.signal <- struct{}{}:
	default:
	}
	return nil
}

// Len returns the number of queued callbacks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) == 0 {
		return nil, false
	}
	fn := l.tasks[0]
	l.tasks[0] = nil
	if len(l.tasks) == 1 {
		l.tasks = l.tasks[:0]
	} else {
		l.tasks = l.tasks[1:]
	}
	return fn, true
}

// Drain runs queued callbacks, including any they post, until the queue is
// empty. It returns the number of callbacks run.
func (l *Loop) Drain() int {
	n := 0
	for {
		fn, ok := l.next()
		if !ok {
			return n
		}
		l.run(fn)
		n++
	}
}

// Run processes callbacks until ctx is cancelled or the loop is closed and
// empty.
//
// A panicking callback is logged and the loop continues. There is no retry:
// the failed callback is dropped.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("loop starting")

	for {
		if fn, ok := l.next(); ok {
			l.run(fn)
			continue
		}

		select {
		case <-ctx.Done():
			l.logger.Debug("loop stopping: context cancelled")
			l.Close()
			return ctx.Err()

		case _, open := <-l.signal:
			// A closed signal channel fires immediately; stop once drained.
			if !open && l.Len() == 0 {
				l.logger.Debug("loop stopping: closed")
				return nil
			}
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error("loop callback panicked", "panic", rec)
		}
	}()
	fn()
}

// Close stops accepting callbacks. Queued callbacks still run.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	close(l.signal)
}
