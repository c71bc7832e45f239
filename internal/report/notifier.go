package report

import (
	"fmt"
	"io"
	"sync"
)

// Notifier shows a blocking, user-visible notification.
type Notifier interface {
	Alert(msg string)
}

// WriterNotifier writes alerts to an io.Writer, one per line.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a notifier that writes to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Alert implements Notifier.
func (n *WriterNotifier) Alert(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "ALERT: %s\n", msg)
}

// Recorder collects alerts in memory. Used by the simulated host and tests.
type Recorder struct {
	mu   sync.Mutex
	msgs []string
}

// Alert implements Notifier.
func (r *Recorder) Alert(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

// Messages returns a copy of the recorded alerts in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

// Len returns the number of recorded alerts.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}
