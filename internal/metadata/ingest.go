package metadata

import (
	"errors"
	"log/slog"

	"github.com/roach88/bootsel/internal/report"
)

// Resolver turns handler expressions into callables.
type Resolver interface {
	ResolvePropertyErrorHandler(expr string) (report.PropertyErrorHandler, bool)
	ResolveLoadErrorHandler(expr string) (report.LoadErrorHandler, bool)
}

// HandlerTable is a Resolver backed by named handlers.
type HandlerTable struct {
	Property map[string]report.PropertyErrorHandler
	Load     map[string]report.LoadErrorHandler
}

// ResolvePropertyErrorHandler implements Resolver.
func (t *HandlerTable) ResolvePropertyErrorHandler(expr string) (report.PropertyErrorHandler, bool) {
	h, ok := t.Property[expr]
	return h, ok && h != nil
}

// ResolveLoadErrorHandler implements Resolver.
func (t *HandlerTable) ResolveLoadErrorHandler(expr string) (report.LoadErrorHandler, bool) {
	h, ok := t.Load[expr]
	return h, ok && h != nil
}

var _ Resolver = (*HandlerTable)(nil)

// Summary describes one ingestion pass.
type Summary struct {
	// Applied lists the directives written to the Config, in document order.
	Applied []Directive

	// Errors lists the malformed directives. Each one has already been
	// alerted.
	Errors []*DirectiveError
}

// Ingestor applies metadata entries to a Config.
type Ingestor struct {
	config   *Config
	resolver Resolver
	notifier report.Notifier
	logger   *slog.Logger
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) IngestorOption {
	return func(in *Ingestor) {
		in.logger = l
	}
}

// NewIngestor creates an ingestor writing to cfg. resolver may be nil, in
// which case every handler directive is reported as unknown.
func NewIngestor(cfg *Config, resolver Resolver, notifier report.Notifier, opts ...IngestorOption) *Ingestor {
	in := &Ingestor{
		config:   cfg,
		resolver: resolver,
		notifier: notifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Ingest processes entries in order.
//
// Configuration errors are alerted through the notifier as they are found
// and ingestion continues with the next entry.
func (in *Ingestor) Ingest(entries []Entry) Summary {
	var sum Summary
	for _, e := range entries {
		d, ok, err := Parse(e)
		if err == nil && ok {
			err = in.apply(e, d)
		}
		if err != nil {
			var de *DirectiveError
			if !errors.As(err, &de) {
				de = &DirectiveError{Name: e.Name, Content: e.Content, Err: err}
			}
			in.logger.Warn("bad metadata directive", "name", e.Name, "content", e.Content, "error", de.Err)
			in.notifier.Alert(de.Alert())
			sum.Errors = append(sum.Errors, de)
			continue
		}
		if !ok {
			continue
		}
		in.logger.Debug("metadata directive applied", "kind", d.Kind, "key", d.Key, "value", d.Value)
		sum.Applied = append(sum.Applied, d)
	}
	return sum
}

func (in *Ingestor) apply(e Entry, d Directive) error {
	switch d.Kind {
	case KindProperty:
		in.config.SetMetaProperty(d.Key, d.Value)

	case KindBase:
		in.config.SetBasePath(d.Key, d.Value)

	case KindPropertyErrorFn:
		var h report.PropertyErrorHandler
		ok := false
		if in.resolver != nil {
			h, ok = in.resolver.ResolvePropertyErrorHandler(d.Value)
		}
		if !ok {
			return &DirectiveError{Name: e.Name, Content: e.Content, Err: ErrUnknownHandler}
		}
		in.config.SetPropertyErrorHandler(h)

	case KindLoadErrorFn:
		var h report.LoadErrorHandler
		ok := false
		if in.resolver != nil {
			h, ok = in.resolver.ResolveLoadErrorHandler(d.Value)
		}
		if !ok {
			return &DirectiveError{Name: e.Name, Content: e.Content, Err: ErrUnknownHandler}
		}
		in.config.SetLoadErrorHandler(h)
	}
	return nil
}
