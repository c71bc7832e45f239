package report

import (
	"fmt"
	"log/slog"
	"strings"
)

// PropertyErrorHandler receives bad property reports.
// value is empty when the property was not specified.
type PropertyErrorHandler func(name string, allowed []string, value string)

// LoadErrorHandler receives bad load reports for a module.
type LoadErrorHandler func(module string)

// HandlerSource supplies user-registered handlers. Either method may return
// nil when no override is registered.
//
// The source is consulted at report time, not at construction, so handlers
// registered after the Reporter is built still take effect.
type HandlerSource interface {
	PropertyErrorHandler() PropertyErrorHandler
	LoadErrorHandler() LoadErrorHandler
}

// Delivery records how a report was delivered.
type Delivery string

const (
	// DeliveredHandler means a user handler took the report.
	DeliveredHandler Delivery = "handler"

	// DeliveredAlert means the default notification was shown.
	DeliveredAlert Delivery = "alert"
)

// Reporter delivers failure reports for one module.
type Reporter struct {
	module   string
	handlers HandlerSource
	notifier Notifier
	logger   *slog.Logger
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Reporter) {
		r.logger = l
	}
}

// NewReporter creates a reporter for module. handlers may be nil.
func NewReporter(module string, handlers HandlerSource, notifier Notifier, opts ...Option) *Reporter {
	r := &Reporter{
		module:   module,
		handlers: handlers,
		notifier: notifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BadProperty reports a property value with no matching permutation.
// unset means the property had no value; value is ignored in that case.
func (r *Reporter) BadProperty(name string, allowed []string, value string, unset bool) Delivery {
	r.logger.Warn("bad property value",
		"module", r.module,
		"property", name,
		"value", value,
		"unset", unset,
		"allowed", allowed,
	)

	if h := r.propertyHandler(); h != nil {
		if unset {
			value = ""
		}
		h(name, allowed, value)
		return DeliveredHandler
	}

	r.notifier.Alert(BadPropertyMessage(r.module, name, allowed, value, unset))
	return DeliveredAlert
}

// BadLoad reports that the module failed to initialize.
func (r *Reporter) BadLoad() Delivery {
	r.logger.Warn("module failed to load", "module", r.module)

	if h := r.loadHandler(); h != nil {
		h(r.module)
		return DeliveredHandler
	}

	r.notifier.Alert(BadLoadMessage(r.module))
	return DeliveredAlert
}

func (r *Reporter) propertyHandler() PropertyErrorHandler {
	if r.handlers == nil {
		return nil
	}
	return r.handlers.PropertyErrorHandler()
}

func (r *Reporter) loadHandler() LoadErrorHandler {
	if r.handlers == nil {
		return nil
	}
	return r.handlers.LoadErrorHandler()
}

// BadPropertyMessage formats the default bad property notification.
func BadPropertyMessage(module, name string, allowed []string, value string, unset bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "While attempting to load module %q, ", module)
	if unset {
		fmt.Fprintf(&b, "property %q was not specified.", name)
	} else {
		fmt.Fprintf(&b, "property %q was set to the unexpected value %q.", name, value)
	}
	fmt.Fprintf(&b, " Allowed values: %s", strings.Join(allowed, ","))
	return b.String()
}

// BadLoadMessage formats the default bad load notification.
func BadLoadMessage(module string) string {
	return fmt.Sprintf("Failed to load module %q. Please see the log in the development shell for details.", module)
}
