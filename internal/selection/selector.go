package selection

import (
	"log/slog"

	"github.com/roach88/bootsel/internal/ir"
)

// Result is a successful selection.
type Result struct {
	ArtifactID string

	// Values holds the evaluated value of every property, in table order.
	Values []string
}

// StepFunc observes each property as it is resolved.
type StepFunc func(property, value string, static bool)

// Selector evaluates a Table against live property values.
//
// Properties are evaluated one at a time in declaration order, and only up
// to the first failure. Nothing is memoized between calls to Select:
// providers may be reconfigured between selections and are always re-run.
type Selector struct {
	table    *Table
	registry *Registry
	logger   *slog.Logger
	onStep   StepFunc
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) SelectorOption {
	return func(s *Selector) {
		s.logger = l
	}
}

// WithStepFunc registers a callback invoked after each property resolves.
func WithStepFunc(fn StepFunc) SelectorOption {
	return func(s *Selector) {
		s.onStep = fn
	}
}

// NewSelector creates a selector over table using registry's providers.
func NewSelector(table *Table, registry *Registry, opts ...SelectorOption) *Selector {
	s := &Selector{
		table:    table,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select resolves exactly one artifact ID or fails.
//
// Failures:
//   - *BadPropertyError: a value (or an unset value) has no branch at its
//     level of the table. Allowed holds the keys present at that node.
//   - *ProviderError: a provider returned an error or panicked. No artifact
//     is resolved.
//
// Values resolved by an earlier call are discarded first, so after a failure
// Registry.Lookup only reports properties evaluated before it.
func (s *Selector) Select() (Result, error) {
	s.registry.forget()
	c := s.table.Cursor()
	values := make([]string, 0, len(s.table.props))

	for !c.Done() {
		prop := c.Property()

		value, err := s.evaluate(prop)
		if err == ErrUnset {
			return Result{}, &BadPropertyError{
				Property: prop.Name,
				Allowed:  c.Allowed(),
				Unset:    true,
			}
		}
		if err != nil {
			s.logger.Debug("property provider failed", "property", prop.Name, "error", err)
			return Result{}, err
		}

		s.logger.Debug("property evaluated",
			"property", prop.Name,
			"value", value,
			"static", prop.IsStatic(),
		)
		if s.onStep != nil {
			s.onStep(prop.Name, value, prop.IsStatic())
		}

		next, err := c.Next(value)
		if err != nil {
			return Result{}, err
		}
		c = next
		values = append(values, value)
	}

	artifact, err := c.Artifact()
	if err != nil {
		return Result{}, err
	}
	return Result{ArtifactID: artifact, Values: values}, nil
}

func (s *Selector) evaluate(prop ir.PropertyDecl) (string, error) {
	if prop.IsStatic() {
		s.registry.remember(prop.Name, prop.Static)
		return prop.Static, nil
	}
	return s.registry.Evaluate(prop.Name)
}
