package metadata

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Recognized metadata names.
const (
	NameProperty        = "bootsel:property"
	NamePropertyErrorFn = "bootsel:onPropertyErrorFn"
	NameLoadErrorFn     = "bootsel:onLoadErrorFn"
	NameBase            = "bootsel:base"
)

// Entry is one (name, content) metadata pair in document order.
type Entry struct {
	Name    string `yaml:"name" json:"name"`
	Content string `yaml:"content" json:"content"`
}

// Kind identifies a directive.
type Kind string

const (
	KindProperty        Kind = "property"
	KindPropertyErrorFn Kind = "on_property_error"
	KindLoadErrorFn     Kind = "on_load_error"
	KindBase            Kind = "base"
)

// Directive is a parsed configuration entry.
//
// For KindProperty, Key is the property name and Value its override.
// For KindBase, Key is the module name and Value the base path.
// For handler kinds, Value is the handler expression and Key is empty.
type Directive struct {
	Kind  Kind   `json:"kind"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

var (
	// ErrHandlerSyntax is returned for a handler expression that is not a
	// dotted identifier.
	ErrHandlerSyntax = errors.New("malformed handler expression")

	// ErrUnknownHandler is returned when a well-formed expression names no
	// registered handler.
	ErrUnknownHandler = errors.New("unknown handler")
)

// DirectiveError is a configuration error in one metadata entry.
type DirectiveError struct {
	Name    string
	Content string
	Err     error
}

// Error implements the error interface.
func (e *DirectiveError) Error() string {
	return fmt.Sprintf("bad handler %q for %q: %v", e.Content, e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DirectiveError) Unwrap() error {
	return e.Err
}

// Alert returns the user-visible notification for the error.
func (e *DirectiveError) Alert() string {
	return fmt.Sprintf("Bad handler %q for %q", e.Content, e.Name)
}

// Parse converts an entry to a directive.
//
// ok is false for entries that carry no directive: unrecognized names, empty
// content, and base entries without '='. Handler expressions are checked for
// syntax only; resolution happens during ingestion.
func Parse(e Entry) (d Directive, ok bool, err error) {
	switch e.Name {
	case NameProperty:
		if e.Content == "" {
			return Directive{}, false, nil
		}
		name, value := ParseProperty(e.Content)
		return Directive{Kind: KindProperty, Key: name, Value: value}, true, nil

	case NamePropertyErrorFn, NameLoadErrorFn:
		if e.Content == "" {
			return Directive{}, false, nil
		}
		kind := KindPropertyErrorFn
		if e.Name == NameLoadErrorFn {
			kind = KindLoadErrorFn
		}
		if !handlerExpr.MatchString(strings.TrimSpace(e.Content)) {
			return Directive{}, false, &DirectiveError{Name: e.Name, Content: e.Content, Err: ErrHandlerSyntax}
		}
		return Directive{Kind: kind, Value: strings.TrimSpace(e.Content)}, true, nil

	case NameBase:
		path, module, found := ParseBase(e.Content)
		if !found {
			return Directive{}, false, nil
		}
		return Directive{Kind: KindBase, Key: module, Value: path}, true, nil

	default:
		return Directive{}, false, nil
	}
}

// ParseProperty splits "name=value" on the first '='.
// Content without '=' names a property with an empty value.
func ParseProperty(content string) (name, value string) {
	if i := strings.IndexByte(content, '='); i >= 0 {
		return content[:i], content[i+1:]
	}
	return content, ""
}

// ParseBase splits "path=module" on the last '='.
// found is false when content has no '='.
func ParseBase(content string) (path, module string, found bool) {
	i := strings.LastIndexByte(content, '=')
	if i < 0 {
		return "", "", false
	}
	return content[:i], content[i+1:], true
}

// handlerExpr matches dotted identifiers such as "onError" or "app.errors.onLoad".
var handlerExpr = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)
