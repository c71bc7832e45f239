package selection

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnset is returned by a provider when the property has no value in the
// current environment.
var ErrUnset = errors.New("property value unset")

// BadPropertyError reports a property value with no matching permutation.
type BadPropertyError struct {
	// Property is the property being evaluated.
	Property string

	// Allowed lists the values accepted at this point of the selection.
	Allowed []string

	// Value is the offending value. Empty when Unset is true.
	Value string

	// Unset is true when the provider returned no value.
	Unset bool
}

// Error implements the error interface.
func (e *BadPropertyError) Error() string {
	if e.Unset {
		return fmt.Sprintf("property %q was not specified (allowed: %s)",
			e.Property, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("property %q has unexpected value %q (allowed: %s)",
		e.Property, e.Value, strings.Join(e.Allowed, ", "))
}

// ProviderError wraps a provider failure. Err holds the returned error or a
// description of the recovered panic.
type ProviderError struct {
	Property string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider for %q failed: %v", e.Property, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsBadProperty reports whether err is a bad property value error.
// Uses errors.As to handle wrapped errors.
func IsBadProperty(err error) bool {
	var bp *BadPropertyError
	return errors.As(err, &bp)
}

// IsProviderFailure reports whether err came from a failing provider.
// Uses errors.As to handle wrapped errors.
func IsProviderFailure(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
