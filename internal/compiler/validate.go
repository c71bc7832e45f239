package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/bootsel/internal/ir"
)

// Validation error codes (E120-E139)
const (
	ErrModuleNameEmpty      = "E120" // module name is required
	ErrInvalidPropertyName  = "E121" // property name is not an identifier
	ErrDuplicateProperty    = "E122" // property declared twice
	ErrNoAllowedValues      = "E123" // property has an empty allowed set
	ErrStaticNotAllowed     = "E124" // static value outside the allowed set
	ErrTupleArity           = "E125" // tuple length differs from property count
	ErrValueNotAllowed      = "E126" // tuple value outside the allowed set
	ErrDuplicateTuple       = "E127" // two permutations share a tuple
	ErrArtifactIDEmpty      = "E128" // permutation has no artifact ID
	ErrSinglePermutation    = "E129" // property-less module needs exactly one permutation
	ErrDependencySrcEmpty   = "E130" // script/style with no source
	ErrDuplicateAllowedName = "E131" // allowed value listed twice
)

// propertyNamePattern matches dotted identifiers such as "user.agent".
var propertyNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidationError represents a manifest validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled manifest and returns all errors found.
// It does not fail fast.
func Validate(m *ir.Manifest) []ValidationError {
	var errs []ValidationError

	// E120: module name
	if strings.TrimSpace(m.Module) == "" {
		errs = append(errs, ValidationError{
			Field:   "module",
			Message: "module name is required and must be non-empty",
			Code:    ErrModuleNameEmpty,
		})
	}

	errs = append(errs, validateProperties(m.Properties)...)
	errs = append(errs, validatePermutations(m)...)

	for i, dep := range m.Dependencies() {
		// E130: dependency source
		if strings.TrimSpace(dep.Src) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("dependencies[%d].src", i),
				Message: fmt.Sprintf("%s dependency has an empty source", dep.Kind),
				Code:    ErrDependencySrcEmpty,
			})
		}
	}

	return errs
}

func validateProperties(props []ir.PropertyDecl) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)

	for i, p := range props {
		field := fmt.Sprintf("properties[%d]", i)

		// E121: property name
		if !propertyNamePattern.MatchString(p.Name) {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("invalid property name %q", p.Name),
				Code:    ErrInvalidPropertyName,
			})
		}

		// E122: duplicate property
		if seen[p.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate property: %q", p.Name),
				Code:    ErrDuplicateProperty,
			})
		}
		seen[p.Name] = true

		// E123: allowed values
		if len(p.Allowed) == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".allowed",
				Message: fmt.Sprintf("property %q has no allowed values", p.Name),
				Code:    ErrNoAllowedValues,
			})
		}

		// E131: allowed values are a set
		values := make(map[string]bool, len(p.Allowed))
		for _, v := range p.Allowed {
			if values[v] {
				errs = append(errs, ValidationError{
					Field:   field + ".allowed",
					Message: fmt.Sprintf("value %q listed twice for property %q", v, p.Name),
					Code:    ErrDuplicateAllowedName,
				})
			}
			values[v] = true
		}

		// E124: static value must be allowed
		if p.IsStatic() && !p.Permits(p.Static) {
			errs = append(errs, ValidationError{
				Field:   field + ".value",
				Message: fmt.Sprintf("static value %q is not an allowed value of %q", p.Static, p.Name),
				Code:    ErrStaticNotAllowed,
			})
		}
	}

	return errs
}

func validatePermutations(m *ir.Manifest) []ValidationError {
	var errs []ValidationError

	// E129: property-less modules have exactly one permutation
	if len(m.Properties) == 0 && len(m.Permutations) != 1 {
		errs = append(errs, ValidationError{
			Field:   "permutations",
			Message: fmt.Sprintf("module without properties must have exactly one permutation, found %d", len(m.Permutations)),
			Code:    ErrSinglePermutation,
		})
	}

	seen := make(map[string]string)
	for i, perm := range m.Permutations {
		field := fmt.Sprintf("permutations[%d]", i)

		// E128: artifact ID
		if strings.TrimSpace(perm.ArtifactID) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".artifact_id",
				Message: "artifact ID is required",
				Code:    ErrArtifactIDEmpty,
			})
		}

		// E125: arity
		if len(perm.Values) != len(m.Properties) {
			errs = append(errs, ValidationError{
				Field:   field + ".values",
				Message: fmt.Sprintf("tuple has %d value(s), module declares %d propert(ies)", len(perm.Values), len(m.Properties)),
				Code:    ErrTupleArity,
			})
			continue
		}

		// E126: values allowed at their position
		for j, v := range perm.Values {
			p := m.Properties[j]
			if !p.Permits(v) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.values[%d]", field, j),
					Message: fmt.Sprintf("value %q is not an allowed value of %q", v, p.Name),
					Code:    ErrValueNotAllowed,
				})
			} else if p.IsStatic() && v != p.Static {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.values[%d]", field, j),
					Message: fmt.Sprintf("property %q is fixed to %q", p.Name, p.Static),
					Code:    ErrValueNotAllowed,
				})
			}
		}

		// E127: duplicate tuples would make selection depend on build order
		key := strings.Join(perm.Values, "\x00")
		if prev, ok := seen[key]; ok {
			errs = append(errs, ValidationError{
				Field:   field + ".values",
				Message: fmt.Sprintf("tuple [%s] already maps to %q", strings.Join(perm.Values, ", "), prev),
				Code:    ErrDuplicateTuple,
			})
			continue
		}
		seen[key] = perm.ArtifactID
	}

	return errs
}
