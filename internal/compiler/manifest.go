package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/bootsel/internal/ir"
)

// CompileManifest parses a CUE value into a Manifest.
// Uses the CUE SDK's Go API directly.
//
// The value is the manifest root, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`module: "app", property: {...}, permutation: {...}`)
//	m, err := CompileManifest(v)
//
// CompileManifest checks shape only. Run Validate on the result to check the
// permutation table against the property declarations.
func CompileManifest(v cue.Value) (*ir.Manifest, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	m := &ir.Manifest{}

	moduleVal := v.LookupPath(cue.ParsePath("module"))
	if !moduleVal.Exists() {
		return nil, &CompileError{
			Field:   "module",
			Message: "module is required",
			Pos:     v.Pos(),
		}
	}
	module, err := moduleVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	m.Module = module

	m.Properties, err = parseProperties(v)
	if err != nil {
		return nil, err
	}

	m.Permutations, err = parsePermutations(v)
	if err != nil {
		return nil, err
	}
	if len(m.Permutations) == 0 {
		return nil, &CompileError{
			Field:   "permutation",
			Message: "at least one permutation is required",
			Pos:     v.Pos(),
		}
	}

	m.Scripts, err = parseDependencies(v, "script", ir.DependencyScript)
	if err != nil {
		return nil, err
	}
	m.Styles, err = parseDependencies(v, "style", ir.DependencyStyle)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// parseProperties reads property declarations in field order.
func parseProperties(v cue.Value) ([]ir.PropertyDecl, error) {
	var props []ir.PropertyDecl

	propVal := v.LookupPath(cue.ParsePath("property"))
	if !propVal.Exists() {
		return props, nil // a module without properties has exactly one permutation
	}

	iter, err := propVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Label()
		pv := iter.Value()

		decl := ir.PropertyDecl{Name: name}

		allowedVal := pv.LookupPath(cue.ParsePath("allowed"))
		if !allowedVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("property.%s.allowed", name),
				Message: "allowed values are required",
				Pos:     pv.Pos(),
			}
		}
		decl.Allowed, err = stringList(allowedVal)
		if err != nil {
			return nil, err
		}

		staticVal := pv.LookupPath(cue.ParsePath("value"))
		if staticVal.Exists() {
			decl.Static, err = staticVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
		}

		props = append(props, decl)
	}

	return props, nil
}

// parsePermutations reads the artifact table. Each field maps an artifact ID
// to either one tuple (a list of strings) or several (a list of lists).
func parsePermutations(v cue.Value) ([]ir.Permutation, error) {
	var perms []ir.Permutation

	permVal := v.LookupPath(cue.ParsePath("permutation"))
	if !permVal.Exists() {
		return perms, nil
	}

	iter, err := permVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		artifact := iter.Label()
		tuples, err := parseTuples(iter.Value(), artifact)
		if err != nil {
			return nil, err
		}
		for _, values := range tuples {
			perms = append(perms, ir.Permutation{Values: values, ArtifactID: artifact})
		}
	}

	return perms, nil
}

func parseTuples(v cue.Value, artifact string) ([][]string, error) {
	if v.IncompleteKind() != cue.ListKind {
		return nil, &CompileError{
			Field:   fmt.Sprintf("permutation.%s", artifact),
			Message: "must be a list of values or a list of value lists",
			Pos:     v.Pos(),
		}
	}

	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var (
		flat   []string
		nested [][]string
	)
	for iter.Next() {
		elem := iter.Value()
		switch elem.IncompleteKind() {
		case cue.StringKind:
			s, err := elem.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			flat = append(flat, s)
		case cue.ListKind:
			values, err := stringList(elem)
			if err != nil {
				return nil, err
			}
			nested = append(nested, values)
		default:
			return nil, &CompileError{
				Field:   fmt.Sprintf("permutation.%s", artifact),
				Message: fmt.Sprintf("unsupported element kind: %v", elem.IncompleteKind()),
				Pos:     elem.Pos(),
			}
		}
	}

	if flat != nil && nested != nil {
		return nil, &CompileError{
			Field:   fmt.Sprintf("permutation.%s", artifact),
			Message: "cannot mix values and value lists",
			Pos:     v.Pos(),
		}
	}
	if nested != nil {
		return nested, nil
	}
	// An empty list is the single tuple of a property-less module.
	if flat == nil {
		flat = []string{}
	}
	return [][]string{flat}, nil
}

func parseDependencies(v cue.Value, field, kind string) ([]ir.Dependency, error) {
	depVal := v.LookupPath(cue.ParsePath(field))
	if !depVal.Exists() {
		return nil, nil
	}
	srcs, err := stringList(depVal)
	if err != nil {
		return nil, err
	}
	deps := make([]ir.Dependency, len(srcs))
	for i, src := range srcs {
		deps[i] = ir.Dependency{Kind: kind, Src: src}
	}
	return deps, nil
}

func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
