package cli

import (
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/bootsel/internal/compiler"
	"github.com/roach88/bootsel/internal/ir"
)

// LoadMode controls how validation errors are reported.
type LoadMode int

const (
	// LoadModeFailFast reports only the first error.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll reports every validation error.
	LoadModeCollectAll
)

// LoadResult is a compiled and validated manifest.
type LoadResult struct {
	Manifest  *ir.Manifest
	Hash      string
	FileCount int
}

// LoadError represents an error that occurred while loading a manifest.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants shared by all commands. Validation codes (E120 and
// up) come from the compiler package unchanged.
const (
	ErrCodeGeneric     = compiler.ErrCodeGeneric
	ErrCodeScanError   = compiler.ErrCodeScanError
	ErrCodeNoFiles     = compiler.ErrCodeNoFiles
	ErrCodeLoadFailed  = compiler.ErrCodeLoadFailed
	ErrCodeNotFound    = compiler.ErrCodeNotFound
	ErrCodeBuildFailed = compiler.ErrCodeBuildFailed
	ErrCodeWriteFailed = "E007" // file write error
	ErrCodeDatabase    = "E008" // trace store error
	ErrCodeBadInput    = "E009" // malformed flag value or input file

	ErrCodeCUE         = "E010" // CUE evaluation error
	ErrCodeModule      = "E011" // module field missing or malformed
	ErrCodeProperty    = "E012" // property block malformed
	ErrCodePermutation = "E013" // permutation block malformed
	ErrCodeDependency  = "E014" // script or style list malformed
)

// LoadManifest loads, compiles and validates the manifest in dir.
//
// A nil result means nothing usable was loaded. With LoadModeCollectAll
// every validation error is returned; otherwise only the first.
func LoadManifest(dir string, mode LoadMode) (*LoadResult, []error) {
	value, count, err := compiler.LoadDir(dir)
	if err != nil {
		return nil, []error{convertLoadError(err)}
	}

	m, err := compiler.CompileManifest(value)
	if err != nil {
		return nil, []error{convertCompileError(err)}
	}

	if verrs := compiler.Validate(m); len(verrs) > 0 {
		if mode == LoadModeFailFast {
			verrs = verrs[:1]
		}
		errs := make([]error, len(verrs))
		for i, v := range verrs {
			errs[i] = &LoadError{Code: v.Code, Message: fmt.Sprintf("%s: %s", v.Field, v.Message)}
		}
		return &LoadResult{Manifest: m, FileCount: count}, errs
	}

	hash, err := ir.ManifestHash(m)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("hashing manifest: %v", err)}}
	}
	return &LoadResult{Manifest: m, Hash: hash, FileCount: count}, nil
}

func convertLoadError(err error) *LoadError {
	var le *compiler.LoadError
	if errors.As(err, &le) {
		return &LoadError{Code: le.Code, Message: le.Message}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return &LoadError{
			Code:    MapFieldToErrorCode(ce.Field),
			Message: ce.Message,
			Pos:     ce.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	head, _, _ := strings.Cut(field, ".")
	switch head {
	case "cue":
		return ErrCodeCUE
	case "module":
		return ErrCodeModule
	case "property":
		return ErrCodeProperty
	case "permutation":
		return ErrCodePermutation
	case "script", "style":
		return ErrCodeDependency
	default:
		return ErrCodeGeneric
	}
}

// errorCode extracts the code and message from a loader error.
func errorCode(err error) (string, string) {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code, le.Message
	}
	return ErrCodeGeneric, err.Error()
}
