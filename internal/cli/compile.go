package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bootsel/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the compile command's JSON payload.
type CompilationResult struct {
	Manifest *ir.Manifest `json:"manifest"`
	Hash     string       `json:"manifest_hash"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <manifest-dir>",
		Short: "Compile a CUE permutation manifest",
		Long: `Compile a CUE permutation manifest to its JSON form.

The compiler loads the CUE package in the directory, checks the permutation
table against the property declarations and prints a summary together with
the manifest hash. With --output the compiled manifest is written as JSON.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, errs := LoadManifest(dir, LoadModeCollectAll)
	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	result := &CompilationResult{Manifest: loaded.Manifest, Hash: loaded.Hash}

	if opts.Output != "" {
		if err := writeManifestFile(loaded.Manifest, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
		formatter.VerboseLog("Wrote manifest to %s", opts.Output)
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	m := result.Manifest
	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled module %s: %d propert%s, %d permutation(s)\n\n",
		m.Module, len(m.Properties), plural(len(m.Properties), "y", "ies"), len(m.Permutations))

	if len(m.Properties) > 0 {
		fmt.Fprintln(w, "Properties:")
		for _, p := range m.Properties {
			if p.IsStatic() {
				fmt.Fprintf(w, "  %s = %s (static)\n", p.Name, p.Static)
				continue
			}
			fmt.Fprintf(w, "  %s: %s\n", p.Name, strings.Join(p.Allowed, ", "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Permutations:")
	for _, p := range m.Permutations {
		fmt.Fprintf(w, "  %s: %s\n", p.ArtifactID, strings.Join(p.Values, ", "))
	}
	fmt.Fprintln(w)

	if deps := m.Dependencies(); len(deps) > 0 {
		fmt.Fprintln(w, "Dependencies:")
		for _, d := range deps {
			fmt.Fprintf(w, "  %s %s\n", d.Kind, d.Src)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Manifest hash: %s\n", result.Hash)
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote manifest to %s\n", outputFile)
	}
	return nil
}

// outputCompileErrors reports load or validation errors. Both are command
// errors (exit code 2) for compile.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		code, message := errorCode(err)
		cliErrors[i] = CLIError{Code: code, Message: message}
	}

	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for i, err := range errs {
		if le, ok := err.(*LoadError); ok && le.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", le.Pos.Filename(), le.Pos.Line(), le.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", cliErrors[i].Code, cliErrors[i].Message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeManifestFile writes the manifest as indented JSON. Canonical JSON is
// used only for hashing.
func writeManifestFile(m *ir.Manifest, filename string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
