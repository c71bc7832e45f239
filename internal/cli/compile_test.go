package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bootsel/internal/ir"
)

func TestCompile_Text(t *testing.T) {
	out, _, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), appManifest)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled module app: 3 properties, 4 permutation(s)")
	assert.Contains(t, out, "  platform: gecko, webkit")
	assert.Contains(t, out, "  render = std (static)")
	assert.Contains(t, out, "  B2: webkit, fr, std")
	assert.Contains(t, out, "  style app.css")
	assert.Contains(t, out, "  script lib/polyfill.js")
	assert.Contains(t, out, "Manifest hash: ")
}

func TestCompile_JSON(t *testing.T) {
	out, _, err := execute(t, NewCompileCommand(&RootOptions{Format: "json"}), appManifest)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Data.Manifest)
	assert.Equal(t, "app", resp.Data.Manifest.Module)
	assert.Len(t, resp.Data.Manifest.Permutations, 4)

	want, err := ir.ManifestHash(resp.Data.Manifest)
	require.NoError(t, err)
	assert.Equal(t, want, resp.Data.Hash)
	assert.Len(t, resp.Data.Hash, 64)
}

func TestCompile_OutputFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "manifest.json")

	out, _, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), appManifest, "-o", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote manifest to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	var m ir.Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "app", m.Module)
	assert.Equal(t, []string{"gecko", "en", "std"}, m.Permutations[0].Values)
}

func TestCompile_OutputFileUnwritable(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "missing", "dir", "manifest.json")

	out, _, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), appManifest, "-o", outputFile)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]")
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		dir      func(t *testing.T) string
		wantCode string
	}{
		{
			name:     "missing directory",
			dir:      func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "no cue files",
			dir:      func(t *testing.T) string { return t.TempDir() },
			wantCode: ErrCodeNoFiles,
		},
		{
			name: "no module field",
			dir: func(t *testing.T) string {
				return writeManifest(t, "package x\npermutation: A: [[]]\n")
			},
			wantCode: ErrCodeModule,
		},
		{
			name: "validation error",
			dir: func(t *testing.T) string {
				return filepath.Join("..", "..", "testdata", "manifests", "broken")
			},
			wantCode: "E126",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewCompileCommand(&RootOptions{Format: "json"}), tt.dir(t))
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestCompile_ErrorsText(t *testing.T) {
	broken := filepath.Join("..", "..", "testdata", "manifests", "broken")
	out, _, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), broken)
	require.Error(t, err)
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "E126")
	assert.Contains(t, out, "E125")
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := map[string]string{
		"cue":                     ErrCodeCUE,
		"module":                  ErrCodeModule,
		"property.locale.allowed": ErrCodeProperty,
		"permutation.A1":          ErrCodePermutation,
		"script":                  ErrCodeDependency,
		"style":                   ErrCodeDependency,
		"something":               ErrCodeGeneric,
	}
	for field, want := range tests {
		assert.Equal(t, want, MapFieldToErrorCode(field), field)
	}
}

func writeManifest(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.cue"), []byte(src), 0644))
	return dir
}
