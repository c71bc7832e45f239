package ir

// Version constants for the manifest schema and the bootstrap runtime.
const (
	// ManifestVersion is the compiled manifest schema version.
	ManifestVersion = "1"

	// RuntimeVersion is the bootsel runtime version.
	RuntimeVersion = "0.1.0"
)
