package testutil

import "github.com/roach88/bootsel/internal/engine"

// DefaultBootstrapID is used when a test does not name its bootstrap.
const DefaultBootstrapID = "boot-default"

// FixedIDGenerator generates the same bootstrap ID every time.
//
// The same scenario run twice with a FixedIDGenerator produces byte-identical
// traces, which is what golden comparison relies on.
//
// Unlike engine.FixedGenerator, which returns IDs in sequence and panics when
// they run out, this generator never runs out.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed generator. An empty id means
// DefaultBootstrapID.
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = DefaultBootstrapID
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

var _ engine.IDGenerator = (*FixedIDGenerator)(nil)
