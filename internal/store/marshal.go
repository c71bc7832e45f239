package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/bootsel/internal/ir"
)

// marshalAttrs converts event attributes to canonical JSON TEXT.
func marshalAttrs(attrs map[string]string) (string, error) {
	if attrs == nil {
		attrs = map[string]string{}
	}
	data, err := ir.MarshalCanonical(attrs)
	if err != nil {
		return "", fmt.Errorf("marshal attrs: %w", err)
	}
	return string(data), nil
}

// unmarshalAttrs parses stored attributes. An empty object yields nil so
// events round-trip with the shape the bootstrap emitted.
func unmarshalAttrs(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var attrs map[string]string
	if err := json.Unmarshal([]byte(data), &attrs); err != nil {
		return nil, fmt.Errorf("unmarshal attrs: %w", err)
	}
	return attrs, nil
}
