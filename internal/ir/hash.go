package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainManifest prefixes manifest hashes. The version suffix leaves room for
// changing the hashed shape later.
const DomainManifest = "bootsel/manifest/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator keeps domain and data unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ManifestHash computes the content hash of a compiled manifest.
//
// Permutation order and dependency order are significant: the same entries
// listed differently hash differently, because dependency order is the
// injection order.
func ManifestHash(m *Manifest) (string, error) {
	props := make([]any, len(m.Properties))
	for i, p := range m.Properties {
		props[i] = map[string]any{
			"name":    p.Name,
			"allowed": p.Allowed,
			"static":  p.Static,
		}
	}
	perms := make([]any, len(m.Permutations))
	for i, p := range m.Permutations {
		perms[i] = map[string]any{
			"values":      p.Values,
			"artifact_id": p.ArtifactID,
		}
	}
	deps := make([]any, 0, len(m.Styles)+len(m.Scripts))
	for _, d := range m.Dependencies() {
		deps = append(deps, map[string]any{"kind": d.Kind, "src": d.Src})
	}

	canonical, err := MarshalCanonical(map[string]any{
		"module":       m.Module,
		"properties":   props,
		"permutations": perms,
		"dependencies": deps,
		"version":      ManifestVersion,
	})
	if err != nil {
		return "", fmt.Errorf("ManifestHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainManifest, canonical), nil
}
