package bootstrap

import (
	"net/url"
	"strings"

	"github.com/roach88/bootsel/internal/ir"
)

// ArtifactSuffix is appended to an artifact ID to form its resource name.
const ArtifactSuffix = ".cache.html"

// TargetPath derives the resource path of a selected artifact.
//
// The query prefix is the page query up to its first '&'; a query without
// '&' contributes nothing.
func TargetPath(base, artifactID, query string) string {
	var b strings.Builder
	if base != "" {
		b.WriteString(base)
		b.WriteByte('/')
	}
	b.WriteString(artifactID)
	b.WriteString(ArtifactSuffix)
	if i := strings.IndexByte(query, '&'); i >= 0 {
		b.WriteString(query[:i])
	}
	return b.String()
}

// ResolveDependency resolves a dependency URL against a module base path.
// Rooted paths and absolute URLs are returned unchanged.
func ResolveDependency(base, src string) string {
	if base == "" || strings.HasPrefix(src, "/") {
		return src
	}
	if u, err := url.Parse(src); err == nil && u.IsAbs() {
		return src
	}
	return strings.TrimSuffix(base, "/") + "/" + src
}

// pendingDependencies resolves deps against base and drops the ones already
// injected during this page load, preserving order.
func pendingDependencies(ctx *Context, base string, deps []ir.Dependency) []ir.Dependency {
	out := make([]ir.Dependency, 0, len(deps))
	for _, d := range deps {
		d.Src = ResolveDependency(base, d.Src)
		if ctx.Config.MarkLoaded(d.Kind + ":" + d.Src) {
			out = append(out, d)
		}
	}
	return out
}
