package ir

// Manifest is the compiled description of one module's permutation set.
//
// Properties are listed in evaluation order. Every Permutation.Values tuple is
// positionally aligned with Properties.
type Manifest struct {
	Module       string         `json:"module"`
	Properties   []PropertyDecl `json:"properties"`
	Permutations []Permutation  `json:"permutations"`
	Scripts      []Dependency   `json:"scripts,omitempty"`
	Styles       []Dependency   `json:"styles,omitempty"`
}

// PropertyDecl declares one deferred-binding property.
type PropertyDecl struct {
	Name string `json:"name"`

	// Allowed lists the values the property may take, in declaration order.
	Allowed []string `json:"allowed"`

	// Static is set when the value was fixed at build time. A static property
	// has no provider and always evaluates to Static.
	Static string `json:"static,omitempty"`
}

// IsStatic reports whether the property value was fixed at build time.
func (p PropertyDecl) IsStatic() bool {
	return p.Static != ""
}

// Permits reports whether v is one of the declared allowed values.
func (p PropertyDecl) Permits(v string) bool {
	for _, a := range p.Allowed {
		if a == v {
			return true
		}
	}
	return false
}

// Permutation maps one property-value tuple to a compiled artifact.
type Permutation struct {
	Values     []string `json:"values"`
	ArtifactID string   `json:"artifact_id"`
}

// Dependency is an external script or stylesheet injected before start.
type Dependency struct {
	Kind string `json:"kind"` // "script" or "style"
	Src  string `json:"src"`
}

// Dependency kinds.
const (
	DependencyScript = "script"
	DependencyStyle  = "style"
)

// PropertyNames returns the declared property names in evaluation order.
func (m *Manifest) PropertyNames() []string {
	names := make([]string, len(m.Properties))
	for i, p := range m.Properties {
		names[i] = p.Name
	}
	return names
}

// Property returns the declaration for name.
func (m *Manifest) Property(name string) (PropertyDecl, bool) {
	for _, p := range m.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDecl{}, false
}

// Dependencies returns styles followed by scripts, the order they are injected in.
func (m *Manifest) Dependencies() []Dependency {
	deps := make([]Dependency, 0, len(m.Styles)+len(m.Scripts))
	deps = append(deps, m.Styles...)
	deps = append(deps, m.Scripts...)
	return deps
}
