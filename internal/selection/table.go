package selection

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/bootsel/internal/ir"
)

var (
	// ErrTupleArity is returned by Build when a tuple length differs from the
	// property count.
	ErrTupleArity = errors.New("tuple arity does not match property count")

	// ErrDuplicateTuple is returned by Build when two permutations share a
	// tuple. Which one wins would depend on build order, so both are rejected.
	ErrDuplicateTuple = errors.New("duplicate permutation tuple")
)

// Table is the permutation decision trie.
//
// Level i of the trie is keyed by values of property i. Lookup costs one map
// index per property regardless of how many permutations exist.
//
// A Table is immutable after Build and safe for concurrent lookups.
type Table struct {
	props []ir.PropertyDecl
	root  *node
	size  int
}

type node struct {
	children map[string]*node
	artifact string
	leaf     bool
}

// Build constructs a table from property declarations and permutations.
// Tuples are inserted as paths left to right, creating nodes on demand.
func Build(props []ir.PropertyDecl, perms []ir.Permutation) (*Table, error) {
	t := &Table{
		props: append([]ir.PropertyDecl(nil), props...),
		root:  newNode(),
	}
	for i, perm := range perms {
		if err := t.insert(perm); err != nil {
			return nil, fmt.Errorf("permutation %d (%s): %w", i, perm.ArtifactID, err)
		}
	}
	return t, nil
}

// FromManifest builds the table for a compiled manifest.
func FromManifest(m *ir.Manifest) (*Table, error) {
	return Build(m.Properties, m.Permutations)
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

func (t *Table) insert(perm ir.Permutation) error {
	if len(perm.Values) != len(t.props) {
		return fmt.Errorf("%w: got %d value(s), want %d", ErrTupleArity, len(perm.Values), len(t.props))
	}

	n := t.root
	for _, v := range perm.Values {
		child, ok := n.children[v]
		if !ok {
			child = newNode()
			n.children[v] = child
		}
		n = child
	}

	if n.leaf {
		return fmt.Errorf("%w: [%s] already maps to %q",
			ErrDuplicateTuple, strings.Join(perm.Values, ", "), n.artifact)
	}
	n.artifact = perm.ArtifactID
	n.leaf = true
	t.size++
	return nil
}

// Properties returns the property declarations in evaluation order.
func (t *Table) Properties() []ir.PropertyDecl {
	return append([]ir.PropertyDecl(nil), t.props...)
}

// Len returns the number of permutations in the table.
func (t *Table) Len() int {
	return t.size
}

// Lookup resolves a complete tuple to its artifact ID.
func (t *Table) Lookup(values []string) (string, error) {
	if len(values) != len(t.props) {
		return "", fmt.Errorf("%w: got %d value(s), want %d", ErrTupleArity, len(values), len(t.props))
	}
	c := t.Cursor()
	for _, v := range values {
		next, err := c.Next(v)
		if err != nil {
			return "", err
		}
		c = next
	}
	return c.Artifact()
}

// Cursor returns a cursor positioned at the root of the table.
func (t *Table) Cursor() Cursor {
	return Cursor{table: t, node: t.root}
}

// Cursor walks the table one property at a time.
type Cursor struct {
	table *Table
	node  *node
	depth int
}

// Done reports whether every property has been consumed.
func (c Cursor) Done() bool {
	return c.depth == len(c.table.props)
}

// Property returns the declaration consumed by the next call to Next.
func (c Cursor) Property() ir.PropertyDecl {
	return c.table.props[c.depth]
}

// Allowed returns the values accepted at the current node, in the property's
// declaration order. Values missing from the declaration sort after, lexically.
func (c Cursor) Allowed() []string {
	keys := make([]string, 0, len(c.node.children))
	for k := range c.node.children {
		keys = append(keys, k)
	}

	rank := make(map[string]int)
	if !c.Done() {
		for i, v := range c.Property().Allowed {
			rank[v] = i
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := rank[keys[i]]
		rj, jok := rank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// Next narrows the cursor by one property value.
func (c Cursor) Next(value string) (Cursor, error) {
	if c.Done() {
		return c, fmt.Errorf("%w: cursor already at a leaf", ErrTupleArity)
	}
	child, ok := c.node.children[value]
	if !ok {
		return c, &BadPropertyError{
			Property: c.Property().Name,
			Allowed:  c.Allowed(),
			Value:    value,
		}
	}
	return Cursor{table: c.table, node: child, depth: c.depth + 1}, nil
}

// Artifact returns the artifact ID at a leaf.
func (c Cursor) Artifact() (string, error) {
	if !c.Done() || !c.node.leaf {
		return "", fmt.Errorf("cursor at depth %d is not a leaf", c.depth)
	}
	return c.node.artifact, nil
}
