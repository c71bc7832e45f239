package selection

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bootsel/internal/ir"
)

func twoByTwo() ([]ir.PropertyDecl, []ir.Permutation) {
	props := []ir.PropertyDecl{
		{Name: "platform", Allowed: []string{"a", "b"}},
		{Name: "locale", Allowed: []string{"en", "fr"}},
	}
	perms := []ir.Permutation{
		{Values: []string{"a", "en"}, ArtifactID: "P1"},
		{Values: []string{"a", "fr"}, ArtifactID: "P2"},
		{Values: []string{"b", "en"}, ArtifactID: "P3"},
		{Values: []string{"b", "fr"}, ArtifactID: "P4"},
	}
	return props, perms
}

func TestBuild_LookupEveryTuple(t *testing.T) {
	props, perms := twoByTwo()
	table, err := Build(props, perms)
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())

	for _, perm := range perms {
		got, err := table.Lookup(perm.Values)
		require.NoError(t, err)
		assert.Equal(t, perm.ArtifactID, got, "tuple %v", perm.Values)
	}
}

func TestBuild_LookupGeneratedTables(t *testing.T) {
	// Three properties with uneven fan-out; every tuple gets a distinct ID.
	props := []ir.PropertyDecl{
		{Name: "p0", Allowed: []string{"x", "y", "z"}},
		{Name: "p1", Allowed: []string{"0", "1"}},
		{Name: "p2", Allowed: []string{"u", "v", "w", "q"}},
	}
	var perms []ir.Permutation
	for _, a := range props[0].Allowed {
		for _, b := range props[1].Allowed {
			for _, c := range props[2].Allowed {
				perms = append(perms, ir.Permutation{
					Values:     []string{a, b, c},
					ArtifactID: fmt.Sprintf("%s%s%s", a, b, c),
				})
			}
		}
	}

	table, err := Build(props, perms)
	require.NoError(t, err)
	assert.Equal(t, 24, table.Len())

	for _, perm := range perms {
		got, err := table.Lookup(perm.Values)
		require.NoError(t, err)
		assert.Equal(t, perm.ArtifactID, got)
	}
}

func TestBuild_SparseTableAllowedIsPerNode(t *testing.T) {
	// Allowed locales depend on the platform branch.
	props := []ir.PropertyDecl{
		{Name: "platform", Allowed: []string{"a", "b"}},
		{Name: "locale", Allowed: []string{"en", "fr", "de"}},
	}
	perms := []ir.Permutation{
		{Values: []string{"a", "en"}, ArtifactID: "A1"},
		{Values: []string{"b", "de"}, ArtifactID: "B1"},
		{Values: []string{"b", "en"}, ArtifactID: "B2"},
	}
	table, err := Build(props, perms)
	require.NoError(t, err)

	_, err = table.Lookup([]string{"a", "fr"})
	var bp *BadPropertyError
	require.True(t, errors.As(err, &bp))
	assert.Equal(t, "locale", bp.Property)
	assert.Equal(t, []string{"en"}, bp.Allowed)

	_, err = table.Lookup([]string{"b", "fr"})
	require.True(t, errors.As(err, &bp))
	assert.Equal(t, []string{"en", "de"}, bp.Allowed, "declaration order")
}

func TestBuild_RejectsDuplicateTuple(t *testing.T) {
	props, perms := twoByTwo()
	perms = append(perms, ir.Permutation{Values: []string{"b", "fr"}, ArtifactID: "P5"})

	_, err := Build(props, perms)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateTuple)
	assert.Contains(t, err.Error(), "P4")
}

func TestBuild_RejectsArityMismatch(t *testing.T) {
	props, _ := twoByTwo()
	perms := []ir.Permutation{{Values: []string{"a"}, ArtifactID: "P1"}}

	_, err := Build(props, perms)
	assert.ErrorIs(t, err, ErrTupleArity)
}

func TestBuild_ZeroProperties(t *testing.T) {
	table, err := Build(nil, []ir.Permutation{{Values: []string{}, ArtifactID: "ONLY"}})
	require.NoError(t, err)

	got, err := table.Lookup(nil)
	require.NoError(t, err)
	assert.Equal(t, "ONLY", got)
}

func TestLookup_UnknownValue(t *testing.T) {
	props, perms := twoByTwo()
	table, err := Build(props, perms)
	require.NoError(t, err)

	_, err = table.Lookup([]string{"c", "en"})
	var bp *BadPropertyError
	require.True(t, errors.As(err, &bp))
	assert.Equal(t, "platform", bp.Property)
	assert.Equal(t, "c", bp.Value)
	assert.Equal(t, []string{"a", "b"}, bp.Allowed)
}

func TestCursor_AllowedUndeclaredSortsLast(t *testing.T) {
	props := []ir.PropertyDecl{{Name: "render", Allowed: []string{"std", "quirks"}}}
	perms := []ir.Permutation{
		{Values: []string{"zeta"}, ArtifactID: "Z"},
		{Values: []string{"quirks"}, ArtifactID: "Q"},
		{Values: []string{"alpha"}, ArtifactID: "A"},
		{Values: []string{"std"}, ArtifactID: "S"},
	}
	table, err := Build(props, perms)
	require.NoError(t, err)

	assert.Equal(t, []string{"std", "quirks", "alpha", "zeta"}, table.Cursor().Allowed())
}

func TestCursor_Walk(t *testing.T) {
	props, perms := twoByTwo()
	table, err := Build(props, perms)
	require.NoError(t, err)

	c := table.Cursor()
	assert.False(t, c.Done())
	assert.Equal(t, "platform", c.Property().Name)

	_, err = c.Artifact()
	assert.Error(t, err, "root is not a leaf")

	c, err = c.Next("a")
	require.NoError(t, err)
	assert.Equal(t, "locale", c.Property().Name)

	c, err = c.Next("fr")
	require.NoError(t, err)
	assert.True(t, c.Done())

	id, err := c.Artifact()
	require.NoError(t, err)
	assert.Equal(t, "P2", id)

	_, err = c.Next("x")
	assert.ErrorIs(t, err, ErrTupleArity)
}

func TestFromManifest(t *testing.T) {
	props, perms := twoByTwo()
	table, err := FromManifest(&ir.Manifest{Module: "app", Properties: props, Permutations: perms})
	require.NoError(t, err)
	assert.Equal(t, []ir.PropertyDecl(props), table.Properties())
}
