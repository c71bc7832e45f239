package store

import (
	"fmt"
	"strings"
)

// Predicate filters bootstrap summaries. Only types in this package
// implement it, so compilePredicate can switch exhaustively.
type Predicate interface {
	predicate()
}

// Equals matches rows whose column equals Value.
type Equals struct {
	Column string
	Value  string
}

// And matches rows that satisfy every predicate. An empty And matches all.
type And []Predicate

func (Equals) predicate() {}
func (And) predicate()    {}

// Filterable bootstrap columns.
const (
	ColumnModule       = "module"
	ColumnMode         = "mode"
	ColumnOutcome      = "outcome"
	ColumnArtifactID   = "artifact_id"
	ColumnManifestHash = "manifest_hash"
)

var filterColumns = map[string]bool{
	ColumnModule:       true,
	ColumnMode:         true,
	ColumnOutcome:      true,
	ColumnArtifactID:   true,
	ColumnManifestHash: true,
}

// BootstrapFilter builds an And of Equals for the non-empty fields.
type BootstrapFilter struct {
	Module     string
	Mode       string
	Outcome    string
	ArtifactID string
}

// Predicate returns the filter as a predicate.
func (f BootstrapFilter) Predicate() Predicate {
	var and And
	for _, eq := range []Equals{
		{ColumnModule, f.Module},
		{ColumnMode, f.Mode},
		{ColumnOutcome, f.Outcome},
		{ColumnArtifactID, f.ArtifactID},
	} {
		if eq.Value != "" {
			and = append(and, eq)
		}
	}
	return and
}

// compileBootstrapQuery compiles p into a parameterized SELECT over
// bootstraps. Values are never interpolated, and every query is ordered by
// seq with id as the tiebreaker.
func compileBootstrapQuery(p Predicate) (string, []any, error) {
	where, params, err := compilePredicate(p)
	if err != nil {
		return "", nil, err
	}
	var b strings.Builder
	b.WriteString(`SELECT ` + bootstrapColumns + ` FROM bootstraps`)
	if where != "" {
		b.WriteString(` WHERE ` + where)
	}
	b.WriteString(` ORDER BY seq ASC, id COLLATE BINARY ASC`)
	return b.String(), params, nil
}

// compilePredicate returns a WHERE fragment. The empty fragment means no
// filtering.
func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "", nil, nil
	case Equals:
		if !filterColumns[pred.Column] {
			return "", nil, fmt.Errorf("unknown filter column %q", pred.Column)
		}
		return pred.Column + " = ?", []any{pred.Value}, nil
	case And:
		var parts []string
		var params []any
		for _, sub := range pred {
			sql, subParams, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			if sql == "" {
				continue
			}
			parts = append(parts, sql)
			params = append(params, subParams...)
		}
		return strings.Join(parts, " AND "), params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}
