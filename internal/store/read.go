package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/bootsel/internal/ir"
)

// ErrNotFound is returned when a bootstrap does not exist.
var ErrNotFound = errors.New("bootstrap not found")

const bootstrapColumns = `id, module, mode, outcome, artifact_id, target, manifest_hash, seq`

// ReadBootstrap returns one bootstrap summary.
func (s *Store) ReadBootstrap(ctx context.Context, id string) (ir.BootstrapRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bootstrapColumns+` FROM bootstraps WHERE id = ?`, id)
	rec, err := scanBootstrap(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.BootstrapRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return ir.BootstrapRecord{}, fmt.Errorf("read bootstrap %s: %w", id, err)
	}
	return rec, nil
}

// ListBootstraps returns bootstrap summaries ordered by seq. An empty module
// lists every module.
func (s *Store) ListBootstraps(ctx context.Context, module string) ([]ir.BootstrapRecord, error) {
	return s.FindBootstraps(ctx, BootstrapFilter{Module: module}.Predicate())
}

// FindBootstraps returns the bootstrap summaries matching p, ordered by seq.
// A nil predicate matches every bootstrap.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) FindBootstraps(ctx context.Context, p Predicate) ([]ir.BootstrapRecord, error) {
	query, args, err := compileBootstrapQuery(p)
	if err != nil {
		return nil, fmt.Errorf("query bootstraps: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bootstraps: %w", err)
	}
	defer rows.Close()

	records := []ir.BootstrapRecord{}
	for rows.Next() {
		rec, err := scanBootstrap(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bootstrap: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bootstraps: %w", err)
	}
	return records, nil
}

// ReadTrace returns the trace of one bootstrap ordered by seq.
func (s *Store) ReadTrace(ctx context.Context, bootstrapID string) ([]ir.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bootstrap_id, seq, kind, attrs
		FROM trace_events
		WHERE bootstrap_id = ?
		ORDER BY seq ASC
	`, bootstrapID)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	events := []ir.TraceEvent{}
	for rows.Next() {
		var ev ir.TraceEvent
		var attrs string
		if err := rows.Scan(&ev.BootstrapID, &ev.Seq, &ev.Kind, &attrs); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if ev.Attrs, err = unmarshalAttrs(attrs); err != nil {
			return nil, fmt.Errorf("event %d: %w", ev.Seq, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace: %w", err)
	}
	return events, nil
}

// MaxSeq returns the highest recorded event seq, 0 for an empty log.
// A new clock resumes from here so seqs stay unique across runs.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM trace_events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBootstrap(sc scanner) (ir.BootstrapRecord, error) {
	var rec ir.BootstrapRecord
	var mode, outcome string
	err := sc.Scan(&rec.ID, &rec.Module, &mode, &outcome, &rec.ArtifactID, &rec.Target, &rec.ManifestHash, &rec.Seq)
	if err != nil {
		return ir.BootstrapRecord{}, err
	}
	rec.Mode = ir.Mode(mode)
	rec.Outcome = ir.Outcome(outcome)
	return rec, nil
}
