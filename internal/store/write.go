package store

import (
	"context"
	"fmt"

	"github.com/roach88/bootsel/internal/ir"
)

// WriteBootstrap records a bootstrap summary and its trace in one
// transaction. Writes use ON CONFLICT DO NOTHING: recording the same
// bootstrap twice keeps the first copy.
func (s *Store) WriteBootstrap(ctx context.Context, rec ir.BootstrapRecord, events []ir.TraceEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write bootstrap %s: %w", rec.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bootstraps
		(id, module, mode, outcome, artifact_id, target, manifest_hash, seq, runtime_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Module,
		string(rec.Mode),
		string(rec.Outcome),
		rec.ArtifactID,
		rec.Target,
		rec.ManifestHash,
		rec.Seq,
		ir.RuntimeVersion,
	)
	if err != nil {
		return fmt.Errorf("write bootstrap %s: %w", rec.ID, err)
	}

	for _, ev := range events {
		if ev.BootstrapID != rec.ID {
			return fmt.Errorf("write bootstrap %s: event seq %d belongs to %q", rec.ID, ev.Seq, ev.BootstrapID)
		}
		attrs, err := marshalAttrs(ev.Attrs)
		if err != nil {
			return fmt.Errorf("write event %d: %w", ev.Seq, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO trace_events (bootstrap_id, seq, kind, attrs)
			VALUES (?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, ev.BootstrapID, ev.Seq, ev.Kind, attrs)
		if err != nil {
			return fmt.Errorf("write event %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap %s: %w", rec.ID, err)
	}
	return nil
}
