// Package store provides SQLite-backed storage for bootstrap logs.
//
// Two tables are kept:
//   - bootstraps: one summary row per bootstrap (mode, outcome, artifact)
//   - trace_events: the ordered trace of each bootstrap
//
// # Critical Patterns
//
// Logical Time:
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//
// Deterministic Query Results:
//   - Queries order by seq ASC, id ASC COLLATE BINARY
//
// Idempotent Writes:
//   - Rows are written with ON CONFLICT DO NOTHING; recording the same
//     bootstrap twice is a no-op
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Event attributes are stored as canonical JSON (internal/ir) so identical
// traces produce byte-identical rows.
package store
