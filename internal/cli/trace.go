package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bootsel/internal/ir"
	"github.com/roach88/bootsel/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Module   string // list filters
	Outcome  string
	Artifact string
	Kind     string // trace filter
}

// TraceResult is one recorded bootstrap with its trace.
type TraceResult struct {
	Record ir.BootstrapRecord `json:"record"`
	Trace  []ir.TraceEvent    `json:"trace"`
	Stats  TraceStats         `json:"stats"`
}

// TraceStats summarizes a trace.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	ByKind      map[string]int `json:"by_kind"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [bootstrap-id]",
		Short: "Inspect recorded bootstraps",
		Long: `Inspect bootstraps recorded by "bootsel select --db".

Without an argument, lists recorded bootstraps in the order they ran.
With a bootstrap ID, prints its summary and trace.

Examples:
  bootsel trace --db ./bootsel.db
  bootsel trace --db ./bootsel.db --module app
  bootsel trace --db ./bootsel.db --outcome bad_load
  bootsel trace --db ./bootsel.db 0190f3a2-... --kind property
  bootsel trace --db ./bootsel.db 0190f3a2-... --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runTrace(cmd.Context(), opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default store.path)")
	cmd.Flags().StringVar(&opts.Module, "module", "", "list only bootstraps of this module")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "list only bootstraps with this outcome")
	cmd.Flags().StringVar(&opts.Artifact, "artifact", "", "list only bootstraps that selected this artifact")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "show only trace events of this kind")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, id string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.settings().Store.Path
	}
	if dbPath == "" {
		return inputError(formatter, "no database: pass --db or set store.path")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if id == "" {
		return listBootstraps(ctx, formatter, st, store.BootstrapFilter{
			Module:     opts.Module,
			Outcome:    opts.Outcome,
			ArtifactID: opts.Artifact,
		})
	}

	rec, err := st.ReadBootstrap(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		msg := fmt.Sprintf("bootstrap not found: %s", id)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read bootstrap", err)
	}

	events, err := st.ReadTrace(ctx, id)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}
	formatter.VerboseLog("Read %d trace event(s) for %s", len(events), id)

	result := TraceResult{
		Record: rec,
		Trace:  filterKind(events, opts.Kind),
		Stats:  calculateTraceStats(events),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	outputTraceText(formatter, result)
	return nil
}

func listBootstraps(ctx context.Context, formatter *OutputFormatter, st *store.Store, filter store.BootstrapFilter) error {
	recs, err := st.FindBootstraps(ctx, filter.Predicate())
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list bootstraps", err)
	}
	if recs == nil {
		recs = []ir.BootstrapRecord{}
	}

	if formatter.Format == "json" {
		return formatter.Success(recs)
	}
	if len(recs) == 0 {
		fmt.Fprintln(formatter.Writer, "No bootstraps recorded")
		return nil
	}
	for _, r := range recs {
		artifact := r.ArtifactID
		if artifact == "" {
			artifact = "-"
		}
		fmt.Fprintf(formatter.Writer, "%s  %-8s %-13s %-12s %s\n", r.ID, r.Module, r.Mode, r.Outcome, artifact)
	}
	return nil
}

func outputTraceText(formatter *OutputFormatter, r TraceResult) {
	w := formatter.Writer
	rec := r.Record
	fmt.Fprintf(w, "Bootstrap %s\n", rec.ID)
	fmt.Fprintf(w, "  module:   %s\n", rec.Module)
	fmt.Fprintf(w, "  mode:     %s\n", rec.Mode)
	fmt.Fprintf(w, "  outcome:  %s\n", rec.Outcome)
	if rec.ArtifactID != "" {
		fmt.Fprintf(w, "  artifact: %s\n", rec.ArtifactID)
	}
	if rec.Target != "" {
		fmt.Fprintf(w, "  target:   %s\n", rec.Target)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Trace:")
	if len(r.Trace) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range r.Trace {
		fmt.Fprintf(w, "  [%d] %s%s\n", ev.Seq, ev.Kind, formatAttrs(ev.Attrs))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d event(s)\n", r.Stats.TotalEvents)
}

func filterKind(events []ir.TraceEvent, kind string) []ir.TraceEvent {
	if kind == "" {
		return events
	}
	out := []ir.TraceEvent{}
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func calculateTraceStats(events []ir.TraceEvent) TraceStats {
	stats := TraceStats{TotalEvents: len(events), ByKind: make(map[string]int)}
	for _, ev := range events {
		stats.ByKind[ev.Kind]++
	}
	return stats
}

// formatAttrs renders attributes as " k=v k=v" in key order.
func formatAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		if k == "manifest_hash" {
			continue
		}
		fmt.Fprintf(&b, " %s=%q", k, attrs[k])
	}
	return b.String()
}
