package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bootsel/internal/engine"
	"github.com/roach88/bootsel/internal/ir"
	"github.com/roach88/bootsel/internal/metadata"
	"github.com/roach88/bootsel/internal/report"
	"github.com/roach88/bootsel/internal/simhost"
	"github.com/roach88/bootsel/internal/store"
)

// SelectOptions holds flags for the select command.
type SelectOptions struct {
	*RootOptions
	Env        []string // name=value, repeatable
	Metas      []string // name=content, repeatable
	HTML       string   // page whose <meta> tags are scanned
	Fail       []string
	Direct     bool
	ShellFails bool
	FailStart  bool
	Order      string
	Query      string
	DB         string
}

// SelectionResult is the select command's JSON payload.
type SelectionResult struct {
	Record       ir.BootstrapRecord `json:"record"`
	Alerts       []string           `json:"alerts,omitempty"`
	HandlerCalls []string           `json:"handler_calls,omitempty"`
	Injected     []ir.Dependency    `json:"injected,omitempty"`
	Trace        []ir.TraceEvent    `json:"trace"`
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "select [manifest-dir]",
		Short: "Bootstrap a module on a simulated page",
		Long: `Bootstrap a module on a simulated page and report the outcome.

Property values come from --env (and module.env in the config file); page
metadata from --meta and the <meta> tags of --html. The manifest directory
defaults to module.dir from the config file. With --db (or store.path) the
bootstrap and its trace are recorded.

Exits 1 when the bootstrap ends in bad_property, unsupported or bad_load.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runSelect(cmd.Context(), opts, dir, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Env, "env", nil, "property value name=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Metas, "meta", nil, "page metadata name=content (repeatable)")
	cmd.Flags().StringVar(&opts.HTML, "html", "", "HTML page to read metadata from")
	cmd.Flags().StringSliceVar(&opts.Fail, "fail", nil, "properties whose provider fails")
	cmd.Flags().BoolVar(&opts.Direct, "direct", false, "make a development shell available")
	cmd.Flags().BoolVar(&opts.ShellFails, "shell-fails", false, "make the development shell fail to attach")
	cmd.Flags().BoolVar(&opts.FailStart, "fail-start", false, "make the artifact report an initialization failure")
	cmd.Flags().StringVar(&opts.Order, "order", "", "signal order: load-first (default) or inject-first")
	cmd.Flags().StringVar(&opts.Query, "query", "", "page query string, including the leading '?'")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record the bootstrap to this database")

	return cmd
}

func runSelect(ctx context.Context, opts *SelectOptions, dir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	settings := opts.settings()

	if dir == "" {
		dir = settings.Module.Dir
	}
	if dir == "" {
		return inputError(formatter, "no manifest directory: pass one or set module.dir")
	}

	loaded, errs := LoadManifest(dir, LoadModeFailFast)
	if len(errs) > 0 {
		code, message := errorCode(errs[0])
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}
	m := loaded.Manifest
	if settings.Module.Name != "" && settings.Module.Name != m.Module {
		return inputError(formatter, fmt.Sprintf("manifest module %q does not match configured module %q", m.Module, settings.Module.Name))
	}

	params, err := opts.params(settings.Module.Env)
	if err != nil {
		return inputError(formatter, err.Error())
	}
	params.Logger = slog.Default()
	if formatter.Format == "text" {
		params.Notifier = report.NewWriterNotifier(cmd.ErrOrStderr())
	}

	dbPath := opts.DB
	if dbPath == "" {
		dbPath = settings.Store.Path
	}

	var st *store.Store
	if dbPath != "" {
		st, err = store.Open(dbPath)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		seq, err := st.MaxSeq(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read database", err)
		}
		params.Clock = engine.NewClockAt(seq)
	}

	res, err := simhost.Simulate(m, params)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bootstrap failed", err)
	}
	formatter.VerboseLog("Bootstrap %s: %d trace event(s)", res.Record.ID, len(res.Events))

	if st != nil {
		if err := st.WriteBootstrap(ctx, res.Record, res.Events); err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record bootstrap", err)
		}
		formatter.VerboseLog("Recorded bootstrap %s to %s", res.Record.ID, dbPath)
	}

	if err := outputSelection(formatter, res); err != nil {
		return err
	}
	if failedOutcome(res.Record.Outcome) {
		return NewExitError(ExitFailure, fmt.Sprintf("bootstrap ended in %s", res.Record.Outcome))
	}
	return nil
}

// params builds the simulation parameters. Flag values override base.
func (o *SelectOptions) params(base map[string]string) (simhost.Params, error) {
	order, err := simhost.ParseOrder(o.Order)
	if err != nil {
		return simhost.Params{}, err
	}
	if o.ShellFails && !o.Direct {
		return simhost.Params{}, fmt.Errorf("--shell-fails requires --direct")
	}

	env := make(map[string]string, len(base)+len(o.Env))
	for k, v := range base {
		env[k] = v
	}
	for _, pair := range o.Env {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return simhost.Params{}, fmt.Errorf("invalid --env %q: want name=value", pair)
		}
		env[name] = value
	}

	var metas []metadata.Entry
	if o.HTML != "" {
		f, err := os.Open(o.HTML)
		if err != nil {
			return simhost.Params{}, fmt.Errorf("open page: %w", err)
		}
		metas, err = metadata.ScanHTML(f)
		f.Close()
		if err != nil {
			return simhost.Params{}, fmt.Errorf("scan page %s: %w", o.HTML, err)
		}
	}
	// Flag entries follow the page's own, so they win on repeated names.
	for _, pair := range o.Metas {
		name, content, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return simhost.Params{}, fmt.Errorf("invalid --meta %q: want name=content", pair)
		}
		metas = append(metas, metadata.Entry{Name: name, Content: content})
	}

	return simhost.Params{
		Options: simhost.Options{
			Direct:     o.Direct,
			ShellFails: o.ShellFails,
			FailStart:  o.FailStart,
			Metas:      metas,
			Query:      o.Query,
			Order:      order,
		},
		Env:  env,
		Fail: o.Fail,
	}, nil
}

func outputSelection(formatter *OutputFormatter, res *simhost.Result) error {
	if formatter.Format == "json" {
		return formatter.Success(SelectionResult{
			Record:       res.Record,
			Alerts:       res.Alerts,
			HandlerCalls: res.HandlerCalls,
			Injected:     res.Injected,
			Trace:        res.Events,
		})
	}

	rec := res.Record
	w := formatter.Writer
	mark := "✓"
	if failedOutcome(rec.Outcome) {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s: %s\n", mark, rec.Module, rec.Outcome)
	fmt.Fprintf(w, "  bootstrap: %s\n", rec.ID)
	fmt.Fprintf(w, "  mode:      %s\n", rec.Mode)
	if rec.ArtifactID != "" {
		fmt.Fprintf(w, "  artifact:  %s\n", rec.ArtifactID)
	}
	if rec.Target != "" {
		fmt.Fprintf(w, "  target:    %s\n", rec.Target)
	}
	for _, d := range res.Injected {
		fmt.Fprintf(w, "  injected:  %s %s\n", d.Kind, d.Src)
	}
	if formatter.Verbose {
		fmt.Fprintln(w)
		for _, ev := range res.Events {
			fmt.Fprintf(w, "  [%d] %s%s\n", ev.Seq, ev.Kind, formatAttrs(ev.Attrs))
		}
	}
	return nil
}

func failedOutcome(o ir.Outcome) bool {
	switch o {
	case ir.OutcomeBadProperty, ir.OutcomeUnsupported, ir.OutcomeBadLoad, ir.OutcomeConfigError:
		return true
	}
	return false
}

func inputError(formatter *OutputFormatter, message string) error {
	_ = formatter.Error(ErrCodeBadInput, message, nil)
	return NewExitError(ExitCommandError, message)
}
