package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/bootsel/internal/engine"
	"github.com/roach88/bootsel/internal/ir"
	"github.com/roach88/bootsel/internal/report"
	"github.com/roach88/bootsel/internal/selection"
)

// Bootstrap runs one module against a host.
//
// A Bootstrap is single-use: Run may be called once. Host callbacks arriving
// after Run returns keep updating the outcome.
type Bootstrap struct {
	manifest *ir.Manifest
	table    *selection.Table
	registry *selection.Registry
	host     Host
	ctx      *Context
	reporter *report.Reporter
	logger   *slog.Logger
	hash     string

	mu          sync.Mutex
	id          string
	ran         bool
	mode        ir.Mode
	outcome     ir.Outcome
	artifact    string
	target      string
	frame       Frame
	coordinator *engine.Coordinator
	lastSeq     int64
}

// ErrAlreadyRun is returned by a second call to Run.
var ErrAlreadyRun = errors.New("bootstrap already run")

// New prepares a bootstrap of manifest's module. The decision table is built
// here so a malformed manifest fails before the host is touched.
func New(manifest *ir.Manifest, registry *selection.Registry, host Host, ctx *Context) (*Bootstrap, error) {
	if ctx == nil {
		return nil, fmt.Errorf("bootstrap %s: nil context", manifest.Module)
	}
	ctx.fill()

	table, err := selection.FromManifest(manifest)
	if err != nil {
		return nil, fmt.Errorf("bootstrap %s: %w", manifest.Module, err)
	}
	hash, err := ir.ManifestHash(manifest)
	if err != nil {
		return nil, fmt.Errorf("bootstrap %s: %w", manifest.Module, err)
	}

	logger := ctx.Logger.With("module", manifest.Module)
	return &Bootstrap{
		manifest: manifest,
		table:    table,
		registry: registry,
		host:     host,
		ctx:      ctx,
		reporter: report.NewReporter(manifest.Module, ctx.Config, ctx.Notifier, report.WithLogger(logger)),
		logger:   logger,
		hash:     hash,
	}, nil
}

// Run ingests metadata, dispatches on the host capability and returns the
// outcome reached synchronously. A fetch-and-select bootstrap normally
// returns ir.OutcomePending; Outcome reports later progress.
//
// The returned error is non-nil only when the host fails to create a frame
// or inject dependencies.
func (b *Bootstrap) Run() (ir.Outcome, error) {
	b.mu.Lock()
	if b.ran {
		b.mu.Unlock()
		return "", ErrAlreadyRun
	}
	b.ran = true
	b.id = b.ctx.IDs.Generate()
	b.mu.Unlock()

	shell, direct := b.host.Shell()
	mode := ir.ModeFetchSelect
	if direct {
		mode = ir.ModeDirectAttach
	}
	b.setMode(mode)

	b.logger.Info("bootstrap starting", "id", b.id, "mode", mode)
	b.trace(ir.EventBootstrap, "module", b.manifest.Module, "mode", string(mode), "manifest_hash", b.hash)

	if n := b.ingest(); n > 0 {
		b.logger.Warn("bootstrap aborted", "id", b.id, "config_errors", n)
		b.setOutcome(ir.OutcomeConfigError)
		return ir.OutcomeConfigError, nil
	}

	if direct {
		return b.runDirect(shell)
	}
	return b.runFetch()
}

// ingest applies the page metadata and returns the number of malformed
// directives. Every bootstrap on a misconfigured page stops here, but only
// the first one traces the individual errors.
func (b *Bootstrap) ingest() int {
	sum, first := b.ctx.ingest(b.host.Metadata())
	if !first {
		return len(sum.Errors)
	}
	for _, d := range sum.Applied {
		b.trace(ir.EventDirective, "kind", string(d.Kind), "key", d.Key, "value", d.Value)
	}
	for _, e := range sum.Errors {
		b.trace(ir.EventConfigError, "name", e.Name, "content", e.Content, "error", e.Err.Error())
	}
	return len(sum.Errors)
}

// runDirect attaches the development shell to a fresh frame. The decision
// table is never consulted.
func (b *Bootstrap) runDirect(shell Shell) (ir.Outcome, error) {
	frame, err := b.host.CreateFrame(b.manifest.Module, "", nil)
	if err != nil {
		return "", fmt.Errorf("create frame for %s: %w", b.manifest.Module, err)
	}
	b.setFrame(frame)

	scope := frame.Global()
	scope.Set(ScopeWindow, b.host.Window())
	scope.Set(ScopeDocument, b.host.Document())
	scope.Set(ScopeGetProperty, GetPropertyFunc(b.liveProperty))
	b.trace(ir.EventFrameCreated, "src", "")

	if !shell.Attach(scope, b.manifest.Module) {
		b.badLoad()
		return b.Outcome(), nil
	}

	b.trace(ir.EventAttached)
	b.setOutcome(ir.OutcomeAttached)
	b.logger.Info("module attached", "id", b.id)
	return ir.OutcomeAttached, nil
}

// runFetch selects a permutation, then loads it and its dependencies.
func (b *Bootstrap) runFetch() (ir.Outcome, error) {
	sel := selection.NewSelector(b.table, b.registry,
		selection.WithLogger(b.logger),
		selection.WithStepFunc(func(prop, value string, static bool) {
			b.trace(ir.EventProperty, "name", prop, "value", value, "static", fmt.Sprint(static))
		}),
	)

	res, err := sel.Select()
	if err != nil {
		return b.selectionFailed(err), nil
	}

	base, _ := b.ctx.Config.BasePath(b.manifest.Module)
	target := TargetPath(base, res.ArtifactID, b.host.Query())
	b.mu.Lock()
	b.artifact = res.ArtifactID
	b.target = target
	b.mu.Unlock()
	b.trace(ir.EventSelected, "artifact", res.ArtifactID, "target", target)

	coord := engine.NewCoordinator(b.start,
		engine.WithCoordinatorLogger(b.logger),
	)
	b.mu.Lock()
	b.coordinator = coord
	b.outcome = ir.OutcomePending
	b.mu.Unlock()
	coord.Begin()

	frame, err := b.host.CreateFrame(b.manifest.Module, target, b.onFrameLoad)
	if err != nil {
		return "", fmt.Errorf("create frame for %s: %w", b.manifest.Module, err)
	}
	b.setFrame(frame)
	b.trace(ir.EventFrameCreated, "src", target)

	deps := pendingDependencies(b.ctx, base, b.manifest.Dependencies())
	if err := b.host.Inject(deps, b.onInjectionDone); err != nil {
		return "", fmt.Errorf("inject dependencies for %s: %w", b.manifest.Module, err)
	}

	b.logger.Info("artifact loading", "id", b.id, "artifact", res.ArtifactID, "target", target, "dependencies", len(deps))
	return b.Outcome(), nil
}

func (b *Bootstrap) selectionFailed(err error) ir.Outcome {
	var bp *selection.BadPropertyError
	if errors.As(err, &bp) {
		b.trace(ir.EventBadProperty,
			"name", bp.Property,
			"value", bp.Value,
			"unset", fmt.Sprint(bp.Unset),
			"allowed", strings.Join(bp.Allowed, ","),
		)
		delivery := b.reporter.BadProperty(bp.Property, bp.Allowed, bp.Value, bp.Unset)
		b.logger.Debug("bad property reported", "id", b.id, "delivery", delivery)
		b.setOutcome(ir.OutcomeBadProperty)
		return ir.OutcomeBadProperty
	}

	// Provider failure: the environment is unsupported. Nothing is reported.
	b.trace(ir.EventProviderFailed, "error", err.Error())
	b.logger.Info("environment unsupported", "id", b.id, "error", err)
	b.setOutcome(ir.OutcomeUnsupported)
	return ir.OutcomeUnsupported
}

func (b *Bootstrap) onFrameLoad() {
	b.trace(ir.EventLoadDone)
	b.coordinator.MarkLoadDone()
}

func (b *Bootstrap) onInjectionDone() {
	b.trace(ir.EventInjectionDone)
	b.coordinator.MarkInjectionDone()
}

// start runs exactly once, from whichever completion arrived second.
func (b *Bootstrap) start() {
	b.mu.Lock()
	frame := b.frame
	b.mu.Unlock()

	frame.Global().Set(ScopeGetProperty, GetPropertyFunc(b.registry.Lookup))
	b.setOutcome(ir.OutcomeStarted)
	b.trace(ir.EventStarted)
	b.logger.Info("artifact started", "id", b.id)

	frame.Start(b.badLoad, b.manifest.Module)
}

func (b *Bootstrap) badLoad() {
	b.trace(ir.EventBadLoad)
	b.setOutcome(ir.OutcomeBadLoad)
	b.reporter.BadLoad()
}

// liveProperty evaluates a property on demand for direct-attach frames.
func (b *Bootstrap) liveProperty(name string) (string, bool) {
	if decl, ok := b.manifest.Property(name); ok && decl.IsStatic() {
		return decl.Static, true
	}
	v, err := b.registry.Evaluate(name)
	if err != nil {
		return "", false
	}
	return v, true
}

// GetProperty returns a resolved property value, the lookup exposed to the
// loaded artifact.
func (b *Bootstrap) GetProperty(name string) (string, bool) {
	if b.Mode() == ir.ModeDirectAttach {
		return b.liveProperty(name)
	}
	return b.registry.Lookup(name)
}

// InitHandlers chains resize and unload callbacks onto the host hooks.
func (b *Bootstrap) InitHandlers(resize func(), beforeUnload BeforeUnloadFunc, unload func()) {
	b.host.Hooks().Register(resize, beforeUnload, unload)
}

// ID returns the bootstrap ID, empty before Run.
func (b *Bootstrap) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.id
}

// Mode returns the chosen mode, empty before Run.
func (b *Bootstrap) Mode() ir.Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// Outcome returns the current outcome.
func (b *Bootstrap) Outcome() ir.Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outcome
}

// Lifecycle returns the coordinator flags. Zero in direct-attach mode and
// before selection succeeds.
func (b *Bootstrap) Lifecycle() engine.Lifecycle {
	b.mu.Lock()
	coord := b.coordinator
	b.mu.Unlock()
	if coord == nil {
		return engine.Lifecycle{}
	}
	return coord.Snapshot()
}

// Record summarizes the bootstrap for storage.
func (b *Bootstrap) Record() ir.BootstrapRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ir.BootstrapRecord{
		ID:           b.id,
		Module:       b.manifest.Module,
		Mode:         b.mode,
		Outcome:      b.outcome,
		ArtifactID:   b.artifact,
		Target:       b.target,
		ManifestHash: b.hash,
		Seq:          b.lastSeq,
	}
}

func (b *Bootstrap) setMode(m ir.Mode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = m
}

func (b *Bootstrap) setOutcome(o ir.Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outcome = o
}

func (b *Bootstrap) setFrame(f Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = f
}

// trace emits an event. attrs alternate key, value.
func (b *Bootstrap) trace(kind string, attrs ...string) {
	ev := ir.TraceEvent{
		BootstrapID: b.ID(),
		Seq:         b.ctx.Clock.Next(),
		Kind:        kind,
	}
	if len(attrs) > 0 {
		ev.Attrs = make(map[string]string, len(attrs)/2)
		for i := 0; i+1 < len(attrs); i += 2 {
			ev.Attrs[attrs[i]] = attrs[i+1]
		}
	}

	b.mu.Lock()
	b.lastSeq = ev.Seq
	b.mu.Unlock()

	b.ctx.Tracer.Trace(ev)
}
