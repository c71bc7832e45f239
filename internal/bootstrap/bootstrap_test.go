package bootstrap

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bootsel/internal/engine"
	"github.com/roach88/bootsel/internal/ir"
	"github.com/roach88/bootsel/internal/metadata"
	"github.com/roach88/bootsel/internal/report"
	"github.com/roach88/bootsel/internal/selection"
)

func testManifest() *ir.Manifest {
	return &ir.Manifest{
		Module: "app",
		Properties: []ir.PropertyDecl{
			{Name: "platform", Allowed: []string{"a", "b"}},
			{Name: "locale", Allowed: []string{"en", "fr"}},
		},
		Permutations: []ir.Permutation{
			{Values: []string{"a", "en"}, ArtifactID: "P1"},
			{Values: []string{"a", "fr"}, ArtifactID: "P2"},
			{Values: []string{"b", "en"}, ArtifactID: "P3"},
			{Values: []string{"b", "fr"}, ArtifactID: "P4"},
		},
		Scripts: []ir.Dependency{{Kind: ir.DependencyScript, Src: "lib.js"}},
		Styles:  []ir.Dependency{{Kind: ir.DependencyStyle, Src: "/css/app.css"}},
	}
}

type harness struct {
	ctx      *Context
	alerts   *report.Recorder
	trace    *TraceRecorder
	registry *selection.Registry
	host     *fakeHost
}

func newHarness(resolver metadata.Resolver) *harness {
	alerts := &report.Recorder{}
	trace := &TraceRecorder{}
	ctx := NewContext(alerts, resolver)
	ctx.IDs = engine.NewFixedGenerator("boot-1", "boot-2", "boot-3")
	ctx.Tracer = trace
	ctx.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	return &harness{
		ctx:      ctx,
		alerts:   alerts,
		trace:    trace,
		registry: selection.NewRegistry(),
		host:     &fakeHost{},
	}
}

func (h *harness) env(platform, locale string) {
	h.registry.Register("platform", h.ctx.Config.Provider("platform", selection.Static(platform)))
	h.registry.Register("locale", h.ctx.Config.Provider("locale", selection.Static(locale)))
}

func (h *harness) bootstrap(t *testing.T, m *ir.Manifest) *Bootstrap {
	t.Helper()
	b, err := New(m, h.registry, h.host, h.ctx)
	require.NoError(t, err)
	return b
}

func kinds(events []ir.TraceEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestRun_FetchSelectStartsAfterBothSignals(t *testing.T) {
	for _, order := range []string{"inject-first", "load-first"} {
		t.Run(order, func(t *testing.T) {
			h := newHarness(nil)
			h.env("b", "fr")
			b := h.bootstrap(t, testManifest())

			outcome, err := b.Run()
			require.NoError(t, err)
			assert.Equal(t, ir.OutcomePending, outcome)
			assert.Equal(t, ir.ModeFetchSelect, b.Mode())

			require.Len(t, h.host.frames, 1)
			frame := h.host.frames[0]
			assert.Equal(t, "P4.cache.html", frame.src)

			if order == "inject-first" {
				h.host.fireInject()
				assert.Zero(t, frame.starts)
				h.host.fireLoad()
			} else {
				h.host.fireLoad()
				assert.Zero(t, frame.starts)
				h.host.fireInject()
			}

			assert.Equal(t, 1, frame.starts)
			assert.Equal(t, ir.OutcomeStarted, b.Outcome())
			assert.Equal(t, engine.Lifecycle{InjectionDone: true, LoadDone: true, Started: true}, b.Lifecycle())

			// Repeated signals are no-ops.
			h.host.fireLoad()
			h.host.fireInject()
			assert.Equal(t, 1, frame.starts)
			assert.Zero(t, h.alerts.Len())
		})
	}
}

func TestRun_BadPropertyReported(t *testing.T) {
	h := newHarness(nil)
	h.env("b", "de")
	b := h.bootstrap(t, testManifest())

	outcome, err := b.Run()
	require.NoError(t, err)
	assert.Equal(t, ir.OutcomeBadProperty, outcome)
	assert.Empty(t, h.host.frames, "no artifact loads")
	assert.Equal(t, []string{
		`While attempting to load module "app", property "locale" was set to the unexpected value "de". Allowed values: en,fr`,
	}, h.alerts.Messages())

	events := h.trace.Events()
	last := events[len(events)-1]
	assert.Equal(t, ir.EventBadProperty, last.Kind)
	assert.Equal(t, "en,fr", last.Attrs["allowed"])
}

func TestRun_BadPropertyHandlerSuppressesAlert(t *testing.T) {
	var got []string
	table := &metadata.HandlerTable{
		Property: map[string]report.PropertyErrorHandler{
			"onBad": func(name string, allowed []string, value string) {
				got = append(got, name, value)
				got = append(got, allowed...)
			},
		},
	}
	h := newHarness(table)
	h.env("x", "en")
	h.host.metas = []metadata.Entry{{Name: metadata.NamePropertyErrorFn, Content: "onBad"}}
	b := h.bootstrap(t, testManifest())

	outcome, err := b.Run()
	require.NoError(t, err)
	assert.Equal(t, ir.OutcomeBadProperty, outcome)
	assert.Zero(t, h.alerts.Len())
	assert.Equal(t, []string{"platform", "x", "a", "b"}, got)
}

func TestRun_ProviderFailureIsSilent(t *testing.T) {
	h := newHarness(nil)
	h.registry.Register("platform", func() (string, error) { panic("no navigator") })
	h.registry.Register("locale", selection.Static("en"))
	b := h.bootstrap(t, testManifest())

	outcome, err := b.Run()
	require.NoError(t, err)
	assert.Equal(t, ir.OutcomeUnsupported, outcome)
	assert.Zero(t, h.alerts.Len(), "provider failures are never reported")
	assert.Empty(t, h.host.frames)
	assert.Empty(t, h.host.injected)
}

func TestRun_MetaPropertyOverride(t *testing.T) {
	h := newHarness(nil)
	h.env("b", "en")
	h.host.metas = []metadata.Entry{{Name: metadata.NameProperty, Content: "locale=fr"}}
	b := h.bootstrap(t, testManifest())

	_, err := b.Run()
	require.NoError(t, err)
	assert.Equal(t, "P4", b.Record().ArtifactID)
}

func TestRun_TargetPathUsesBaseAndQuery(t *testing.T) {
	h := newHarness(nil)
	h.env("a", "en")
	h.host.query = "?debug=1&locale=fr"
	h.host.metas = []metadata.Entry{
		{Name: metadata.NameBase, Content: "/static/v2=app"},
		{Name: metadata.NameBase, Content: "/other=lib"},
	}
	b := h.bootstrap(t, testManifest())

	_, err := b.Run()
	require.NoError(t, err)
	assert.Equal(t, "/static/v2/P1.cache.html?debug=1", h.host.frames[0].src)
	assert.Equal(t, []ir.Dependency{
		{Kind: ir.DependencyStyle, Src: "/css/app.css"},
		{Kind: ir.DependencyScript, Src: "/static/v2/lib.js"},
	}, h.host.injected[0])
}

func TestRun_DependenciesInjectedOncePerPage(t *testing.T) {
	h := newHarness(nil)
	h.env("a", "en")

	first := h.bootstrap(t, testManifest())
	_, err := first.Run()
	require.NoError(t, err)

	second := h.bootstrap(t, testManifest())
	_, err = second.Run()
	require.NoError(t, err)

	require.Len(t, h.host.injected, 2)
	assert.Len(t, h.host.injected[0], 2)
	assert.Empty(t, h.host.injected[1], "already injected on this page")

	h.ctx.Navigate()
	third := h.bootstrap(t, testManifest())
	_, err = third.Run()
	require.NoError(t, err)
	assert.Len(t, h.host.injected[2], 2)
}

func TestRun_ArtifactFailureReportsBadLoad(t *testing.T) {
	h := newHarness(nil)
	h.env("a", "fr")
	h.host.failStart = true
	b := h.bootstrap(t, testManifest())

	_, err := b.Run()
	require.NoError(t, err)
	h.host.fireLoad()
	h.host.fireInject()

	assert.Equal(t, ir.OutcomeBadLoad, b.Outcome())
	assert.Equal(t, []string{
		`Failed to load module "app". Please see the log in the development shell for details.`,
	}, h.alerts.Messages())
}

func TestRun_StartExposesResolvedProperties(t *testing.T) {
	h := newHarness(nil)
	h.env("b", "en")
	b := h.bootstrap(t, testManifest())

	_, err := b.Run()
	require.NoError(t, err)
	h.host.fireLoad()
	h.host.fireInject()

	v, ok := h.host.frames[0].scope.Get(ScopeGetProperty)
	require.True(t, ok)
	get := v.(GetPropertyFunc)
	locale, ok := get("locale")
	assert.True(t, ok)
	assert.Equal(t, "en", locale)

	platform, ok := b.GetProperty("platform")
	assert.True(t, ok)
	assert.Equal(t, "b", platform)
}

func TestRun_DirectAttachSkipsSelection(t *testing.T) {
	h := newHarness(nil)
	// Values with no permutation: fetch-and-select would fail.
	h.env("zz", "de")
	h.host.shell = &fakeShell{ok: true}
	b := h.bootstrap(t, testManifest())

	outcome, err := b.Run()
	require.NoError(t, err)
	assert.Equal(t, ir.OutcomeAttached, outcome)
	assert.Equal(t, ir.ModeDirectAttach, b.Mode())
	assert.Equal(t, []string{"app"}, h.host.shell.attached)
	assert.Zero(t, h.alerts.Len())
	assert.Empty(t, h.host.injected)

	scope := h.host.frames[0].scope
	wnd, _ := scope.Get(ScopeWindow)
	doc, _ := scope.Get(ScopeDocument)
	assert.Equal(t, "window", wnd)
	assert.Equal(t, "document", doc)

	get, ok := scope.Get(ScopeGetProperty)
	require.True(t, ok)
	locale, ok := get.(GetPropertyFunc)("locale")
	assert.True(t, ok)
	assert.Equal(t, "de", locale, "live provider value")

	for _, ev := range h.trace.Events() {
		assert.NotEqual(t, ir.EventProperty, ev.Kind)
		assert.NotEqual(t, ir.EventSelected, ev.Kind)
	}
}

func TestRun_DirectAttachFailureIsBadLoad(t *testing.T) {
	var loaded []string
	table := &metadata.HandlerTable{
		Load: map[string]report.LoadErrorHandler{
			"onLoadError": func(m string) { loaded = append(loaded, m) },
		},
	}
	h := newHarness(table)
	h.host.shell = &fakeShell{ok: false}
	h.host.metas = []metadata.Entry{{Name: metadata.NameLoadErrorFn, Content: "onLoadError"}}
	b := h.bootstrap(t, testManifest())

	outcome, err := b.Run()
	require.NoError(t, err)
	assert.Equal(t, ir.OutcomeBadLoad, outcome)
	assert.Equal(t, []string{"app"}, loaded)
	assert.Zero(t, h.alerts.Len())
}

func TestRun_ConfigErrorIsLoud(t *testing.T) {
	h := newHarness(&metadata.HandlerTable{})
	h.env("a", "en")
	h.host.metas = []metadata.Entry{{Name: metadata.NameLoadErrorFn, Content: "function(){}"}}
	b := h.bootstrap(t, testManifest())

	outcome, err := b.Run()
	require.NoError(t, err)
	assert.Equal(t, ir.OutcomeConfigError, outcome)
	assert.Equal(t, ir.OutcomeConfigError, b.Record().Outcome)
	assert.Equal(t, []string{`Bad handler "function(){}" for "bootsel:onLoadErrorFn"`}, h.alerts.Messages())
	assert.Equal(t, []string{ir.EventBootstrap, ir.EventConfigError}, kinds(h.trace.Events()))

	assert.Empty(t, h.host.frames, "no frame after a config error")
	assert.Empty(t, h.host.injected, "no dependency injection after a config error")
	assert.Empty(t, b.Record().ArtifactID)
	assert.Zero(t, b.Lifecycle())
}

func TestRun_ConfigErrorStopsDirectAttach(t *testing.T) {
	shell := &fakeShell{ok: true}
	h := newHarness(&metadata.HandlerTable{})
	h.host.shell = shell
	h.host.metas = []metadata.Entry{{Name: metadata.NameLoadErrorFn, Content: "not a handler!"}}
	b := h.bootstrap(t, testManifest())

	outcome, err := b.Run()
	require.NoError(t, err)
	assert.Equal(t, ir.OutcomeConfigError, outcome)
	assert.Equal(t, ir.ModeDirectAttach, b.Mode())
	assert.Empty(t, h.host.frames)
	assert.Empty(t, shell.attached)
}

func TestRun_ConfigErrorStopsLaterBootstraps(t *testing.T) {
	h := newHarness(&metadata.HandlerTable{})
	h.env("a", "en")
	h.host.metas = []metadata.Entry{{Name: metadata.NameLoadErrorFn, Content: "function(){}"}}

	first := h.bootstrap(t, testManifest())
	_, err := first.Run()
	require.NoError(t, err)

	second := h.bootstrap(t, testManifest())
	outcome, err := second.Run()
	require.NoError(t, err)
	assert.Equal(t, ir.OutcomeConfigError, outcome)
	assert.Len(t, h.alerts.Messages(), 1, "the directive is announced once per page")
	assert.Empty(t, h.host.frames)
}

func TestRun_FetchTraceOrder(t *testing.T) {
	h := newHarness(nil)
	h.env("a", "en")
	b := h.bootstrap(t, testManifest())

	_, err := b.Run()
	require.NoError(t, err)
	h.host.fireLoad()
	h.host.fireInject()

	assert.Equal(t, []string{
		ir.EventBootstrap,
		ir.EventProperty,
		ir.EventProperty,
		ir.EventSelected,
		ir.EventFrameCreated,
		ir.EventLoadDone,
		ir.EventInjectionDone,
		ir.EventStarted,
	}, kinds(h.trace.For("boot-1")))

	rec := b.Record()
	assert.Equal(t, "boot-1", rec.ID)
	assert.Equal(t, ir.OutcomeStarted, rec.Outcome)
	assert.Equal(t, int64(8), rec.Seq)
	assert.NotEmpty(t, rec.ManifestHash)
}

func TestRun_HostFailureIsError(t *testing.T) {
	h := newHarness(nil)
	h.env("a", "en")
	h.host.frameErr = errFrame
	b := h.bootstrap(t, testManifest())

	_, err := b.Run()
	assert.ErrorIs(t, err, errFrame)
}

func TestRun_OnlyOnce(t *testing.T) {
	h := newHarness(nil)
	h.env("a", "en")
	b := h.bootstrap(t, testManifest())

	_, err := b.Run()
	require.NoError(t, err)
	_, err = b.Run()
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestNew_RejectsDuplicateTuples(t *testing.T) {
	m := testManifest()
	m.Permutations = append(m.Permutations, ir.Permutation{Values: []string{"a", "en"}, ArtifactID: "P9"})

	h := newHarness(nil)
	_, err := New(m, h.registry, h.host, h.ctx)
	assert.ErrorIs(t, err, selection.ErrDuplicateTuple)
}

func TestInitHandlers(t *testing.T) {
	h := newHarness(nil)
	b := h.bootstrap(t, testManifest())

	var calls []string
	h.host.hooks.Register(func() { calls = append(calls, "old-resize") }, nil, nil)
	b.InitHandlers(func() { calls = append(calls, "new-resize") }, nil, nil)

	h.host.hooks.Resize()
	assert.Equal(t, []string{"new-resize", "old-resize"}, calls)
}
