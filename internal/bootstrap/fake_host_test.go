package bootstrap

import (
	"errors"

	"github.com/roach88/bootsel/internal/ir"
	"github.com/roach88/bootsel/internal/metadata"
)

type mapScope map[string]any

func (s mapScope) Set(name string, value any) { s[name] = value }

func (s mapScope) Get(name string) (any, bool) {
	v, ok := s[name]
	return v, ok
}

type fakeFrame struct {
	scope     mapScope
	src       string
	starts    int
	onFailure func()
	failStart bool
}

func (f *fakeFrame) Global() Scope { return f.scope }

func (f *fakeFrame) Start(onFailure func(), module string) {
	f.starts++
	f.onFailure = onFailure
	if f.failStart {
		onFailure()
	}
}

type fakeShell struct {
	ok       bool
	attached []string
}

func (s *fakeShell) Attach(scope Scope, module string) bool {
	s.attached = append(s.attached, module)
	return s.ok
}

// fakeHost holds completion callbacks until the test fires them.
type fakeHost struct {
	shell     *fakeShell
	metas     []metadata.Entry
	query     string
	hooks     HookSet
	frames    []*fakeFrame
	onLoad    []func()
	injected  [][]ir.Dependency
	onInject  []func()
	frameErr  error
	failStart bool
}

func (h *fakeHost) Shell() (Shell, bool) {
	if h.shell == nil {
		return nil, false
	}
	return h.shell, true
}

func (h *fakeHost) Metadata() []metadata.Entry { return h.metas }
func (h *fakeHost) Query() string { return h.query }
func (h *fakeHost) Window() any { return "window" }
func (h *fakeHost) Document() any { return "document" }
func (h *fakeHost) Hooks() *HookSet { return &h.hooks }

func (h *fakeHost) CreateFrame(id, src string, onLoad func()) (Frame, error) {
	if h.frameErr != nil {
		return nil, h.frameErr
	}
	f := &fakeFrame{scope: mapScope{}, src: src, failStart: h.failStart}
	h.frames = append(h.frames, f)
	if onLoad != nil {
		h.onLoad = append(h.onLoad, onLoad)
	}
	return f, nil
}

func (h *fakeHost) Inject(deps []ir.Dependency, done func()) error {
	h.injected = append(h.injected, deps)
	h.onInject = append(h.onInject, done)
	return nil
}

func (h *fakeHost) fireLoad() { h.onLoad[len(h.onLoad)-1]() }
func (h *fakeHost) fireInject() { h.onInject[len(h.onInject)-1]() }

var errFrame = errors.New("frame quota reached")
