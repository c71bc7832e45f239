package bootstrap

import "sync"

// BeforeUnloadFunc returns a confirmation message. ok is false when the hook
// has nothing to say.
type BeforeUnloadFunc func() (msg string, ok bool)

// HookSet holds a host's resize, before-unload and unload hooks.
//
// Register chains new callbacks in front of the existing hooks instead of
// replacing them: each composed hook runs the incoming callback first, then
// the previous hook.
//
// Thread-safety: HookSet is safe for concurrent use.
type HookSet struct {
	mu           sync.Mutex
	resize       func()
	beforeUnload BeforeUnloadFunc
	unload       func()
}

// Register chains the callbacks onto the current hooks. Nil callbacks leave
// the corresponding hook unchanged.
func (h *HookSet) Register(resize func(), beforeUnload BeforeUnloadFunc, unload func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if resize != nil {
		h.resize = chain(resize, h.resize)
	}
	if beforeUnload != nil {
		h.beforeUnload = chainBeforeUnload(beforeUnload, h.beforeUnload)
	}
	if unload != nil {
		h.unload = chain(unload, h.unload)
	}
}

func chain(incoming, previous func()) func() {
	return func() {
		incoming()
		if previous != nil {
			previous()
		}
	}
}

// chainBeforeUnload returns the incoming message when it has one, otherwise
// the previous hook's. Both callbacks always run.
func chainBeforeUnload(incoming, previous BeforeUnloadFunc) BeforeUnloadFunc {
	return func() (string, bool) {
		msg, ok := incoming()

		var prevMsg string
		var prevOK bool
		if previous != nil {
			prevMsg, prevOK = previous()
		}

		if ok {
			return msg, true
		}
		return prevMsg, prevOK
	}
}

// Resize fires the resize hook.
func (h *HookSet) Resize() {
	h.mu.Lock()
	fn := h.resize
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// BeforeUnload fires the before-unload hook.
func (h *HookSet) BeforeUnload() (string, bool) {
	h.mu.Lock()
	fn := h.beforeUnload
	h.mu.Unlock()
	if fn == nil {
		return "", false
	}
	return fn()
}

// Unload fires the unload hook.
func (h *HookSet) Unload() {
	h.mu.Lock()
	fn := h.unload
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}
