// Package renderer contains terminal document renderers: a flowing
// renderer for markdown split into chapters and a paged renderer for
// pre-paginated plain text. Both feed pointer events to the speech
// adapters and draw sentence highlights with lipgloss.
package renderer

import (
	"sync"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech/document"
)

// pointerHub fans pointer events out to registered listeners. Renderers
// embed it to satisfy document.PointerSource.
type pointerHub struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(document.PointerEvent)
}

// AddPointerListener registers fn and returns its removal function.
func (h *pointerHub) AddPointerListener(fn func(document.PointerEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listeners == nil {
		h.listeners = make(map[int]func(document.PointerEvent))
	}
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

// Pointer injects a raw pointer event, typically from the terminal mouse
// driver.
func (h *pointerHub) Pointer(ev document.PointerEvent) {
	h.mu.Lock()
	fns := make([]func(document.PointerEvent), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
