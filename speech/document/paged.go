package document

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
)

// PagedRenderer is the engine-facing surface of a fixed-layout renderer.
// Pages are numbered from 1.
type PagedRenderer interface {
	PointerSource

	// CurrentPage reports the visible page and character offset, or
	// ok=false when undetermined.
	CurrentPage() (page, charOffset int, ok bool)

	// Display navigates to a page.
	Display(ctx context.Context, page int) error

	// PageCount returns the number of pages.
	PageCount() int

	// PageText returns a page's raw extractable text.
	PageText(ctx context.Context, page int) (string, error)

	// LocatorAt resolves renderer coordinates into a page position and
	// the text fragment under the pointer.
	LocatorAt(x, y int) (page, offset int, fragment string, ok bool)

	// Highlight marks a character span on a page.
	Highlight(page, charStart, charEnd int) error

	// ClearHighlight removes the mark.
	ClearHighlight()
}

// PagedAdapter adapts a PagedRenderer to the engine.
type PagedAdapter struct {
	r      PagedRenderer
	logger *log.Logger

	mu          sync.Mutex
	onStartHere func(speech.Locator)
	remove      func()
	destroyed   bool
}

// NewPagedAdapter wires the adapter and its gesture detector to the
// renderer's pointer events.
func NewPagedAdapter(r PagedRenderer, logger *log.Logger) *PagedAdapter {
	if logger == nil {
		logger = log.Default()
	}
	a := &PagedAdapter{r: r, logger: logger}
	det := NewDetector(a.gesture)
	a.remove = r.AddPointerListener(det.Handle)
	return a
}

// Kind reports the paged locator variant.
func (a *PagedAdapter) Kind() speech.LocatorKind { return speech.KindPaged }

// Locator returns the currently visible position, or nil when the
// renderer cannot determine one.
func (a *PagedAdapter) Locator() (*speech.Locator, error) {
	page, offset, ok := a.r.CurrentPage()
	if !ok {
		return nil, nil
	}
	return &speech.Locator{
		Kind:       speech.KindPaged,
		Page:       page,
		CharOffset: offset,
	}, nil
}

// GoTo navigates the renderer, skipping the call when the page is already
// displayed.
func (a *PagedAdapter) GoTo(ctx context.Context, loc speech.Locator) error {
	page, _, ok := a.r.CurrentPage()
	if ok && page == loc.Page {
		return nil
	}
	if err := a.r.Display(ctx, loc.Page); err != nil {
		return &speech.NavigationError{Err: err}
	}
	return nil
}

// UnitText returns the page's raw text.
func (a *PagedAdapter) UnitText(ctx context.Context, unitKey string) (string, error) {
	page, err := speech.PageFromKey(unitKey)
	if err != nil {
		return "", err
	}
	return a.r.PageText(ctx, page)
}

// UnitKeys lists page keys in page-number order.
func (a *PagedAdapter) UnitKeys() ([]string, error) {
	count := a.r.PageCount()
	keys := make([]string, 0, count)
	for page := 1; page <= count; page++ {
		keys = append(keys, speech.PageKey(page))
	}
	return keys, nil
}

// AnchorSpan is empty for paged documents; character offsets are already
// precise there.
func (a *PagedAdapter) AnchorSpan(string, int, int) (speech.FineAnchor, speech.FineAnchor, error) {
	return "", "", nil
}

// Highlight marks the sentence's span on its page.
func (a *PagedAdapter) Highlight(s speech.Sentence) error {
	return a.r.Highlight(s.Page, s.CharStart, s.CharEnd)
}

// ClearHighlight removes any active highlight.
func (a *PagedAdapter) ClearHighlight() {
	a.r.ClearHighlight()
}

// OnStartHere registers the gesture callback.
func (a *PagedAdapter) OnStartHere(fn func(speech.Locator)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onStartHere = fn
}

// Destroy removes the pointer listener and clears any highlight.
func (a *PagedAdapter) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	a.destroyed = true
	if a.remove != nil {
		a.remove()
	}
	a.r.ClearHighlight()
}

func (a *PagedAdapter) gesture(x, y int) {
	a.mu.Lock()
	fn := a.onStartHere
	destroyed := a.destroyed
	a.mu.Unlock()
	if fn == nil || destroyed {
		return
	}

	page, offset, fragment, ok := a.r.LocatorAt(x, y)
	if !ok {
		a.logger.Debug("gesture position unresolvable", "x", x, "y", y)
		return
	}
	fn(speech.Locator{
		Kind:       speech.KindPaged,
		Page:       page,
		CharOffset: offset,
		Fragment:   fragment,
	})
}

var _ speech.DocumentAdapter = (*PagedAdapter)(nil)
