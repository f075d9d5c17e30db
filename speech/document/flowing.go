package document

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
)

// FlowingRenderer is the engine-facing surface of a reflowable-document
// renderer. Fine anchors are produced and interpreted here alone; the
// engine stores and forwards them opaquely.
type FlowingRenderer interface {
	PointerSource

	// CurrentPosition reports the visible chapter and anchor, or ok=false
	// when the renderer cannot determine one.
	CurrentPosition() (chapterRef string, anchor speech.FineAnchor, ok bool)

	// Display navigates to a chapter, optionally at an anchor.
	Display(ctx context.Context, chapterRef string, anchor speech.FineAnchor) error

	// Chapters lists chapter references in document order.
	Chapters() []string

	// ChapterText returns a chapter's raw extractable text.
	ChapterText(ctx context.Context, chapterRef string) (string, error)

	// AnchorForOffset translates a chapter-local character offset into a
	// fine anchor.
	AnchorForOffset(chapterRef string, offset int) (speech.FineAnchor, error)

	// LocatorAt resolves renderer coordinates into a chapter position and
	// the text fragment under the pointer.
	LocatorAt(x, y int) (chapterRef string, offset int, fragment string, ok bool)

	// Highlight marks the span between two anchors.
	Highlight(start, end speech.FineAnchor) error

	// ClearHighlight removes the mark.
	ClearHighlight()
}

// FlowingAdapter adapts a FlowingRenderer to the engine.
type FlowingAdapter struct {
	r      FlowingRenderer
	logger *log.Logger

	mu          sync.Mutex
	onStartHere func(speech.Locator)
	remove      func()
	destroyed   bool
}

// NewFlowingAdapter wires the adapter and its gesture detector to the
// renderer's pointer events.
func NewFlowingAdapter(r FlowingRenderer, logger *log.Logger) *FlowingAdapter {
	if logger == nil {
		logger = log.Default()
	}
	a := &FlowingAdapter{r: r, logger: logger}
	det := NewDetector(a.gesture)
	a.remove = r.AddPointerListener(det.Handle)
	return a
}

// Kind reports the flowing locator variant.
func (a *FlowingAdapter) Kind() speech.LocatorKind { return speech.KindFlowing }

// Locator returns the currently visible position, or nil when the
// renderer cannot determine one.
func (a *FlowingAdapter) Locator() (*speech.Locator, error) {
	chapter, anchor, ok := a.r.CurrentPosition()
	if !ok {
		return nil, nil
	}
	return &speech.Locator{
		Kind:       speech.KindFlowing,
		ChapterRef: chapter,
		FineAnchor: anchor,
	}, nil
}

// GoTo navigates the renderer, skipping the call entirely when the exact
// position is already displayed.
func (a *FlowingAdapter) GoTo(ctx context.Context, loc speech.Locator) error {
	chapter, anchor, ok := a.r.CurrentPosition()
	if ok && chapter == loc.ChapterRef && (loc.FineAnchor == "" || anchor == loc.FineAnchor) {
		return nil
	}
	if err := a.r.Display(ctx, loc.ChapterRef, loc.FineAnchor); err != nil {
		return &speech.NavigationError{Err: err}
	}
	return nil
}

// UnitText returns the chapter's raw text.
func (a *FlowingAdapter) UnitText(ctx context.Context, unitKey string) (string, error) {
	return a.r.ChapterText(ctx, unitKey)
}

// UnitKeys lists chapters in document order.
func (a *FlowingAdapter) UnitKeys() ([]string, error) {
	return a.r.Chapters(), nil
}

// AnchorSpan translates a character span into fine anchors.
func (a *FlowingAdapter) AnchorSpan(unitKey string, charStart, charEnd int) (speech.FineAnchor, speech.FineAnchor, error) {
	start, err := a.r.AnchorForOffset(unitKey, charStart)
	if err != nil {
		return "", "", err
	}
	end, err := a.r.AnchorForOffset(unitKey, charEnd)
	if err != nil {
		return "", "", err
	}
	return start, end, nil
}

// Highlight marks the sentence's anchor span. Sentences without anchors
// are skipped silently.
func (a *FlowingAdapter) Highlight(s speech.Sentence) error {
	if s.FineAnchorStart == "" || s.FineAnchorEnd == "" {
		return nil
	}
	return a.r.Highlight(s.FineAnchorStart, s.FineAnchorEnd)
}

// ClearHighlight removes any active highlight.
func (a *FlowingAdapter) ClearHighlight() {
	a.r.ClearHighlight()
}

// OnStartHere registers the gesture callback.
func (a *FlowingAdapter) OnStartHere(fn func(speech.Locator)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onStartHere = fn
}

// Destroy removes the pointer listener and clears any highlight.
func (a *FlowingAdapter) Destroy() {
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

func (a *FlowingAdapter) gesture(x, y int) {
	a.mu.Lock()
	fn := a.onStartHere
	destroyed := a.destroyed
	a.mu.Unlock()
	if fn == nil || destroyed {
		return
	}

	chapter, offset, fragment, ok := a.r.LocatorAt(x, y)
	if !ok {
		a.logger.Debug("gesture position unresolvable", "x", x, "y", y)
		return
	}
	loc := speech.Locator{
		Kind:       speech.KindFlowing,
		ChapterRef: chapter,
		CharOffset: offset,
		Fragment:   fragment,
	}
	if anchor, err := a.r.AnchorForOffset(chapter, offset); err == nil {
		loc.FineAnchor = anchor
	}
	fn(loc)
}

var _ speech.DocumentAdapter = (*FlowingAdapter)(nil)
