package speech

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// SentenceIndex is the lazily built, cached mapping from structural units
// to ordered sentence lists, held per document and persisted on every unit
// build. A unit is segmented at most once; built entries short-circuit.
type SentenceIndex struct {
	mu     sync.Mutex
	store  Storage
	seg    Segmenter
	logger *log.Logger

	docs   map[string]*DocumentIndex
	loaded map[string]bool
}

// NewSentenceIndex creates an index backed by the given storage and
// segmentation worker.
func NewSentenceIndex(store Storage, seg Segmenter, logger *log.Logger) *SentenceIndex {
	if logger == nil {
		logger = log.Default()
	}
	return &SentenceIndex{
		store:  store,
		seg:    seg,
		logger: logger,
		docs:   make(map[string]*DocumentIndex),
		loaded: make(map[string]bool),
	}
}

// Build ensures the structural unit containing loc is segmented. Persisted
// index data for the document is loaded once and merged with the in-memory
// cache; an already built unit returns immediately with no worker call.
func (x *SentenceIndex) Build(ctx context.Context, documentID string, adapter DocumentAdapter, loc Locator) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.ensureLoadedLocked(ctx, documentID)

	doc := x.docs[documentID]
	if doc == nil {
		doc = &DocumentIndex{Version: IndexVersion}
		x.docs[documentID] = doc
	}
	us := doc.set(adapter.Kind())

	if len(us.Order) == 0 {
		keys, err := adapter.UnitKeys()
		if err != nil {
			return fmt.Errorf("speech: listing structural units: %w", err)
		}
		us.Order = keys
	}

	unit := loc.UnitKey()
	if entry := us.Units[unit]; entry != nil && entry.Built {
		return nil
	}

	text, err := adapter.UnitText(ctx, unit)
	if err != nil {
		return fmt.Errorf("speech: extracting text for unit %q: %w", unit, err)
	}

	sentences, err := x.seg.Segment(ctx, unit, text)
	if err != nil {
		return err
	}

	for i := range sentences {
		if adapter.Kind() == KindPaged {
			page, err := PageFromKey(unit)
			if err == nil {
				sentences[i].Page = page
			}
			continue
		}
		sentences[i].ChapterRef = unit
		start, end, err := adapter.AnchorSpan(unit, sentences[i].CharStart, sentences[i].CharEnd)
		if err != nil {
			x.logger.Debug("no fine anchors for sentence", "unit", unit, "err", err)
			continue
		}
		sentences[i].FineAnchorStart = start
		sentences[i].FineAnchorEnd = end
	}

	us.Units[unit] = &UnitEntry{Sentences: sentences, Built: true}
	x.logger.Debug("built unit", "document", documentID, "unit", unit, "sentences", len(sentences))

	if err := x.store.SaveIndex(ctx, documentID, doc); err != nil {
		x.logger.Warn("persisting sentence index failed", "document", documentID, "err", err)
	}
	return nil
}

// Sentence looks the sentence up by id within its unit. Returns nil when
// the unit is unknown or unbuilt.
func (x *SentenceIndex) Sentence(documentID string, kind LocatorKind, sentenceID string) *Sentence {
	x.mu.Lock()
	defer x.mu.Unlock()

	us := x.unitSetLocked(documentID, kind)
	if us == nil {
		return nil
	}
	unit, _, err := SplitSentenceID(sentenceID)
	if err != nil {
		return nil
	}
	entry := us.Units[unit]
	if entry == nil || !entry.Built {
		return nil
	}
	for i := range entry.Sentences {
		if entry.Sentences[i].ID == sentenceID {
			s := entry.Sentences[i]
			return &s
		}
	}
	return nil
}

// Next returns the sentence following sentenceID in document order,
// crossing into the next built unit when needed. Returns nil at the end of
// the built document; that is a boundary condition, not an error.
func (x *SentenceIndex) Next(documentID string, kind LocatorKind, sentenceID string) *Sentence {
	return x.step(documentID, kind, sentenceID, 1)
}

// Prev returns the sentence preceding sentenceID in document order,
// crossing into the previous built unit when needed. Returns nil at the
// very start of the document.
func (x *SentenceIndex) Prev(documentID string, kind LocatorKind, sentenceID string) *Sentence {
	return x.step(documentID, kind, sentenceID, -1)
}

func (x *SentenceIndex) step(documentID string, kind LocatorKind, sentenceID string, dir int) *Sentence {
	x.mu.Lock()
	defer x.mu.Unlock()

	us := x.unitSetLocked(documentID, kind)
	if us == nil {
		return nil
	}
	unit, ordinal, err := SplitSentenceID(sentenceID)
	if err != nil {
		return nil
	}

	if entry := us.Units[unit]; entry != nil && entry.Built {
		next := ordinal + dir
		if next >= 0 && next < len(entry.Sentences) {
			s := entry.Sentences[next]
			return &s
		}
	}

	order := unitOrder(us)
	pos := -1
	for i, key := range order {
		if key == unit {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil
	}

	for i := pos + dir; i >= 0 && i < len(order); i += dir {
		entry := us.Units[order[i]]
		if entry == nil || !entry.Built || len(entry.Sentences) == 0 {
			continue
		}
		var s Sentence
		if dir > 0 {
			s = entry.Sentences[0]
		} else {
			s = entry.Sentences[len(entry.Sentences)-1]
		}
		return &s
	}
	return nil
}

// SentencesAt returns all sentences of the unit addressed by loc, building
// the unit first when needed.
func (x *SentenceIndex) SentencesAt(ctx context.Context, documentID string, adapter DocumentAdapter, loc Locator) ([]Sentence, error) {
	if err := x.Build(ctx, documentID, adapter, loc); err != nil {
		return nil, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	us := x.unitSetLocked(documentID, adapter.Kind())
	if us == nil {
		return nil, nil
	}
	entry := us.Units[loc.UnitKey()]
	if entry == nil {
		return nil, nil
	}
	out := make([]Sentence, len(entry.Sentences))
	copy(out, entry.Sentences)
	return out, nil
}

// AllSentences concatenates every built unit in document order. Unbuilt
// units are silently omitted, so progress computed from this is
// approximate until the document is fully indexed.
func (x *SentenceIndex) AllSentences(documentID string, kind LocatorKind) []Sentence {
	x.mu.Lock()
	defer x.mu.Unlock()

	us := x.unitSetLocked(documentID, kind)
	if us == nil {
		return nil
	}
	var out []Sentence
	for _, key := range unitOrder(us) {
		entry := us.Units[key]
		if entry == nil || !entry.Built {
			continue
		}
		out = append(out, entry.Sentences...)
	}
	return out
}

// Forget evicts the in-memory index for a document, forcing the next build
// to reload persisted state and re-segment as needed.
func (x *SentenceIndex) Forget(documentID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.docs, documentID)
	delete(x.loaded, documentID)
}

func (x *SentenceIndex) ensureLoadedLocked(ctx context.Context, documentID string) {
	if x.loaded[documentID] {
		return
	}
	x.loaded[documentID] = true

	persisted, err := x.store.LoadIndex(ctx, documentID)
	if err != nil {
		x.logger.Warn("loading persisted sentence index failed", "document", documentID, "err", err)
		return
	}
	if persisted == nil {
		return
	}

	doc := x.docs[documentID]
	if doc == nil {
		x.docs[documentID] = persisted
		return
	}
	mergeUnitSet(doc.set(KindFlowing), persisted.Flowing)
	mergeUnitSet(doc.set(KindPaged), persisted.Paged)
}

// mergeUnitSet fills dst with persisted units that are not already present
// in memory. In-memory entries win.
func mergeUnitSet(dst *UnitSet, src *UnitSet) {
	if src == nil {
		return
	}
	if len(dst.Order) == 0 {
		dst.Order = src.Order
	}
	for key, entry := range src.Units {
		if _, ok := dst.Units[key]; !ok {
			dst.Units[key] = entry
		}
	}
}

func (x *SentenceIndex) unitSetLocked(documentID string, kind LocatorKind) *UnitSet {
	doc := x.docs[documentID]
	if doc == nil {
		return nil
	}
	return doc.lookup(kind)
}

// unitOrder returns the adapter-reported document order, falling back to
// sorted unit keys (correct for zero-padded page keys).
func unitOrder(us *UnitSet) []string {
	if len(us.Order) > 0 {
		return us.Order
	}
	keys := make([]string, 0, len(us.Units))
	for key := range us.Units {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
