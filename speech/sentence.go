package speech

import (
	"fmt"
	"strconv"
	"strings"
)

// Sentence is one segmented sentence within a structural unit. Sentences
// are created during index build and never mutated afterwards.
type Sentence struct {
	// ID is unique and order-encoding within its unit:
	// "<unitKey>:<0-padded index>", so lexical comparison of ids inside a
	// unit yields document order.
	ID   string `json:"id"`
	Text string `json:"text"`

	// Character span within the unit's raw text.
	CharStart int `json:"charStart"`
	CharEnd   int `json:"charEnd"`

	// Flowing documents.
	ChapterRef      string     `json:"chapterRef,omitempty"`
	FineAnchorStart FineAnchor `json:"fineAnchorStart,omitempty"`
	FineAnchorEnd   FineAnchor `json:"fineAnchorEnd,omitempty"`

	// Paged documents.
	Page int `json:"page,omitempty"`
}

// SentenceID builds the id for the index-th sentence of a unit.
func SentenceID(unitKey string, index int) string {
	return fmt.Sprintf("%s:%05d", unitKey, index)
}

// SplitSentenceID splits a sentence id into its unit key and ordinal.
func SplitSentenceID(id string) (unitKey string, index int, err error) {
	i := strings.LastIndex(id, ":")
	if i < 0 {
		return "", 0, fmt.Errorf("speech: malformed sentence id %q", id)
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("speech: malformed sentence id %q: %w", id, err)
	}
	return id[:i], n, nil
}

// UnitKey returns the structural-unit key encoded in the sentence id.
func (s Sentence) UnitKey() string {
	unit, _, err := SplitSentenceID(s.ID)
	if err != nil {
		return ""
	}
	return unit
}

// Locator returns a resolved locator addressing this sentence.
func (s Sentence) Locator() Locator {
	if s.ChapterRef != "" {
		return Locator{
			Kind:       KindFlowing,
			ChapterRef: s.ChapterRef,
			FineAnchor: s.FineAnchorStart,
			CharOffset: s.CharStart,
			SentenceID: s.ID,
		}
	}
	return Locator{
		Kind:       KindPaged,
		Page:       s.Page,
		CharOffset: s.CharStart,
		SentenceID: s.ID,
	}
}

// UnitEntry holds the segmentation result for one structural unit. Built is
// false only before segmentation has completed; a built entry is never
// re-segmented.
type UnitEntry struct {
	Sentences []Sentence `json:"sentences"`
	Built     bool       `json:"built"`
}

// UnitSet maps unit keys to entries for one document format, remembering
// document order of the units.
type UnitSet struct {
	// Order lists unit keys in document order, as reported by the adapter.
	Order []string              `json:"order,omitempty"`
	Units map[string]*UnitEntry `json:"units"`
}

// DocumentIndex is the lazily built sentence index for one document.
type DocumentIndex struct {
	Version int      `json:"version"`
	Flowing *UnitSet `json:"flowing,omitempty"`
	Paged   *UnitSet `json:"paged,omitempty"`
}

// IndexVersion is bumped when the persisted index layout changes.
const IndexVersion = 1

func (d *DocumentIndex) set(kind LocatorKind) *UnitSet {
	switch kind {
	case KindPaged:
		if d.Paged == nil {
			d.Paged = &UnitSet{Units: make(map[string]*UnitEntry)}
		}
		return d.Paged
	default:
		if d.Flowing == nil {
			d.Flowing = &UnitSet{Units: make(map[string]*UnitEntry)}
		}
		return d.Flowing
	}
}

func (d *DocumentIndex) lookup(kind LocatorKind) *UnitSet {
	if kind == KindPaged {
		return d.Paged
	}
	return d.Flowing
}
