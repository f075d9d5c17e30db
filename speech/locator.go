// Package speech implements the read-aloud playback engine: it turns a
// position in an open document into a stream of synthesized sentence audio
// with pause/resume/seek, resumable bookmarks, and per-document settings.
package speech

import (
	"fmt"
	"strconv"
)

// LocatorKind tags a Locator with the document format it addresses.
type LocatorKind string

const (
	// KindFlowing addresses reflowable documents by chapter reference.
	KindFlowing LocatorKind = "flowing"
	// KindPaged addresses fixed-layout documents by page number.
	KindPaged LocatorKind = "paged"
)

// FineAnchor is a renderer-opaque position marker for flowing documents.
// The engine only stores and forwards anchors; their internal structure is
// produced and interpreted by the document adapter alone.
type FineAnchor string

// Locator describes a position within a document. A Locator is immutable
// once created; SentenceID stays empty until the position has been resolved
// against the sentence index.
type Locator struct {
	Kind LocatorKind `json:"kind"`

	// Flowing documents.
	ChapterRef string     `json:"chapterRef,omitempty"`
	FineAnchor FineAnchor `json:"fineAnchor,omitempty"`

	// Paged documents.
	Page int `json:"page,omitempty"`

	// CharOffset is the character offset within the structural unit. It is
	// authoritative for paged documents and best-effort for flowing ones
	// (gesture resolution fills it in when the renderer can).
	CharOffset int `json:"charOffset,omitempty"`

	// Fragment optionally carries the tapped text, used to disambiguate
	// near-identical sentences during gesture resolution.
	Fragment string `json:"fragment,omitempty"`

	SentenceID string `json:"sentenceId,omitempty"`
}

// UnitKey returns the structural-unit key the locator addresses: the
// chapter reference for flowing documents, the page key for paged ones.
func (l Locator) UnitKey() string {
	if l.Kind == KindPaged {
		return PageKey(l.Page)
	}
	return l.ChapterRef
}

// WithSentence returns a copy of the locator resolved to the sentence id.
func (l Locator) WithSentence(id string) Locator {
	l.SentenceID = id
	return l
}

// PageKey converts a page number into its zero-padded unit key, so lexical
// comparison of keys yields page order.
func PageKey(page int) string {
	return fmt.Sprintf("%05d", page)
}

// PageFromKey parses a page unit key back into a page number.
func PageFromKey(key string) (int, error) {
	page, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("speech: malformed page key %q: %w", key, err)
	}
	return page, nil
}
