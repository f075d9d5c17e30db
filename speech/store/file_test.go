package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	return s
}

// TestFileStoreMissingIsNil tests the nothing-saved-yet condition.
func TestFileStoreMissingIsNil(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	if idx, err := s.LoadIndex(ctx, "doc-1"); idx != nil || err != nil {
		t.Errorf("LoadIndex = (%v, %v), want (nil, nil)", idx, err)
	}
	if bm, err := s.LoadBookmark(ctx, "doc-1"); bm != nil || err != nil {
		t.Errorf("LoadBookmark = (%v, %v), want (nil, nil)", bm, err)
	}
	if ps, err := s.LoadSettings(ctx, "doc-1"); ps != nil || err != nil {
		t.Errorf("LoadSettings = (%v, %v), want (nil, nil)", ps, err)
	}
}

// TestFileStoreRoundTrips tests persistence of all three state kinds.
func TestFileStoreRoundTrips(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	settings := speech.PlaybackSettings{Voice: "alba", Rate: 1.5, Volume: 0.8}
	if err := s.SaveSettings(ctx, "doc-1", settings); err != nil {
		t.Fatalf("SaveSettings error: %v", err)
	}
	if got, err := s.LoadSettings(ctx, "doc-1"); err != nil || got == nil || *got != settings {
		t.Errorf("LoadSettings = (%+v, %v), want %+v", got, err, settings)
	}

	bm := speech.Bookmark{LastSentenceID: "00003:00001", OffsetSeconds: 2.25}
	if err := s.SaveBookmark(ctx, "doc-1", bm); err != nil {
		t.Fatalf("SaveBookmark error: %v", err)
	}
	got, err := s.LoadBookmark(ctx, "doc-1")
	if err != nil || got == nil || got.LastSentenceID != bm.LastSentenceID || got.OffsetSeconds != bm.OffsetSeconds {
		t.Errorf("LoadBookmark = (%+v, %v)", got, err)
	}

	idx := &speech.DocumentIndex{Version: speech.IndexVersion}
	idx.Paged = &speech.UnitSet{
		Order: []string{speech.PageKey(1)},
		Units: map[string]*speech.UnitEntry{
			speech.PageKey(1): {Built: true, Sentences: []speech.Sentence{{ID: "00001:00000", Text: "Hi there.", Page: 1}}},
		},
	}
	if err := s.SaveIndex(ctx, "doc-1", idx); err != nil {
		t.Fatalf("SaveIndex error: %v", err)
	}
	loaded, err := s.LoadIndex(ctx, "doc-1")
	if err != nil || loaded == nil {
		t.Fatalf("LoadIndex = (%v, %v)", loaded, err)
	}
	if entry := loaded.Paged.Units[speech.PageKey(1)]; entry == nil || !entry.Built || entry.Sentences[0].Text != "Hi there." {
		t.Errorf("loaded entry = %+v", entry)
	}
}

// TestFileStoreLastWriteWins tests bookmark overwrites.
func TestFileStoreLastWriteWins(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	for _, id := range []string{"ch-0001:00000", "ch-0001:00001", "ch-0001:00002"} {
		if err := s.SaveBookmark(ctx, "doc-1", speech.Bookmark{LastSentenceID: id}); err != nil {
			t.Fatalf("SaveBookmark(%s) error: %v", id, err)
		}
	}
	got, err := s.LoadBookmark(ctx, "doc-1")
	if err != nil || got == nil || got.LastSentenceID != "ch-0001:00002" {
		t.Errorf("LoadBookmark = (%+v, %v), want last write", got, err)
	}
}

// TestFileStoreEscapesDocumentIDs tests that path-hostile ids map to
// safe directory names.
func TestFileStoreEscapesDocumentIDs(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, nil)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	ctx := context.Background()

	docID := "shelf/book one"
	if err := s.SaveSettings(ctx, docID, speech.DefaultSettings()); err != nil {
		t.Fatalf("SaveSettings error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "shelf%2Fbook%20one", "settings.json")); err != nil {
		t.Errorf("expected escaped directory: %v", err)
	}
	if got, err := s.LoadSettings(ctx, docID); err != nil || got == nil {
		t.Errorf("LoadSettings = (%+v, %v)", got, err)
	}
}

// TestFileStoreIsolatesDocuments tests that documents do not share
// state.
func TestFileStoreIsolatesDocuments(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	if err := s.SaveBookmark(ctx, "doc-1", speech.Bookmark{LastSentenceID: "a:00000"}); err != nil {
		t.Fatalf("SaveBookmark error: %v", err)
	}
	if bm, err := s.LoadBookmark(ctx, "doc-2"); bm != nil || err != nil {
		t.Errorf("LoadBookmark(doc-2) = (%+v, %v), want (nil, nil)", bm, err)
	}
}
