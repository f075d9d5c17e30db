package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
)

// memStore is an in-memory Storage with injectable failures and call
// counters.
type memStore struct {
	mu sync.Mutex

	indexes   map[string]*DocumentIndex
	bookmarks map[string]*Bookmark
	settings  map[string]*PlaybackSettings

	indexSaves    int
	bookmarkSaves int
	settingsSaves int

	loadErr error
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{
		indexes:   make(map[string]*DocumentIndex),
		bookmarks: make(map[string]*Bookmark),
		settings:  make(map[string]*PlaybackSettings),
	}
}

func (s *memStore) LoadIndex(_ context.Context, documentID string) (*DocumentIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.indexes[documentID], nil
}

func (s *memStore) SaveIndex(_ context.Context, documentID string, idx *DocumentIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.indexSaves++
	s.indexes[documentID] = idx
	return nil
}

func (s *memStore) LoadBookmark(_ context.Context, documentID string) (*Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.bookmarks[documentID], nil
}

func (s *memStore) SaveBookmark(_ context.Context, documentID string, b Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.bookmarkSaves++
	s.bookmarks[documentID] = &b
	return nil
}

func (s *memStore) LoadSettings(_ context.Context, documentID string) (*PlaybackSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.settings[documentID], nil
}

func (s *memStore) SaveSettings(_ context.Context, documentID string, st PlaybackSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.settingsSaves++
	s.settings[documentID] = &st
	return nil
}

func (s *memStore) bookmark(documentID string) *Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookmarks[documentID]
}

// mockSegmenter splits on terminal punctuation with rune-accurate spans,
// counting calls per unit so idempotence is observable.
type mockSegmenter struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func newMockSegmenter() *mockSegmenter {
	return &mockSegmenter{calls: make(map[string]int)}
}

func (m *mockSegmenter) Segment(_ context.Context, unitKey, text string) ([]Sentence, error) {
	m.mu.Lock()
	m.calls[unitKey]++
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var out []Sentence
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		end := i + 1
		for start < end && unicode.IsSpace(runes[start]) {
			start++
		}
		raw := strings.TrimSpace(string(runes[start:end]))
		if raw != "" {
			out = append(out, Sentence{
				ID:        SentenceID(unitKey, len(out)),
				Text:      raw,
				CharStart: start,
				CharEnd:   end,
			})
		}
		start = end
	}
	return out, nil
}

func (m *mockSegmenter) callCount(unitKey string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[unitKey]
}

// mockAdapter is a scriptable DocumentAdapter over in-memory unit text.
type mockAdapter struct {
	mu sync.Mutex

	kind  LocatorKind
	units map[string]string
	order []string

	visible *Locator
	gotos   []Locator
	gotoErr error

	highlighted []Sentence
	cleared     int
	startHere   func(Locator)
	destroyed   bool
}

func newMockAdapter(kind LocatorKind, order []string, units map[string]string) *mockAdapter {
	return &mockAdapter{kind: kind, order: order, units: units}
}

func (a *mockAdapter) Kind() LocatorKind { return a.kind }

func (a *mockAdapter) Locator() (*Locator, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.visible == nil {
		return nil, nil
	}
	loc := *a.visible
	return &loc, nil
}

func (a *mockAdapter) GoTo(_ context.Context, loc Locator) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gotoErr != nil {
		return a.gotoErr
	}
	a.gotos = append(a.gotos, loc)
	a.visible = &loc
	return nil
}

func (a *mockAdapter) UnitText(_ context.Context, unitKey string) (string, error) {
	text, ok := a.units[unitKey]
	if !ok {
		return "", fmt.Errorf("unknown unit %q", unitKey)
	}
	return text, nil
}

func (a *mockAdapter) UnitKeys() ([]string, error) {
	return a.order, nil
}

func (a *mockAdapter) AnchorSpan(unitKey string, charStart, charEnd int) (FineAnchor, FineAnchor, error) {
	if a.kind == KindPaged {
		return "", "", nil
	}
	return FineAnchor(fmt.Sprintf("%s@%d", unitKey, charStart)),
		FineAnchor(fmt.Sprintf("%s@%d", unitKey, charEnd)), nil
}

func (a *mockAdapter) Highlight(s Sentence) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.highlighted = append(a.highlighted, s)
	return nil
}

func (a *mockAdapter) ClearHighlight() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cleared++
}

func (a *mockAdapter) OnStartHere(fn func(Locator)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.startHere = fn
}

func (a *mockAdapter) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyed = true
}

func (a *mockAdapter) lastHighlight() *Sentence {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.highlighted) == 0 {
		return nil
	}
	s := a.highlighted[len(a.highlighted)-1]
	return &s
}

// mockSynth fabricates audio bytes from the text, optionally failing the
// first failures calls with a backend error.
type mockSynth struct {
	mu       sync.Mutex
	calls    int
	failures int
	failWith error
}

func (m *mockSynth) Synthesize(_ context.Context, text string, opts SynthesisOptions) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		if m.failWith != nil {
			return nil, m.failWith
		}
		return nil, &SynthesisError{StatusCode: 500, Body: "backend exploded"}
	}
	return []byte(opts.Voice + "|" + text), nil
}

func (m *mockSynth) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockDecoder wraps the raw bytes in a fixed-format Audio.
type mockDecoder struct {
	err error
}

func (m mockDecoder) Decode(raw []byte) (*Audio, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &Audio{
		PCM:        raw,
		SampleRate: 22050,
		Channels:   2,
		Duration:   time.Second,
	}, nil
}

// mockPlayer is a device-free AudioPlayer; completion is driven manually.
type mockPlayer struct {
	mu       sync.Mutex
	playing  bool
	position time.Duration
	volume   float64
	done     chan struct{}

	playCalls  int
	stopCalls  int
	lastOffset time.Duration
	playErr    error
}

func newMockPlayer() *mockPlayer {
	return &mockPlayer{volume: 1.0}
}

func (m *mockPlayer) Play(_ *Audio, offset time.Duration) (<-chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return nil, m.playErr
	}
	m.playCalls++
	m.lastOffset = offset
	m.playing = true
	m.position = offset
	m.done = make(chan struct{})
	return m.done, nil
}

// finishCurrent simulates the scheduled audio draining naturally.
func (m *mockPlayer) finishCurrent() {
	m.mu.Lock()
	done := m.done
	m.done = nil
	m.playing = false
	m.mu.Unlock()
	if done != nil {
		close(done)
	}
}

func (m *mockPlayer) Pause() error { return nil }

func (m *mockPlayer) Resume() error { return nil }

func (m *mockPlayer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	m.playing = false
	m.done = nil
	return nil
}

func (m *mockPlayer) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *mockPlayer) setPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

func (m *mockPlayer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *mockPlayer) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = v
}

func (m *mockPlayer) currentVolume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *mockPlayer) Close() error { return m.Stop() }

var (
	_ Storage         = (*memStore)(nil)
	_ Segmenter       = (*mockSegmenter)(nil)
	_ DocumentAdapter = (*mockAdapter)(nil)
	_ Synthesizer     = (*mockSynth)(nil)
	_ Decoder         = mockDecoder{}
	_ AudioPlayer     = (*mockPlayer)(nil)
)
