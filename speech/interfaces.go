package speech

import (
	"context"
	"time"
)

// SynthesisOptions parameterize one synthesis request.
type SynthesisOptions struct {
	Voice  string
	Rate   float64
	Volume float64
}

// Synthesizer converts sentence text into encoded audio bytes. Results are
// expected to be deterministic enough to memoize per (text, options).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts SynthesisOptions) ([]byte, error)
}

// Audio is decoded, playable audio for one sentence.
type Audio struct {
	PCM        []byte
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// Decoder turns synthesized bytes into playable audio.
type Decoder interface {
	Decode(raw []byte) (*Audio, error)
}

// AudioPlayer schedules decoded audio against a monotonic audio clock. At
// most one sentence may be scheduled at a time; Play releases any prior
// source first. The returned channel closes when the audio finishes
// naturally; it stays open if playback is paused or stopped.
type AudioPlayer interface {
	Play(a *Audio, offset time.Duration) (<-chan struct{}, error)
	Pause() error
	Resume() error
	Stop() error
	Position() time.Duration
	IsPlaying() bool
	SetVolume(v float64)
	Close() error
}

// Segmenter splits a structural unit's raw text into ordered sentences.
type Segmenter interface {
	Segment(ctx context.Context, unitKey, text string) ([]Sentence, error)
}

// Storage persists per-document engine state. Loads return (nil, nil) when
// nothing has been saved yet; that is a normal condition, not an error.
type Storage interface {
	LoadIndex(ctx context.Context, documentID string) (*DocumentIndex, error)
	SaveIndex(ctx context.Context, documentID string, idx *DocumentIndex) error

	LoadBookmark(ctx context.Context, documentID string) (*Bookmark, error)
	SaveBookmark(ctx context.Context, documentID string, b Bookmark) error

	LoadSettings(ctx context.Context, documentID string) (*PlaybackSettings, error)
	SaveSettings(ctx context.Context, documentID string, s PlaybackSettings) error
}

// DocumentAdapter bridges the engine to a concrete document renderer. One
// implementation exists per supported format; the engine selects behavior
// through this interface only, never through renderer internals.
type DocumentAdapter interface {
	// Kind reports which locator variant the adapter produces.
	Kind() LocatorKind

	// Locator returns the current visible position, or nil if the renderer
	// cannot determine one.
	Locator() (*Locator, error)

	// GoTo navigates the renderer. It must be a no-op when the renderer is
	// already at the exact position, to avoid jitter during playback.
	GoTo(ctx context.Context, loc Locator) error

	// UnitText returns the raw extractable text of a structural unit.
	UnitText(ctx context.Context, unitKey string) (string, error)

	// UnitKeys lists all structural units in document order.
	UnitKeys() ([]string, error)

	// AnchorSpan translates a character span within a unit into fine
	// anchors. Paged adapters return empty anchors.
	AnchorSpan(unitKey string, charStart, charEnd int) (FineAnchor, FineAnchor, error)

	// Highlight marks the sentence currently being read. Failures degrade
	// silently; playback never halts because highlighting failed.
	Highlight(s Sentence) error

	// ClearHighlight removes any active highlight.
	ClearHighlight()

	// OnStartHere registers the callback fired when the user performs the
	// "begin reading from here" gesture. The callback receives a
	// best-effort locator resolved from renderer coordinates.
	OnStartHere(fn func(Locator))

	// Destroy releases gesture listeners and clears any highlight.
	Destroy()
}
