package speech

// Valid ranges for playback settings.
const (
	MinRate = 0.25
	MaxRate = 4.0

	MinVolume = 0.0
	MaxVolume = 1.0
)

// PlaybackSettings are the per-document voice parameters. Defaults apply
// first; values persisted for the document override them at open time.
type PlaybackSettings struct {
	Voice  string  `json:"voice"`
	Rate   float64 `json:"rate"`
	Volume float64 `json:"volume"`
}

// DefaultSettings returns the engine defaults.
func DefaultSettings() PlaybackSettings {
	return PlaybackSettings{
		Voice:  "default",
		Rate:   1.0,
		Volume: 1.0,
	}
}

// Clamped returns a copy with rate and volume forced into their valid
// ranges and an empty voice replaced by the default.
func (s PlaybackSettings) Clamped() PlaybackSettings {
	if s.Voice == "" {
		s.Voice = DefaultSettings().Voice
	}
	if s.Rate < MinRate {
		s.Rate = MinRate
	} else if s.Rate > MaxRate {
		s.Rate = MaxRate
	}
	if s.Volume < MinVolume {
		s.Volume = MinVolume
	} else if s.Volume > MaxVolume {
		s.Volume = MaxVolume
	}
	return s
}

// Options converts the settings into synthesis options.
func (s PlaybackSettings) Options() SynthesisOptions {
	return SynthesisOptions{
		Voice:  s.Voice,
		Rate:   s.Rate,
		Volume: s.Volume,
	}
}

// Bookmark records the last played position for a document. Last write
// wins; it is updated on every sentence start and on pause.
type Bookmark struct {
	LastSentenceID string   `json:"lastSentenceId"`
	OffsetSeconds  float64  `json:"offsetSeconds"`
	LocatorHint    *Locator `json:"locatorHint,omitempty"`
}
