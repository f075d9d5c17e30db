package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ControllerConfig tunes the playback controller.
type ControllerConfig struct {
	RetryAttempts  int           // attempts for network-bound operations
	RetryBase      time.Duration // initial backoff delay
	AudioCacheSize int           // decoded-audio cache capacity
}

// DefaultControllerConfig returns the engine defaults.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		RetryAttempts:  DefaultRetryAttempts,
		RetryBase:      DefaultRetryBase,
		AudioCacheSize: DefaultAudioCacheSize,
	}
}

// Controller owns the playback state machine, the sentence-to-sentence
// advancement loop, pre-fetching, and bookmark persistence. All external
// mutation goes through its typed transition methods; state is observed
// through the event stream and getters.
type Controller struct {
	mu      sync.Mutex
	machine *StateMachine

	index   *SentenceIndex
	synth   Synthesizer
	decoder Decoder
	player  AudioPlayer
	store   Storage

	cache  *AudioCache
	events *eventBus
	logger *log.Logger
	config ControllerConfig

	documentID string
	adapter    DocumentAdapter
	settings   PlaybackSettings

	current          *Sentence
	offsetInSentence time.Duration
	lastErr          error

	// generation invalidates in-flight completions: stop, pause, and a new
	// playFromLocator bump it, so stale done-signals and pre-fetches are
	// discarded instead of advancing playback.
	generation uint64

	initialized bool
}

// NewController wires the controller from its collaborators.
func NewController(index *SentenceIndex, synth Synthesizer, decoder Decoder, player AudioPlayer, store Storage, cfg ControllerConfig, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}
	return &Controller{
		machine: NewStateMachine(),
		index:   index,
		synth:   synth,
		decoder: decoder,
		player:  player,
		store:   store,
		cache:   NewAudioCache(cfg.AudioCacheSize),
		events:  newEventBus(),
		logger:  logger,
		config:  cfg,
	}
}

// Open binds the controller to a document and its adapter, stopping any
// current playback. Persisted settings override the defaults.
func (c *Controller) Open(ctx context.Context, documentID string, adapter DocumentAdapter) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	first := !c.initialized
	c.haltPlaybackLocked()
	if c.adapter != nil && c.adapter != adapter {
		c.adapter.ClearHighlight()
	}

	c.documentID = documentID
	c.adapter = adapter
	c.current = nil
	c.offsetInSentence = 0
	c.lastErr = nil
	c.settings = DefaultSettings()

	saved, err := c.store.LoadSettings(ctx, documentID)
	if err != nil {
		c.logger.Warn("loading playback settings failed", "document", documentID, "err", err)
	} else if saved != nil {
		c.settings = saved.Clamped()
	}
	c.player.SetVolume(c.settings.Volume)

	c.initialized = true
	if first {
		c.events.publish(Event{Type: EventInitialized})
	}
	c.events.publish(Event{Type: EventBookChanged})
	return nil
}

// Subscribe returns a channel of engine events. Slow subscribers drop
// events rather than blocking playback.
func (c *Controller) Subscribe() <-chan Event {
	return c.events.subscribe()
}

// Unsubscribe closes a subscription channel.
func (c *Controller) Unsubscribe(ch <-chan Event) {
	c.events.unsubscribe(ch)
}

// State returns the current resting state.
func (c *Controller) State() StateType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Current()
}

// Current returns a copy of the sentence under the playback pointer, or
// nil when none is selected.
func (c *Controller) Current() *Sentence {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	s := *c.current
	return &s
}

// LastError returns the most recent terminal playback error.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Settings returns the active playback settings.
func (c *Controller) Settings() PlaybackSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// PlayFromLocator stops any current playback, ensures the index is built
// at loc, and starts playing the first matching sentence from the given
// intra-sentence offset.
func (c *Controller) PlayFromLocator(ctx context.Context, loc Locator, offset time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return ErrNotInitialized
	}

	c.haltPlaybackLocked()
	c.machine.Transition(StateIdle)

	sentences, err := c.index.SentencesAt(ctx, c.documentID, c.adapter, loc)
	if err != nil {
		c.lastErr = err
		return err
	}
	if len(sentences) == 0 {
		c.lastErr = ErrNoSentencesAtLocator
		return fmt.Errorf("%w: unit %q", ErrNoSentencesAtLocator, loc.UnitKey())
	}

	sentence := resolveSentence(sentences, loc)
	c.current = &sentence
	c.offsetInSentence = offset

	if err := c.startSentenceLocked(ctx); err != nil {
		c.toIdleLocked(err)
		return err
	}

	c.machine.Transition(StatePlaying)
	c.events.publish(Event{Type: EventPlaybackStarted, Sentence: c.current})
	return nil
}

// ResumeFromBookmark loads the persisted bookmark, navigates the adapter
// to it, and starts playback there. Silently returns when no bookmark
// exists or the engine is not idle.
func (c *Controller) ResumeFromBookmark(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return ErrNotInitialized
	}
	if c.machine.Current() != StateIdle {
		return nil
	}

	bm, err := c.store.LoadBookmark(ctx, c.documentID)
	if err != nil {
		return fmt.Errorf("speech: loading bookmark: %w", err)
	}
	if bm == nil || bm.LastSentenceID == "" {
		return nil
	}

	sentence := c.index.Sentence(c.documentID, c.adapter.Kind(), bm.LastSentenceID)
	if sentence == nil && bm.LocatorHint != nil {
		if err := c.index.Build(ctx, c.documentID, c.adapter, *bm.LocatorHint); err != nil {
			return err
		}
		sentence = c.index.Sentence(c.documentID, c.adapter.Kind(), bm.LastSentenceID)
	}
	if sentence == nil {
		c.logger.Warn("bookmark sentence no longer resolvable", "sentence", bm.LastSentenceID)
		return nil
	}

	if err := c.adapter.GoTo(ctx, sentence.Locator()); err != nil {
		c.logger.Warn("navigating to bookmark failed", "err", &NavigationError{Err: err})
	}

	c.current = sentence
	c.offsetInSentence = time.Duration(bm.OffsetSeconds * float64(time.Second))

	if err := c.startSentenceLocked(ctx); err != nil {
		c.toIdleLocked(err)
		return err
	}
	c.machine.Transition(StatePlaying)
	c.events.publish(Event{Type: EventPlaybackStarted, Sentence: c.current})
	return nil
}

// Pause captures the elapsed time within the current sentence and releases
// the audio resource. No-op outside StatePlaying.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.Current() != StatePlaying {
		return nil
	}

	c.offsetInSentence = c.player.Position()
	c.generation++
	if err := c.player.Stop(); err != nil {
		c.logger.Warn("releasing audio on pause failed", "err", err)
	}

	c.machine.Transition(StatePaused)
	c.persistBookmarkLocked(context.Background())
	c.events.publish(Event{Type: EventPaused, Sentence: c.current})
	return nil
}

// Resume replays the current sentence from the paused offset. No-op
// outside StatePaused.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.Current() != StatePaused {
		return nil
	}
	if c.current == nil {
		c.machine.Transition(StateIdle)
		return nil
	}

	if err := c.startSentenceLocked(ctx); err != nil {
		c.toIdleLocked(err)
		return err
	}
	c.machine.Transition(StatePlaying)
	c.events.publish(Event{Type: EventResumed, Sentence: c.current})
	return nil
}

// Stop halts playback, clears the adapter highlight, and resets the
// intra-sentence offset. Always ends in StateIdle.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.Current() == StateIdle {
		return nil
	}
	c.haltPlaybackLocked()
	if c.adapter != nil {
		c.adapter.ClearHighlight()
	}
	c.offsetInSentence = 0
	c.machine.Transition(StateIdle)
	c.events.publish(Event{Type: EventStopped})
	return nil
}

// NextSentence advances the playback pointer. When playback is active the
// new sentence starts immediately; otherwise only the pointer and the
// adapter highlight move.
func (c *Controller) NextSentence(ctx context.Context) error {
	return c.seek(ctx, 1)
}

// PrevSentence retreats the playback pointer, mirroring NextSentence.
func (c *Controller) PrevSentence(ctx context.Context) error {
	return c.seek(ctx, -1)
}

func (c *Controller) seek(ctx context.Context, dir int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return ErrNotInitialized
	}
	if c.current == nil {
		return nil
	}

	var target *Sentence
	if dir > 0 {
		target = c.index.Next(c.documentID, c.adapter.Kind(), c.current.ID)
	} else {
		target = c.index.Prev(c.documentID, c.adapter.Kind(), c.current.ID)
	}
	if target == nil {
		return nil
	}

	wasPlaying := c.machine.Current() == StatePlaying
	c.generation++
	if wasPlaying {
		if err := c.player.Stop(); err != nil {
			c.logger.Warn("stopping audio on seek failed", "err", err)
		}
	}

	c.current = target
	c.offsetInSentence = 0
	c.events.publish(Event{Type: EventSentenceChanged, Sentence: c.current})

	if !wasPlaying {
		if err := c.adapter.Highlight(*c.current); err != nil {
			c.logger.Debug("highlight failed", "sentence", c.current.ID, "err", err)
		}
		return nil
	}
	if err := c.startSentenceLocked(ctx); err != nil {
		c.toIdleLocked(err)
		return err
	}
	return nil
}

// SetVoice updates and persists the voice. In-flight audio is unaffected;
// the next sentence picks the change up.
func (c *Controller) SetVoice(voice string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Voice = voice
	c.settings = c.settings.Clamped()
	c.persistSettingsLocked()
}

// SetRate clamps and persists the speech rate.
func (c *Controller) SetRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Rate = rate
	c.settings = c.settings.Clamped()
	c.persistSettingsLocked()
}

// SetVolume clamps and persists the volume, applying it to the player
// immediately without interrupting audio.
func (c *Controller) SetVolume(volume float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Volume = volume
	c.settings = c.settings.Clamped()
	c.player.SetVolume(c.settings.Volume)
	c.persistSettingsLocked()
}

// Progress returns the fraction of built sentences at or before the
// playback pointer. Approximate until the document is fully indexed.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized || c.current == nil {
		return 0
	}
	all := c.index.AllSentences(c.documentID, c.adapter.Kind())
	if len(all) == 0 {
		return 0
	}
	for i := range all {
		if all[i].ID == c.current.ID {
			return float64(i+1) / float64(len(all))
		}
	}
	return 0
}

// Close stops playback and releases the player and event stream.
func (c *Controller) Close() error {
	c.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events.close()
	return c.player.Close()
}

// startSentenceLocked runs the per-sentence playback procedure for
// c.current: obtain audio, schedule it at the current offset, emit the
// sentence event, update highlight and position, persist the bookmark, and
// pre-warm the next sentence. Critical-path failures are returned; side
// operations only log.
func (c *Controller) startSentenceLocked(ctx context.Context) error {
	sentence := *c.current

	a, err := c.audioForLocked(ctx, sentence)
	if err != nil {
		return err
	}

	offset := c.offsetInSentence
	c.offsetInSentence = 0

	done, err := c.player.Play(a, offset)
	if err != nil {
		return fmt.Errorf("speech: scheduling audio for %s: %w", sentence.ID, err)
	}

	c.events.publish(Event{Type: EventSentence, Sentence: &sentence})

	if err := c.adapter.Highlight(sentence); err != nil {
		c.logger.Debug("highlight failed", "sentence", sentence.ID, "err", err)
	}
	c.navigateIfNeededLocked(ctx, sentence)
	c.persistBookmarkLocked(ctx)

	gen := c.generation
	go c.watchCompletion(done, gen)
	go c.prefetchNext(sentence, gen)
	return nil
}

// navigateIfNeededLocked moves the renderer to the sentence only when the
// visible position is in a different unit, avoiding disruptive
// re-navigation while the sentence is already on-screen.
func (c *Controller) navigateIfNeededLocked(ctx context.Context, sentence Sentence) {
	visible, err := c.adapter.Locator()
	if err == nil && visible != nil && visible.UnitKey() == sentence.UnitKey() {
		return
	}
	if err := c.adapter.GoTo(ctx, sentence.Locator()); err != nil {
		c.logger.Warn("navigation failed", "sentence", sentence.ID, "err", &NavigationError{Err: err})
	}
}

// audioForLocked returns decoded audio for the sentence, consulting the
// cache first and synthesizing through the retry helper on a miss.
func (c *Controller) audioForLocked(ctx context.Context, sentence Sentence) (*Audio, error) {
	if a, ok := c.cache.Get(sentence.ID); ok {
		return a, nil
	}

	var raw []byte
	opts := c.settings.Options()
	err := WithRetry(ctx, "synthesize", c.config.RetryAttempts, c.config.RetryBase, func(ctx context.Context) error {
		var err error
		raw, err = c.synth.Synthesize(ctx, sentence.Text, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	a, err := c.decoder.Decode(raw)
	if err != nil {
		return nil, err
	}
	c.cache.Put(sentence.ID, a)
	return a, nil
}

// watchCompletion advances playback when a sentence's audio finishes and
// the engine is still playing the same generation. Stale completions from
// stopped or restarted playback are discarded.
func (c *Controller) watchCompletion(done <-chan struct{}, gen uint64) {
	<-done

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen || c.machine.Current() != StatePlaying || c.current == nil {
		return
	}

	next := c.index.Next(c.documentID, c.adapter.Kind(), c.current.ID)
	if next == nil {
		next = c.extendLocked()
	}
	if next == nil {
		c.haltPlaybackLocked()
		c.adapter.ClearHighlight()
		c.machine.Transition(StateIdle)
		c.events.publish(Event{Type: EventPlaybackEnded, Sentence: c.current})
		return
	}

	c.current = next
	c.offsetInSentence = 0
	c.events.publish(Event{Type: EventSentenceChanged, Sentence: c.current})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := c.startSentenceLocked(ctx); err != nil {
		// A failed sentence stops playback; content is never skipped.
		c.logger.Error("playback halted", "sentence", c.current.ID, "err", err)
		c.toIdleLocked(err)
		c.events.publish(Event{Type: EventStopped, Err: err})
	}
}

// extendLocked lazily extends playback into the next structural unit.
// Paged documents build and enter the next page; flowing documents stop at
// the chapter boundary.
func (c *Controller) extendLocked() *Sentence {
	if c.adapter.Kind() != KindPaged || c.current == nil {
		return nil
	}

	loc := Locator{Kind: KindPaged, Page: c.current.Page + 1}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := c.index.Build(ctx, c.documentID, c.adapter, loc); err != nil {
		c.logger.Warn("extending into next page failed", "page", loc.Page, "err", err)
		return nil
	}
	return c.index.Next(c.documentID, KindPaged, c.current.ID)
}

// prefetchNext opportunistically warms the audio cache with the following
// sentence. Best-effort: failures are logged, never surfaced, and a
// result arriving after a stop is cached but not played.
func (c *Controller) prefetchNext(sentence Sentence, gen uint64) {
	c.mu.Lock()
	if c.generation != gen || !c.initialized {
		c.mu.Unlock()
		return
	}
	documentID := c.documentID
	kind := c.adapter.Kind()
	opts := c.settings.Options()
	c.mu.Unlock()

	next := c.index.Next(documentID, kind, sentence.ID)
	if next == nil {
		return
	}
	if _, ok := c.cache.Get(next.ID); ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	raw, err := c.synth.Synthesize(ctx, next.Text, opts)
	if err != nil {
		c.logger.Debug("prefetch synthesis failed", "sentence", next.ID, "err", err)
		return
	}
	a, err := c.decoder.Decode(raw)
	if err != nil {
		c.logger.Debug("prefetch decode failed", "sentence", next.ID, "err", err)
		return
	}
	c.cache.Put(next.ID, a)
}

// haltPlaybackLocked releases any scheduled audio and invalidates pending
// completions and prefetch generations.
func (c *Controller) haltPlaybackLocked() {
	c.generation++
	if c.player != nil {
		if err := c.player.Stop(); err != nil {
			c.logger.Warn("stopping player failed", "err", err)
		}
	}
}

func (c *Controller) toIdleLocked(err error) {
	c.lastErr = err
	c.haltPlaybackLocked()
	c.machine.Transition(StateIdle)
}

func (c *Controller) persistBookmarkLocked(ctx context.Context) {
	if c.current == nil {
		return
	}
	loc := c.current.Locator()
	bm := Bookmark{
		LastSentenceID: c.current.ID,
		OffsetSeconds:  c.offsetInSentence.Seconds(),
		LocatorHint:    &loc,
	}
	if err := c.store.SaveBookmark(ctx, c.documentID, bm); err != nil {
		c.logger.Warn("saving bookmark failed", "sentence", c.current.ID, "err", err)
	}
}

func (c *Controller) persistSettingsLocked() {
	if !c.initialized {
		return
	}
	if err := c.store.SaveSettings(context.Background(), c.documentID, c.settings); err != nil {
		c.logger.Warn("saving playback settings failed", "err", err)
	}
}

// resolveSentence picks the sentence a locator addresses: an explicit
// sentence id wins, otherwise the first sentence whose span contains the
// character offset or the nearest one after it, otherwise the fragment
// match, otherwise the last sentence of the unit.
func resolveSentence(sentences []Sentence, loc Locator) Sentence {
	if loc.SentenceID != "" {
		for i := range sentences {
			if sentences[i].ID == loc.SentenceID {
				return sentences[i]
			}
		}
	}
	if loc.Fragment != "" {
		for i := range sentences {
			if containsFold(sentences[i].Text, loc.Fragment) {
				return sentences[i]
			}
		}
	}
	for i := range sentences {
		if sentences[i].CharEnd > loc.CharOffset {
			return sentences[i]
		}
	}
	return sentences[len(sentences)-1]
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
