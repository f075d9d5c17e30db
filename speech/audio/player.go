package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
)

// completionPollInterval is how often the watcher checks whether the
// device has drained the current source.
const completionPollInterval = 50 * time.Millisecond

// OtoPlayer plays decoded PCM through the system audio device. The oto
// context is process-wide and created once at a fixed sample rate; the
// synthesis backend is configured to emit that rate.
type OtoPlayer struct {
	ctx        *oto.Context
	sampleRate int
	channels   int

	mu      sync.Mutex
	player  *oto.Player
	clock   *Clock
	volume  float64
	paused  bool
	current *speech.Audio
	stopCh  chan struct{}
}

// NewOtoPlayer initializes the audio device and waits for it to be ready.
func NewOtoPlayer(sampleRate, channels int) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("audio: initializing output device: %w", err)
	}
	<-ready

	return &OtoPlayer{
		ctx:        ctx,
		sampleRate: sampleRate,
		channels:   channels,
		clock:      &Clock{},
		volume:     1.0,
	}, nil
}

// Play releases any prior source and schedules a, seeking to offset. The
// returned channel closes only when the audio finishes naturally; pause
// and stop leave it open.
func (p *OtoPlayer) Play(a *speech.Audio, offset time.Duration) (<-chan struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseLocked()

	skip := p.byteOffset(a, offset)
	if skip >= len(a.PCM) {
		skip = 0
		offset = 0
	}

	player := p.ctx.NewPlayer(bytes.NewReader(a.PCM[skip:]))
	player.SetVolume(p.volume)
	player.Play()

	p.player = player
	p.current = a
	p.paused = false
	p.clock.Start(offset)
	p.stopCh = make(chan struct{})

	done := make(chan struct{})
	go p.watch(player, p.stopCh, done)
	return done, nil
}

// watch closes done when the device drains the source naturally.
func (p *OtoPlayer) watch(player *oto.Player, stop <-chan struct{}, done chan struct{}) {
	ticker := time.NewTicker(completionPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			paused := p.paused
			p.mu.Unlock()
			if paused {
				continue
			}
			if !player.IsPlaying() {
				close(done)
				return
			}
		}
	}
}

// Pause suspends playback and the clock.
func (p *OtoPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil || p.paused {
		return nil
	}
	p.player.Pause()
	p.paused = true
	p.clock.Pause()
	return nil
}

// Resume continues paused playback.
func (p *OtoPlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil || !p.paused {
		return nil
	}
	p.player.Play()
	p.paused = false
	p.clock.Resume()
	return nil
}

// Stop releases the current source. The completion channel for the
// released source never closes.
func (p *OtoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
	return nil
}

func (p *OtoPlayer) releaseLocked() {
	if p.stopCh != nil {
		close(p.stopCh)
		p.stopCh = nil
	}
	if p.player != nil {
		p.player.Close()
		p.player = nil
	}
	p.current = nil
	p.paused = false
	p.clock.Stop()
}

// Position returns elapsed time within the current sentence, clamped to
// its duration.
func (p *OtoPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	elapsed := p.clock.Elapsed()
	if p.current != nil && elapsed > p.current.Duration {
		elapsed = p.current.Duration
	}
	return elapsed
}

// IsPlaying reports whether audio is actively scheduled and not paused.
func (p *OtoPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.player != nil && !p.paused
}

// SetVolume applies volume to the current and future sources.
func (p *OtoPlayer) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	p.volume = v
	if p.player != nil {
		p.player.SetVolume(v)
	}
}

// Close releases the current source. The oto context itself cannot be
// closed and is left to process teardown.
func (p *OtoPlayer) Close() error {
	return p.Stop()
}

// byteOffset converts a time offset into a frame-aligned byte offset.
func (p *OtoPlayer) byteOffset(a *speech.Audio, offset time.Duration) int {
	if offset <= 0 {
		return 0
	}
	frameSize := a.Channels * decodedBytesPerSample
	frames := int(offset.Seconds() * float64(a.SampleRate))
	return frames * frameSize
}

var _ speech.AudioPlayer = (*OtoPlayer)(nil)
