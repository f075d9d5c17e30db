package audio

import (
	"sync"
	"time"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
)

// MockPlayer is a device-free AudioPlayer for tests. Completion is driven
// manually with FinishCurrent, and Position can be set directly.
type MockPlayer struct {
	mu       sync.Mutex
	playing  bool
	paused   bool
	position time.Duration
	volume   float64
	done     chan struct{}

	PlayCalls  int
	StopCalls  int
	LastOffset time.Duration
	LastAudio  *speech.Audio
	PlayErr    error
}

// NewMockPlayer creates a mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{volume: 1.0}
}

// Play records the call and returns a completion channel controlled by
// FinishCurrent.
func (m *MockPlayer) Play(a *speech.Audio, offset time.Duration) (<-chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PlayErr != nil {
		return nil, m.PlayErr
	}
	m.PlayCalls++
	m.LastAudio = a
	m.LastOffset = offset
	m.playing = true
	m.paused = false
	m.position = offset
	m.done = make(chan struct{})
	return m.done, nil
}

// FinishCurrent simulates the current audio draining naturally.
func (m *MockPlayer) FinishCurrent() {
	m.mu.Lock()
	done := m.done
	m.done = nil
	m.playing = false
	m.mu.Unlock()
	if done != nil {
		close(done)
	}
}

// Pause suspends mock playback.
func (m *MockPlayer) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playing {
		m.paused = true
	}
	return nil
}

// Resume continues mock playback.
func (m *MockPlayer) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
	return nil
}

// Stop releases the mock source without closing its completion channel.
func (m *MockPlayer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StopCalls++
	m.playing = false
	m.paused = false
	m.done = nil
	return nil
}

// SetPosition sets the value returned by Position.
func (m *MockPlayer) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

// Position returns the mock position.
func (m *MockPlayer) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// IsPlaying reports whether mock audio is scheduled and unpaused.
func (m *MockPlayer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing && !m.paused
}

// SetVolume records the volume.
func (m *MockPlayer) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = v
}

// Volume returns the last volume set.
func (m *MockPlayer) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Close stops the mock player.
func (m *MockPlayer) Close() error {
	return m.Stop()
}

var _ speech.AudioPlayer = (*MockPlayer)(nil)
