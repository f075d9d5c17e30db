// Package audio provides decoded-audio handling for the read-aloud
// engine: MP3 decoding, a pause-aware playback clock, and players.
package audio

import (
	"sync"
	"time"
)

// Clock measures elapsed playback time against Go's monotonic clock.
// Pausing suspends it, so Elapsed always reflects audio actually heard,
// never wall-clock time that passed while suspended.
type Clock struct {
	mu      sync.Mutex
	running bool
	paused  bool
	startAt time.Time
	pauseAt time.Time
}

// Start begins measuring, pre-charged with offset (for playback that
// resumes mid-sentence).
func (c *Clock) Start(offset time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.paused = false
	c.startAt = time.Now().Add(-offset)
}

// Pause suspends the clock.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || c.paused {
		return
	}
	c.paused = true
	c.pauseAt = time.Now()
}

// Resume continues a paused clock.
func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || !c.paused {
		return
	}
	c.startAt = c.startAt.Add(time.Since(c.pauseAt))
	c.paused = false
}

// Stop halts and resets the clock.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.paused = false
}

// Elapsed returns the measured playback time.
func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return 0
	}
	if c.paused {
		return c.pauseAt.Sub(c.startAt)
	}
	return time.Since(c.startAt)
}
