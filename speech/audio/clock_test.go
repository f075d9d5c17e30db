package audio

import (
	"testing"
	"time"
)

// TestClockMeasuresElapsed tests basic measurement from an offset.
func TestClockMeasuresElapsed(t *testing.T) {
	var c Clock
	c.Start(500 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	got := c.Elapsed()
	if got < 500*time.Millisecond {
		t.Errorf("Elapsed() = %v, want at least the 500ms pre-charge", got)
	}
	if got > time.Second {
		t.Errorf("Elapsed() = %v, unexpectedly large", got)
	}
}

// TestClockPauseFreezesElapsed tests that paused wall time is not
// counted.
func TestClockPauseFreezesElapsed(t *testing.T) {
	var c Clock
	c.Start(0)
	time.Sleep(10 * time.Millisecond)
	c.Pause()

	frozen := c.Elapsed()
	time.Sleep(30 * time.Millisecond)
	if got := c.Elapsed(); got != frozen {
		t.Errorf("Elapsed() while paused = %v, want frozen %v", got, frozen)
	}

	c.Resume()
	time.Sleep(10 * time.Millisecond)
	got := c.Elapsed()
	if got <= frozen {
		t.Errorf("Elapsed() after resume = %v, should exceed %v", got, frozen)
	}
	if got >= frozen+30*time.Millisecond {
		t.Errorf("Elapsed() = %v, paused time leaked in", got)
	}
}

// TestClockStopResets tests Stop.
func TestClockStopResets(t *testing.T) {
	var c Clock
	c.Start(time.Second)
	c.Stop()
	if got := c.Elapsed(); got != 0 {
		t.Errorf("Elapsed() after Stop = %v, want 0", got)
	}
}

// TestClockPauseResumeIdempotent tests redundant transitions.
func TestClockPauseResumeIdempotent(t *testing.T) {
	var c Clock
	c.Resume() // not running: no-op
	c.Pause()
	if got := c.Elapsed(); got != 0 {
		t.Errorf("Elapsed() = %v, want 0", got)
	}

	c.Start(0)
	c.Pause()
	c.Pause() // second pause keeps the original pause point
	frozen := c.Elapsed()
	time.Sleep(10 * time.Millisecond)
	if got := c.Elapsed(); got != frozen {
		t.Errorf("Elapsed() = %v, want %v", got, frozen)
	}
}
