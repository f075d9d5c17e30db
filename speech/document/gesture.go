// Package document bridges the playback engine to concrete renderers: one
// adapter per supported format plus the shared "start reading here"
// gesture detector.
package document

import (
	"sync"
	"time"
)

// Gesture detection thresholds, shared across formats.
const (
	doubleTapWindow = 300 * time.Millisecond
	longPressHold   = 500 * time.Millisecond
	moveSlopPixels  = 10
)

// PointerPhase classifies a pointer event.
type PointerPhase int

const (
	// PhaseDown is a press (touch start / mouse down).
	PhaseDown PointerPhase = iota
	// PhaseMove is movement while pressed.
	PhaseMove
	// PhaseUp is a release.
	PhaseUp
)

// PointerEvent is one raw pointer sample from a renderer.
type PointerEvent struct {
	Phase PointerPhase
	X, Y  int
	At    time.Time
}

// PointerSource is implemented by renderers that deliver pointer events.
type PointerSource interface {
	// AddPointerListener registers fn and returns its removal function.
	AddPointerListener(fn func(PointerEvent)) (remove func())
}

// Detector implements the shared gesture state machine: a second tap
// within the double-tap window at a stable position, or a press held past
// the long-press threshold without movement, fires the callback exactly
// once per gesture with the gesture coordinates.
type Detector struct {
	mu sync.Mutex

	onGesture func(x, y int)

	lastTap    PointerEvent
	haveTap    bool
	pressed    bool
	pressStart PointerEvent
	moved      bool
}

// NewDetector creates a detector invoking onGesture for each recognized
// gesture.
func NewDetector(onGesture func(x, y int)) *Detector {
	return &Detector{onGesture: onGesture}
}

// Handle feeds one pointer event through the state machine.
func (d *Detector) Handle(ev PointerEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch ev.Phase {
	case PhaseDown:
		d.pressed = true
		d.pressStart = ev
		d.moved = false

	case PhaseMove:
		if d.pressed && !d.moved && !near(d.pressStart, ev) {
			d.moved = true
		}

	case PhaseUp:
		if !d.pressed {
			return
		}
		d.pressed = false
		if d.moved {
			d.haveTap = false
			return
		}

		if ev.At.Sub(d.pressStart.At) >= longPressHold {
			d.haveTap = false
			d.fire(d.pressStart)
			return
		}

		if d.haveTap && ev.At.Sub(d.lastTap.At) <= doubleTapWindow && near(d.lastTap, ev) {
			d.haveTap = false
			d.fire(ev)
			return
		}
		d.lastTap = ev
		d.haveTap = true
	}
}

func (d *Detector) fire(ev PointerEvent) {
	if d.onGesture != nil {
		d.onGesture(ev.X, ev.Y)
	}
}

func near(a, b PointerEvent) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx <= moveSlopPixels && dy <= moveSlopPixels
}
