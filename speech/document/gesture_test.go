package document

import (
	"testing"
	"time"
)

type firedAt struct {
	x, y  int
	count int
}

func newFiredDetector() (*Detector, *firedAt) {
	f := &firedAt{}
	d := NewDetector(func(x, y int) {
		f.x, f.y = x, y
		f.count++
	})
	return d, f
}

func tap(d *Detector, x, y int, at time.Time) {
	d.Handle(PointerEvent{Phase: PhaseDown, X: x, Y: y, At: at})
	d.Handle(PointerEvent{Phase: PhaseUp, X: x, Y: y, At: at.Add(50 * time.Millisecond)})
}

// TestDetectorDoubleTap tests that two quick taps at a stable position
// fire exactly once.
func TestDetectorDoubleTap(t *testing.T) {
	d, f := newFiredDetector()
	base := time.Now()

	tap(d, 40, 12, base)
	if f.count != 0 {
		t.Fatalf("single tap fired %d times", f.count)
	}

	tap(d, 42, 13, base.Add(200*time.Millisecond))
	if f.count != 1 {
		t.Fatalf("double tap fired %d times, want 1", f.count)
	}
	if f.x != 42 || f.y != 13 {
		t.Errorf("gesture at (%d, %d), want second tap position", f.x, f.y)
	}

	// The pair is consumed. A third tap starts a fresh sequence.
	tap(d, 42, 13, base.Add(400*time.Millisecond))
	if f.count != 1 {
		t.Errorf("third tap fired again, count = %d", f.count)
	}
}

// TestDetectorSlowSecondTap tests that taps outside the window do not
// combine.
func TestDetectorSlowSecondTap(t *testing.T) {
	d, f := newFiredDetector()
	base := time.Now()

	tap(d, 10, 10, base)
	tap(d, 10, 10, base.Add(doubleTapWindow+200*time.Millisecond))
	if f.count != 0 {
		t.Errorf("slow taps fired %d times, want 0", f.count)
	}
}

// TestDetectorDistantSecondTap tests the positional tolerance.
func TestDetectorDistantSecondTap(t *testing.T) {
	d, f := newFiredDetector()
	base := time.Now()

	tap(d, 10, 10, base)
	tap(d, 10+moveSlopPixels+5, 10, base.Add(150*time.Millisecond))
	if f.count != 0 {
		t.Errorf("distant taps fired %d times, want 0", f.count)
	}
}

// TestDetectorLongPress tests that a held press fires at the press
// position.
func TestDetectorLongPress(t *testing.T) {
	d, f := newFiredDetector()
	base := time.Now()

	d.Handle(PointerEvent{Phase: PhaseDown, X: 7, Y: 3, At: base})
	d.Handle(PointerEvent{Phase: PhaseUp, X: 9, Y: 4, At: base.Add(longPressHold + 100*time.Millisecond)})

	if f.count != 1 {
		t.Fatalf("long press fired %d times, want 1", f.count)
	}
	if f.x != 7 || f.y != 3 {
		t.Errorf("gesture at (%d, %d), want press-start position (7, 3)", f.x, f.y)
	}
}

// TestDetectorMovementCancels tests that dragging past the slop
// suppresses both gestures.
func TestDetectorMovementCancels(t *testing.T) {
	d, f := newFiredDetector()
	base := time.Now()

	d.Handle(PointerEvent{Phase: PhaseDown, X: 0, Y: 0, At: base})
	d.Handle(PointerEvent{Phase: PhaseMove, X: moveSlopPixels + 1, Y: 0, At: base.Add(100 * time.Millisecond)})
	d.Handle(PointerEvent{Phase: PhaseUp, X: moveSlopPixels + 1, Y: 0, At: base.Add(longPressHold + time.Second)})
	if f.count != 0 {
		t.Errorf("drag fired %d times, want 0", f.count)
	}

	// A drag also resets any pending tap.
	tap(d, 5, 5, base.Add(2*time.Second))
	tap(d, 5, 5, base.Add(2*time.Second+150*time.Millisecond))
	if f.count != 1 {
		t.Errorf("taps after drag fired %d times, want 1", f.count)
	}
}

// TestDetectorMovementWithinSlop tests that jitter under the slop does
// not cancel a tap.
func TestDetectorMovementWithinSlop(t *testing.T) {
	d, f := newFiredDetector()
	base := time.Now()

	for i, start := range []time.Time{base, base.Add(150 * time.Millisecond)} {
		d.Handle(PointerEvent{Phase: PhaseDown, X: 20, Y: 20, At: start})
		d.Handle(PointerEvent{Phase: PhaseMove, X: 22, Y: 21, At: start.Add(10 * time.Millisecond)})
		d.Handle(PointerEvent{Phase: PhaseUp, X: 22, Y: 21, At: start.Add(40 * time.Millisecond)})
		if i == 0 && f.count != 0 {
			t.Fatalf("first jittery tap fired early")
		}
	}
	if f.count != 1 {
		t.Errorf("jittery double tap fired %d times, want 1", f.count)
	}
}

// TestDetectorUpWithoutDown tests stray releases.
func TestDetectorUpWithoutDown(t *testing.T) {
	d, f := newFiredDetector()
	d.Handle(PointerEvent{Phase: PhaseUp, X: 1, Y: 1, At: time.Now()})
	if f.count != 0 {
		t.Errorf("stray release fired %d times", f.count)
	}
}
