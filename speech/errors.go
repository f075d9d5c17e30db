package speech

import (
	"errors"
	"fmt"
)

// Sentinel errors for the playback engine.
var (
	// ErrNotInitialized is returned when an engine method is called before
	// Open has bound a document and adapter.
	ErrNotInitialized = errors.New("speech: engine not initialized")

	// ErrNoSentencesAtLocator is returned when the structural unit at the
	// requested position segments to nothing.
	ErrNoSentencesAtLocator = errors.New("speech: no sentences at locator")

	// ErrWorkerUnavailable is returned when the segmentation worker is
	// missing or has been shut down.
	ErrWorkerUnavailable = errors.New("speech: segmentation worker unavailable")
)

// SynthesisError reports a failed call to the synthesis backend, carrying
// the backend's status and response body when the failure was an HTTP one.
type SynthesisError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *SynthesisError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("speech: synthesis failed: backend returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("speech: synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// DecodeError reports malformed or unsupported audio from the backend.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("speech: audio decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NavigationError reports that an adapter could not move its renderer.
type NavigationError struct {
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("speech: navigation failed: %v", e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }
