package segment

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
)

// Worker runs sentence segmentation on a dedicated goroutine so large
// documents never block the caller. Requests and results are correlated by
// id over channels; there is no shared mutable state with callers.
type Worker struct {
	splitter *Splitter
	requests chan segmentRequest
	quit     chan struct{}
	logger   *log.Logger

	mu     sync.Mutex
	closed bool
}

type segmentRequest struct {
	id      uuid.UUID
	unitKey string
	text    string
	reply   chan segmentResult
}

type segmentResult struct {
	id        uuid.UUID
	sentences []speech.Sentence
}

// NewWorker starts the segmentation worker.
func NewWorker(logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.Default()
	}
	w := &Worker{
		splitter: NewSplitter(),
		requests: make(chan segmentRequest),
		quit:     make(chan struct{}),
		logger:   logger,
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	for {
		select {
		case <-w.quit:
			return
		case req := <-w.requests:
			sentences := w.splitter.Split(req.unitKey, req.text)
			req.reply <- segmentResult{id: req.id, sentences: sentences}
		}
	}
}

// Segment sends the unit text to the worker and awaits the correlated
// result. Returns speech.ErrWorkerUnavailable once the worker is closed.
func (w *Worker) Segment(ctx context.Context, unitKey, text string) ([]speech.Sentence, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, speech.ErrWorkerUnavailable
	}
	w.mu.Unlock()

	req := segmentRequest{
		id:      uuid.New(),
		unitKey: unitKey,
		text:    text,
		reply:   make(chan segmentResult, 1),
	}

	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, speech.ErrWorkerUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-req.reply:
		if res.id != req.id {
			return nil, fmt.Errorf("%w: mismatched reply correlation id", speech.ErrWorkerUnavailable)
		}
		return res.sentences, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts the worker down; subsequent Segment calls fail with
// speech.ErrWorkerUnavailable.
func (w *Worker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.quit)
}

var _ speech.Segmenter = (*Worker)(nil)
