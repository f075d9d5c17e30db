package speech

import "sync"

// EventType identifies an engine event.
type EventType string

// Events exposed to the host UI.
const (
	EventInitialized     EventType = "initialized"
	EventBookChanged     EventType = "bookChanged"
	EventPlaybackStarted EventType = "playbackStarted"
	EventPaused          EventType = "paused"
	EventResumed         EventType = "resumed"
	EventStopped         EventType = "stopped"
	EventSentence        EventType = "sentence"
	EventSentenceChanged EventType = "sentenceChanged"
	EventPlaybackEnded   EventType = "playbackEnded"
)

// Event is one entry in the engine's event stream. Sentence is set for
// sentence-scoped events.
type Event struct {
	Type     EventType
	Sentence *Sentence
	Err      error
}

const eventBufferSize = 16

// eventBus fans engine events out to subscribers. Publishing never blocks:
// a subscriber that falls behind loses events rather than stalling
// playback.
type eventBus struct {
	mu   sync.Mutex
	subs []chan Event
}

func newEventBus() *eventBus {
	return &eventBus{}
}

func (b *eventBus) subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, eventBufferSize)
	b.subs = append(b.subs, ch)
	return ch
}

func (b *eventBus) unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

func (b *eventBus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		select {
		case sub <- ev:
		default:
		}
	}
}

func (b *eventBus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}
