package tracker

import (
	"time"

	"github.com/actionsum/activetime/internal/models"
)

type EventKind string

const (
	// EventWentIdle fires when an open session closes because of idleness;
	// Duration is how long the user had been active.
	EventWentIdle EventKind = "went_idle"
	// EventBecameActive fires when a session opens after idleness; Duration
	// is how long the user had been idle.
	EventBecameActive EventKind = "became_active"
	EventSessionSaved EventKind = "session_saved"
	// EventStoreError fires when a session could not be persisted and was dropped
	EventStoreError EventKind = "store_error"
	// EventStoreFatal fires once at start when the store is running in
	// memory-only mode
	EventStoreFatal EventKind = "store_fatal"
)

type Event struct {
	Kind     EventKind       `json:"kind"`
	Time     time.Time       `json:"time"`
	Duration time.Duration   `json:"duration,omitempty"`
	Session  *models.Session `json:"session,omitempty"`
	Err      error           `json:"-"`
}

// Subscribe returns a channel receiving tracker events and a func that
// unsubscribes and closes it. Each event is delivered at most once per
// subscriber: a full buffer drops it and bumps Status.EventsDropped.
func (t *Tracker) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	t.subsMu.Lock()
	t.subs[ch] = struct{}{}
	t.subsMu.Unlock()

	cancel := func() {
		t.subsMu.Lock()
		defer t.subsMu.Unlock()
		if _, ok := t.subs[ch]; !ok {
			return
		}
		delete(t.subs, ch)
		close(ch)
	}
	return ch, cancel
}

func (t *Tracker) emit(ev Event) {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()

	for ch := range t.subs {
		select {
		case ch <- ev:
		default:
			t.eventsDropped.Add(1)
		}
	}
}
