package client

import (
	"encoding/json"
	"log"
	"sync"
)

// Handler receives the raw payload of a dispatched event. Synthetic events
// (connect/disconnect) carry a nil payload.
type Handler func(data json.RawMessage)

type handlerEntry struct {
	id int
	fn Handler
}

// Emitter routes decoded events to registered handlers by kind. Handlers for
// a kind run in registration order; a panicking handler never prevents the
// remaining handlers from running.
type Emitter struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string][]handlerEntry
}

func NewEmitter() *Emitter {
	return &Emitter{
		handlers: make(map[string][]handlerEntry),
	}
}

// On registers a handler for the given event kind and returns a function
// that removes exactly that registration. Removing twice is a no-op.
func (e *Emitter) On(kind string, fn Handler) (off func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.handlers[kind] = append(e.handlers[kind], handlerEntry{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		entries := e.handlers[kind]
		for i, entry := range entries {
			if entry.id == id {
				e.handlers[kind] = append(entries[:i:i], entries[i+1:]...)
				break
			}
		}
		if len(e.handlers[kind]) == 0 {
			delete(e.handlers, kind)
		}
	}
}

// Off removes every handler registered for the given kind. Safe to call for
// a kind with no handlers.
func (e *Emitter) Off(kind string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.handlers, kind)
}

// Dispatch invokes every handler registered for kind, in registration order,
// and reports how many handlers were reached. The handler list is snapshotted
// first, so registrations and removals made during dispatch take effect on
// the next dispatch rather than corrupting the current one.
func (e *Emitter) Dispatch(kind string, data json.RawMessage) int {
	e.mu.RLock()
	entries := make([]handlerEntry, len(e.handlers[kind]))
	copy(entries, e.handlers[kind])
	e.mu.RUnlock()

	for _, entry := range entries {
		invoke(kind, entry.fn, data)
	}
	return len(entries)
}

func invoke(kind string, fn Handler, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("handler for %q panicked: %v", kind, r)
		}
	}()
	fn(data)
}
