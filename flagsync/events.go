package flagsync

import (
	"log/slog"
	"sync"
)

// Event names emitted by the Controller.
type Event string

const (
	// EventReady fires once when the first configuration becomes available.
	// Payload: *models.Configuration.
	EventReady Event = "ready"
	// EventConfigurationChanged fires when a sync replaces the configuration
	// with a different etag. Payload: *models.Configuration.
	EventConfigurationChanged Event = "configurationChanged"
	// EventError fires for background sync failures. Payload: error.
	EventError Event = "error"
)

// Listener receives an event payload. Panics are contained per listener.
type Listener func(payload interface{})

// emitter fans out events to registered listeners. Dispatch iterates a
// defensive copy, so listeners may unsubscribe from inside a callback, and a
// panicking listener never blocks the others or the emitting caller.
type emitter struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[Event]map[uint64]Listener
	logger    *slog.Logger
}

func newEmitter(logger *slog.Logger) *emitter {
	return &emitter{
		listeners: make(map[Event]map[uint64]Listener),
		logger:    logger,
	}
}

// on registers a listener and returns its unsubscribe function.
func (e *emitter) on(ev Event, fn Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	if e.listeners[ev] == nil {
		e.listeners[ev] = make(map[uint64]Listener)
	}
	e.listeners[ev][id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners[ev], id)
	}
}

func (e *emitter) emit(ev Event, payload interface{}) {
	e.mu.Lock()
	fns := make([]Listener, 0, len(e.listeners[ev]))
	for _, fn := range e.listeners[ev] {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		e.dispatch(ev, fn, payload)
	}
}

func (e *emitter) dispatch(ev Event, fn Listener, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("event listener panicked", "event", string(ev), "panic", r)
		}
	}()
	fn(payload)
}

// clear drops every listener. Used on close.
func (e *emitter) clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = make(map[Event]map[uint64]Listener)
}
