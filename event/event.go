// Package event implements the named-listener emitter with a wildcard
// channel, silence scopes, and a reserved error channel used to collect
// listener failures without propagating them into the triggerer.
package event

import (
	"sync"

	"github.com/forbearing/docdb/logger"
)

// ErrorEvent is the reserved channel name listener errors are re-emitted on.
const ErrorEvent = "error"

// WildcardEvent receives every trigger as (originalEvent, ...args).
const WildcardEvent = "*"

// Handler is a single named listener. Returning a non-nil error routes that
// error to the reserved "error" channel instead of propagating to Trigger's
// caller.
type Handler func(args ...any) error

// Bus is an in-process, named-listener event emitter.
type Bus struct {
	mu        sync.Mutex
	listeners map[string]map[string]Handler // event -> name -> handler
	silenced  map[string]bool               // name -> silenced
	silenceAll bool
	log       logger.Logger
}

// New returns an empty Bus.
func New(log logger.Logger) *Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &Bus{
		listeners: make(map[string]map[string]Handler),
		silenced:  make(map[string]bool),
		log:       log,
	}
}

// On registers handler under name for event. Fails if name is already
// registered for that event.
func (b *Bus) On(event, name string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.listeners[event]
	if !ok {
		m = make(map[string]Handler)
		b.listeners[event] = m
	}
	if _, exists := m[name]; exists {
		return duplicateListenerError{event: event, name: name}
	}
	m[name] = handler
	return nil
}

// Off removes the named listener from event.
func (b *Bus) Off(event, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners[event], name)
}

// Trigger fires event synchronously to every non-silenced listener plus the
// wildcard channel. Handler errors are caught and re-emitted on the
// reserved "error" channel; if nothing listens there, they fall back to
// standard error logging. Trigger never panics: a panicking handler is
// recovered and treated the same as a returned error.
func (b *Bus) Trigger(event string, args ...any) {
	b.dispatch(event, event, args)
	b.dispatch(WildcardEvent, event, append([]any{event}, args...))
}

func (b *Bus) dispatch(channel, originalEvent string, args []any) {
	b.mu.Lock()
	snapshot := make(map[string]Handler, len(b.listeners[channel]))
	for name, h := range b.listeners[channel] {
		if b.isSilenced(name) {
			continue
		}
		snapshot[name] = h
	}
	b.mu.Unlock()

	for name, h := range snapshot {
		b.invoke(channel, originalEvent, name, h, args)
	}
}

func (b *Bus) invoke(channel, originalEvent, name string, h Handler, args []any) {
	defer func() {
		if r := recover(); r != nil {
			b.onListenerError(originalEvent, name, panicError{recovered: r})
		}
	}()
	if err := h(args...); err != nil {
		b.onListenerError(originalEvent, name, err)
	}
}

func (b *Bus) onListenerError(event, name string, err error) {
	if event == ErrorEvent {
		// An error-channel listener itself failed; never recurse, just log.
		b.log.Errorw("error listener failed", "name", name, "error", err)
		return
	}
	b.mu.Lock()
	hasErrorListeners := len(b.listeners[ErrorEvent]) > 0
	b.mu.Unlock()
	if !hasErrorListeners {
		b.log.Errorw("unhandled listener error", "event", event, "listener", name, "error", err)
		return
	}
	b.dispatch(ErrorEvent, event, []any{name, err})
}

// Silent silences the given listener names (or every listener, if names is
// empty) for the duration of body, restoring prior state afterward even if
// body panics.
func (b *Bus) Silent(body func(), names ...string) {
	b.mu.Lock()
	if len(names) == 0 {
		prev := b.silenceAll
		b.silenceAll = true
		b.mu.Unlock()
		defer func() {
			b.mu.Lock()
			b.silenceAll = prev
			b.mu.Unlock()
		}()
	} else {
		prev := make(map[string]bool, len(names))
		for _, n := range names {
			prev[n] = b.silenced[n]
			b.silenced[n] = true
		}
		b.mu.Unlock()
		defer func() {
			b.mu.Lock()
			for n, v := range prev {
				b.silenced[n] = v
			}
			b.mu.Unlock()
		}()
	}
	body()
}

func (b *Bus) isSilenced(name string) bool {
	return b.silenceAll || b.silenced[name]
}

type duplicateListenerError struct {
	event, name string
}

func (e duplicateListenerError) Error() string {
	return "listener " + e.name + " already registered for event " + e.event
}

type panicError struct{ recovered any }

func (e panicError) Error() string { return "listener panicked" }
