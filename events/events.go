package events

import (
	"reflect"
	"sync"
)

// EventHandler is a callback invoked with published event data. A non-nil error stops publishing and is returned to
// the publisher.
type EventHandler[T any] func(T) error

var (
	// globalHandlers maps an event type to the handlers subscribed through SubscribeAny.
	globalHandlers = make(map[reflect.Type][]any)

	// globalHandlersLock guards globalHandlers.
	globalHandlersLock sync.RWMutex
)

// SubscribeAny registers a handler invoked for every event of type T published by any EventEmitter. Handlers
// registered here live for the duration of the process.
func SubscribeAny[T any](handler EventHandler[T]) {
	eventType := reflect.TypeOf((*T)(nil)).Elem()

	globalHandlersLock.Lock()
	defer globalHandlersLock.Unlock()
	globalHandlers[eventType] = append(globalHandlers[eventType], handler)
}

// EventEmitter publishes events of type T to its own subscribers and to global subscribers of T. It is safe for
// concurrent use.
type EventEmitter[T any] struct {
	// subscriptions are the handlers registered on this emitter.
	subscriptions []EventHandler[T]

	// lock guards subscriptions.
	lock sync.RWMutex
}

// Subscribe registers a handler for events published on this emitter.
func (e *EventEmitter[T]) Subscribe(handler EventHandler[T]) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.subscriptions = append(e.subscriptions, handler)
}

// SubscriberCount returns the number of handlers subscribed to this emitter.
func (e *EventEmitter[T]) SubscriberCount() int {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return len(e.subscriptions)
}

// Publish invokes every emitter handler, then every global handler of T, in subscription order. The first handler
// error aborts publishing and is returned.
func (e *EventEmitter[T]) Publish(event T) error {
	e.lock.RLock()
	local := append([]EventHandler[T](nil), e.subscriptions...)
	e.lock.RUnlock()

	for _, handler := range local {
		if err := handler(event); err != nil {
			return err
		}
	}

	globalHandlersLock.RLock()
	global := append([]any(nil), globalHandlers[reflect.TypeOf((*T)(nil)).Elem()]...)
	globalHandlersLock.RUnlock()

	for _, handler := range global {
		if err := handler.(EventHandler[T])(event); err != nil {
			return err
		}
	}
	return nil
}
