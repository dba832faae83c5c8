package eventbus

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"dupexport/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventRepositoriesLoaded = domain.EventRepositoriesLoaded
	EventRepositorySelected = domain.EventRepositorySelected
	EventCatalogLoaded      = domain.EventCatalogLoaded
	EventCatalogCleared     = domain.EventCatalogCleared
	EventSelectionChanged   = domain.EventSelectionChanged
	EventSelectionReset     = domain.EventSelectionReset
	EventFilterApplied      = domain.EventFilterApplied
	EventSubmissionState    = domain.EventSubmissionState
	EventExportCompleted    = domain.EventExportCompleted
	EventError              = domain.EventError
)

// Re-export domain event types
type RepositoriesLoadedEvent = domain.RepositoriesLoadedEvent
type RepositorySelectedEvent = domain.RepositorySelectedEvent
type CatalogLoadedEvent = domain.CatalogLoadedEvent
type CatalogClearedEvent = domain.CatalogClearedEvent
type SelectionChangedEvent = domain.SelectionChangedEvent
type SelectionResetEvent = domain.SelectionResetEvent
type FilterAppliedEvent = domain.FilterAppliedEvent
type SubmissionStateEvent = domain.SubmissionStateEvent
type ExportCompletedEvent = domain.ExportCompletedEvent
type ErrorEvent = domain.ErrorEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	nextID    uint64
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
}

// New creates a new event bus. Handlers run on their own goroutines, so
// publishers never block on slow subscribers.
func New() EventBus {
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, 256),
		quit:      make(chan struct{}),
	}

	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers
func (b *bus) Publish(event DomainEvent) {
	// Selection changes fire on every keypress
	if event.Type() != EventSelectionChanged {
		slog.Debug("eventbus: publishing", "event", event.Type())
	}

	select {
	case b.eventChan <- event:
	case <-b.quit:
	default:
		slog.Warn("eventbus: channel full, dropping event", "event", event.Type())
	}
}

// Subscribe subscribes to events of a specific type.
// Returns an unsubscribe function.
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops the dispatcher and drops undelivered events
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
		b.wg.Wait()
	})
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.mu.RLock()
			subs := make([]subscription, len(b.handlers[event.Type()]))
			copy(subs, b.handlers[event.Type()])
			b.mu.RUnlock()

			for _, s := range subs {
				go func(h EventHandler, eventType EventType) {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("eventbus: handler panic", "event", eventType, "panic", r, "stack", string(debug.Stack()))
						}
					}()
					h(event)
				}(s.handler, event.Type())
			}

		case <-b.quit:
			return
		}
	}
}

// NullBus is a no-op implementation of EventBus
type NullBus struct{}

func (NullBus) Publish(event DomainEvent)                                 {}
func (NullBus) Subscribe(eventType EventType, handler EventHandler) func() { return func() {} }
func (NullBus) Close()                                                    {}

// OrNull returns b, or a NullBus when b is nil
func OrNull(b EventBus) EventBus {
	if b == nil {
		return NullBus{}
	}
	return b
}
