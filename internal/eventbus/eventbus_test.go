package eventbus

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupexport/internal/domain"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := New()
	defer bus.Close()

	got := make(chan domain.CatalogLoadedEvent, 1)
	bus.Subscribe(EventCatalogLoaded, func(e DomainEvent) {
		got <- e.(CatalogLoadedEvent)
	})

	bus.Publish(CatalogLoadedEvent{RepositoryID: "r1", Classes: 3})

	select {
	case ev := <-got:
		assert.Equal(t, "r1", ev.RepositoryID)
		assert.Equal(t, 3, ev.Classes)
	case <-time.After(time.Second):
		require.Fail(t, "event not delivered")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New()
	defer bus.Close()

	var first, second atomic.Int32
	done := make(chan struct{}, 4)

	unsubscribe := bus.Subscribe(EventError, func(DomainEvent) {
		first.Add(1)
		done <- struct{}{}
	})
	bus.Subscribe(EventError, func(DomainEvent) {
		second.Add(1)
		done <- struct{}{}
	})

	unsubscribe()
	bus.Publish(ErrorEvent{Message: "boom"})

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "event not delivered")
	}
	time.Sleep(50 * time.Millisecond)

	assert.Zero(t, first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestHandlerPanicDoesNotStopBus(t *testing.T) {
	bus := New()
	defer bus.Close()

	got := make(chan struct{}, 1)
	bus.Subscribe(EventFilterApplied, func(DomainEvent) { panic("bad handler") })
	bus.Subscribe(EventSelectionReset, func(DomainEvent) { got <- struct{}{} })

	bus.Publish(FilterAppliedEvent{Term: "x"})
	bus.Publish(SelectionResetEvent{Classes: 1})

	select {
	case <-got:
	case <-time.After(time.Second):
		require.Fail(t, "bus stopped after handler panic")
	}
}

func TestPublishAfterCloseDoesNotBlock(t *testing.T) {
	bus := New()
	bus.Close()
	bus.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.Publish(SelectionChangedEvent{ClassName: "C"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "publish blocked")
	}
}

func TestOrNull(t *testing.T) {
	assert.IsType(t, NullBus{}, OrNull(nil))

	bus := New()
	defer bus.Close()
	assert.Equal(t, bus, OrNull(bus))

	var null NullBus
	null.Publish(ErrorEvent{})
	null.Subscribe(EventError, func(DomainEvent) {})()
	null.Close()
}
