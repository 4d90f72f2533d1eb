package events

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestBusDeliversToMatchingSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var all, recipesOnly []Type
	bus.Subscribe(func(ev Event) { all = append(all, ev.Type) })
	bus.Subscribe(func(ev Event) { recipesOnly = append(recipesOnly, ev.Type) }, RecipesUpdated)

	bus.Publish(Event{Type: Storage, Key: "recipes"})
	bus.Publish(Event{Type: RecipesUpdated})

	assert.Equal(t, []Type{Storage, RecipesUpdated}, all)
	assert.Equal(t, []Type{RecipesUpdated}, recipesOnly)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	calls := 0
	unsubscribe := bus.Subscribe(func(Event) { calls++ })
	bus.Publish(Event{Type: Storage})
	unsubscribe()
	bus.Publish(Event{Type: Storage})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestBusRecoversFromPanickingHandler(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	delivered := false
	bus.Subscribe(func(Event) { panic("boom") })
	bus.Subscribe(func(Event) { delivered = true })

	assert.NotPanics(t, func() { bus.Publish(Event{Type: ProjectChanged}) })
	assert.True(t, delivered)
}

func TestPublishStampsTimestamp(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var got Event
	bus.Subscribe(func(ev Event) { got = ev })
	bus.Publish(Event{Type: MenuWorkflowUpdated})

	assert.False(t, got.Timestamp.IsZero())
}
