package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBusHandle(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Register(identity("u1", "customer"))
	bus := NewRedisBus(nil, hub, nil)

	foreign, err := json.Marshal(envelope{
		Origin: "other-instance",
		Target: Target{UserID: "u1"},
		Event:  Event{Type: EventNotificationNew},
	})
	require.NoError(t, err)

	assert.True(t, bus.handle(string(foreign)))
	assert.Equal(t, EventNotificationNew, drain(t, sub).Type)

	own, err := json.Marshal(envelope{
		Origin: bus.Origin(),
		Target: Target{UserID: "u1"},
		Event:  Event{Type: EventNotificationNew},
	})
	require.NoError(t, err)

	assert.False(t, bus.handle(string(own)), "own messages were delivered locally already")
	assertEmpty(t, sub)

	assert.False(t, bus.handle("{not json"))
}

func TestRedisBusOriginsAreUnique(t *testing.T) {
	hub := NewHub(nil)
	assert.NotEqual(t, NewRedisBus(nil, hub, nil).Origin(), NewRedisBus(nil, hub, nil).Origin())
}
