package sse

import (
	"encoding/json"
	"testing"

	"github.com/bitfantasy/agileboard/internal/board/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a := &Client{ID: "a", Events: make(chan Event, 1)}
	b := &Client{ID: "b", Events: make(chan Event, 1)}
	hub.Register(a)
	hub.Register(b)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Alert(service.Alert{Op: "deleteSprint", Kind: service.AlertError, Message: "boom"})

	for _, c := range []*Client{a, b} {
		ev := <-c.Events
		assert.Equal(t, EventAlert, ev.EventType)
		var got service.Alert
		require.NoError(t, json.Unmarshal([]byte(ev.Data), &got))
		assert.Equal(t, "boom", got.Message)
	}
}

func TestBroadcastSkipsFullClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := &Client{ID: "slow", Events: make(chan Event, 1)}
	hub.Register(c)

	hub.Broadcast(Event{EventType: "x"})
	hub.Broadcast(Event{EventType: "y"})

	assert.Equal(t, "x", (<-c.Events).EventType)
	assert.Len(t, c.Events, 0)
}

func TestUnregisterClosesChannel(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := &Client{ID: "c", Events: make(chan Event, 1)}
	hub.Register(c)
	hub.Unregister("c")
	hub.Unregister("c")

	_, ok := <-c.Events
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestSnapshotChangedEncodesSnapshot(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := &Client{ID: "c", Events: make(chan Event, 1)}
	hub.Register(c)

	hub.SnapshotChanged(service.Snapshot{Configured: true, Version: 3})

	ev := <-c.Events
	assert.Equal(t, EventSnapshot, ev.EventType)
	assert.Contains(t, ev.Data, `"version":3`)
	assert.Contains(t, ev.Data, `"configured":true`)
}
