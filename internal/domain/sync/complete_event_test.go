package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"ledgerlink/internal/domain/connection"
)

func TestBroadcast_AllListenersInvoked(t *testing.T) {
	var order []string
	listener := func(name string) ListenerFunc {
		return ListenerFunc{
			ListenerName: name,
			Fn: func(ctx context.Context, conn *connection.Connection) error {
				order = append(order, name)
				return nil
			},
		}
	}

	event := NewCompleteEvent(listener("first"), listener("second"))
	event.Register(listener("third"))

	event.Broadcast(context.Background(), &connection.Connection{ID: "conn-1"})

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBroadcast_FailureDoesNotStopOthers(t *testing.T) {
	var called []string

	event := NewCompleteEvent(
		ListenerFunc{
			ListenerName: "failing",
			Fn: func(ctx context.Context, conn *connection.Connection) error {
				called = append(called, "failing")
				return errors.New("boom")
			},
		},
		ListenerFunc{
			ListenerName: "healthy",
			Fn: func(ctx context.Context, conn *connection.Connection) error {
				called = append(called, "healthy")
				return nil
			},
		},
	)

	event.Broadcast(context.Background(), &connection.Connection{ID: "conn-1"})

	assert.Equal(t, []string{"failing", "healthy"}, called)
}

func TestBroadcast_PanicRecovered(t *testing.T) {
	var survived bool

	event := NewCompleteEvent(
		ListenerFunc{
			ListenerName: "panicky",
			Fn: func(ctx context.Context, conn *connection.Connection) error {
				panic("unexpected state")
			},
		},
		ListenerFunc{
			ListenerName: "survivor",
			Fn: func(ctx context.Context, conn *connection.Connection) error {
				survived = true
				return nil
			},
		},
	)

	assert.NotPanics(t, func() {
		event.Broadcast(context.Background(), &connection.Connection{ID: "conn-1"})
	})
	assert.True(t, survived)
}

func TestBroadcast_NoListeners(t *testing.T) {
	event := NewCompleteEvent()

	assert.NotPanics(t, func() {
		event.Broadcast(context.Background(), &connection.Connection{ID: "conn-1"})
	})
}
