package events

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		event  Event
		want   bool
	}{
		{"empty filter", Filter{}, Event{Type: TypeRoomUpdated, RoomID: "g1"}, true},
		{"type match", Filter{Types: []Type{TypeMessageAppended}}, Event{Type: TypeMessageAppended, RoomID: "r"}, true},
		{"type reject", Filter{Types: []Type{TypeMessageAppended}}, Event{Type: TypeRoomUpdated, RoomID: "r"}, false},
		{"room match", Filter{RoomID: "room-1"}, Event{Type: TypeMessageAppended, RoomID: "room-1"}, true},
		{"room reject", Filter{RoomID: "room-1"}, Event{Type: TypeMessageAppended, RoomID: "room-2"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.filter.Matches(tt.event))
		})
	}
}

func TestPublisherSubscribeLifecycle(t *testing.T) {
	p := NewInMemoryPublisher()

	require.ErrorIs(t, p.Subscribe("", Filter{}, func(Event) {}), ErrInvalidSubscriptionID)
	require.ErrorIs(t, p.Subscribe("a", Filter{}, nil), ErrNilHandler)

	var hits atomic.Int32
	require.NoError(t, p.Subscribe("a", Filter{RoomID: "room-1"}, func(e Event) {
		require.False(t, e.At.IsZero())
		hits.Add(1)
	}))
	require.ErrorIs(t, p.Subscribe("a", Filter{}, func(Event) {}), ErrSubscriptionExists)
	require.Equal(t, 1, p.SubscriberCount())

	p.Publish(context.Background(), Event{Type: TypeMessageAppended, RoomID: "room-1"})
	p.Publish(context.Background(), Event{Type: TypeMessageAppended, RoomID: "room-2"})
	require.Equal(t, int32(1), hits.Load())

	require.NoError(t, p.Unsubscribe("a"))
	require.ErrorIs(t, p.Unsubscribe("a"), ErrSubscriptionNotFound)

	p.Publish(context.Background(), Event{Type: TypeMessageAppended, RoomID: "room-1"})
	require.Equal(t, int32(1), hits.Load())
}

func TestHandlerMayUnsubscribeItself(t *testing.T) {
	p := NewInMemoryPublisher()
	require.NoError(t, p.Subscribe("self", Filter{}, func(Event) {
		_ = p.Unsubscribe("self")
	}))
	p.Publish(context.Background(), Event{Type: TypeRoomUpdated})
	require.Zero(t, p.SubscriberCount())
}

func TestNotifyCoalesces(t *testing.T) {
	p := NewInMemoryPublisher()
	wake, stop, err := Notify(p, "n1", Filter{RoomID: "g1"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		p.Publish(context.Background(), Event{Type: TypeRoomUpdated, RoomID: "g1"})
	}
	<-wake
	select {
	case <-wake:
		t.Fatal("expected a single pending signal")
	default:
	}

	stop()
	stop()
	require.Zero(t, p.SubscriberCount())

	_, _, err = Notify(p, "", Filter{})
	require.ErrorIs(t, err, ErrInvalidSubscriptionID)
}
