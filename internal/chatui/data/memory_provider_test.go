package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/chatroom/internal/models"
)

func baseSeed() Seed {
	return Seed{
		Profiles: []models.Profile{{ID: "u1", DisplayName: "Alice"}, {ID: "u2", DisplayName: "Bob"}},
		Rooms: []models.Conversation{
			models.PrivateConversation{ID: "room-1", Participants: []string{"u1", "u2"}},
			models.GroupConversation{ID: "g1", Participants: []string{"u1", "u2"}, Group: models.GroupInfo{Name: "Trip Planning"}},
		},
		Contacts: []Contact{{A: "u1", B: "u2"}},
		Messages: []models.Message{{RoomID: "g1", SenderID: "u2", Text: "first", CreatedAt: time.Unix(100, 0)}},
	}
}

func receive(t *testing.T, ch <-chan []models.Message) []models.Message {
	t.Helper()
	select {
	case snapshot, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return snapshot
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestMemoryProviderSubscribeSnapshots(t *testing.T) {
	p, err := NewMemoryProvider(MemoryProviderConfig{Seed: baseSeed()})
	require.NoError(t, err)
	defer p.Close()

	ch, cancel := p.SubscribeMessages("g1")
	initial := receive(t, ch)
	require.Len(t, initial, 1)
	require.Equal(t, "first", initial[0].Text)

	_, err = p.SendMessage(context.Background(), models.Message{RoomID: "g1", SenderID: "u1", Text: "second"})
	require.NoError(t, err)
	next := receive(t, ch)
	require.Len(t, next, 2)
	require.Equal(t, "second", next[1].Text)
	require.Equal(t, models.MessageKindText, next[1].Kind)

	cancel()
	cancel()
	for range ch {
	}
}

func TestMemoryProviderIsolatesRooms(t *testing.T) {
	p, err := NewMemoryProvider(MemoryProviderConfig{Seed: baseSeed()})
	require.NoError(t, err)

	ch, cancel := p.SubscribeMessages("room-1")
	defer cancel()
	require.Empty(t, receive(t, ch))

	_, err = p.SendMessage(context.Background(), models.Message{RoomID: "g1", SenderID: "u1", Text: "elsewhere"})
	require.NoError(t, err)

	select {
	case snapshot := <-ch:
		t.Fatalf("unexpected delivery for another room: %v", snapshot)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryProviderSendValidation(t *testing.T) {
	p, err := NewMemoryProvider(MemoryProviderConfig{Seed: baseSeed()})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = p.SendMessage(ctx, models.Message{RoomID: "g1", SenderID: "u1", Text: "   "})
	require.ErrorIs(t, err, models.ErrBlankText)

	_, err = p.SendMessage(ctx, models.Message{RoomID: "nope", SenderID: "u1", Text: "x"})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = p.SendMessage(ctx, models.Message{RoomID: "g1", SenderID: "stranger", Text: "x"})
	require.ErrorIs(t, err, ErrNotParticipant)

	stored, err := p.SendMessage(ctx, models.Message{ID: "client-id", RoomID: "g1", SenderID: "u1", Text: "x"})
	require.NoError(t, err)
	require.NotEqual(t, "client-id", stored.ID)
}

func TestMemoryProviderGroupMutations(t *testing.T) {
	p, err := NewMemoryProvider(MemoryProviderConfig{Seed: baseSeed()})
	require.NoError(t, err)
	ctx := context.Background()

	require.ErrorIs(t, p.RenameGroup(ctx, "room-1", "x"), ErrNotGroup)
	require.ErrorIs(t, p.RenameGroup(ctx, "g1", "  "), models.ErrBlankName)
	require.ErrorIs(t, p.SetGroupPhoto(ctx, "g1", ""), models.ErrBlankURL)
	require.NoError(t, p.RenameGroup(ctx, "g1", " Summer Trip "))
	require.NoError(t, p.SetGroupPhoto(ctx, "g1", "https://example.com/p.png"))

	conv, err := p.FetchConversation(ctx, "g1")
	require.NoError(t, err)
	group := conv.(models.GroupConversation)
	require.Equal(t, "Summer Trip", group.Group.Name)
	require.Equal(t, "https://example.com/p.png", group.Group.PhotoURL)

	require.NoError(t, p.LeaveGroup(ctx, "g1", "u2"))
	require.ErrorIs(t, p.LeaveGroup(ctx, "g1", "u2"), ErrNotParticipant)
	rooms, err := p.ListConversations(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	require.Equal(t, "room-1", rooms[0].ConversationID())
}

func TestMemoryProviderContactsAndProfiles(t *testing.T) {
	p, err := NewMemoryProvider(MemoryProviderConfig{Seed: baseSeed()})
	require.NoError(t, err)
	ctx := context.Background()

	require.Equal(t, []string{"u2"}, p.Contacts("u1"))
	require.NoError(t, p.RemoveContact(ctx, "u1", "u2"))
	require.Empty(t, p.Contacts("u1"))
	require.Empty(t, p.Contacts("u2"))
	require.ErrorIs(t, p.RemoveContact(ctx, "u1", "u2"), ErrNotFound)

	profile, err := p.FetchProfile(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, "Bob", profile.DisplayName)
	_, err = p.FetchProfile(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryProviderListOrdersByActivity(t *testing.T) {
	p, err := NewMemoryProvider(MemoryProviderConfig{Seed: DemoSeed("me", time.Now())})
	require.NoError(t, err)

	rooms, err := p.ListConversations(context.Background(), "me")
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	require.Equal(t, "trip", rooms[0].ConversationID())
	require.Equal(t, "dm-ada", rooms[2].ConversationID())
}

func TestMemoryProviderRejectsBadSeed(t *testing.T) {
	seed := baseSeed()
	seed.Messages = append(seed.Messages, models.Message{RoomID: "ghost-room", SenderID: "u1", Text: "x"})
	_, err := NewMemoryProvider(MemoryProviderConfig{Seed: seed})
	require.ErrorIs(t, err, ErrNotFound)
}
