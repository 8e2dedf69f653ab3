package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tOgg1/chatroom/internal/models"
)

func TestRoomRepositoryCreateAndGet(t *testing.T) {
	database := setupTestDB(t)
	repo := NewRoomRepository(database)
	ctx := context.Background()

	id, err := repo.Create(ctx, models.GroupConversation{
		Participants: []string{"u1", "u2", "u3"},
		Group:        models.GroupInfo{Name: "Trip Planning"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	conv, err := repo.Get(ctx, id)
	require.NoError(t, err)
	group, ok := conv.(models.GroupConversation)
	require.True(t, ok)
	require.Equal(t, "Trip Planning", group.Group.Name)
	require.Equal(t, []string{"u1", "u2", "u3"}, group.Participants)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomRepositoryRejectsInvalid(t *testing.T) {
	repo := NewRoomRepository(setupTestDB(t))
	_, err := repo.Create(context.Background(), models.PrivateConversation{ID: "room-1", Participants: []string{"u1"}})
	require.ErrorContains(t, err, "invalid room")
}

func TestRoomRepositoryGroupMutations(t *testing.T) {
	database := setupTestDB(t)
	repo := NewRoomRepository(database)
	ctx := context.Background()

	_, err := repo.Create(ctx, models.PrivateConversation{ID: "room-1", Participants: []string{"u1", "u2"}})
	require.NoError(t, err)
	_, err = repo.Create(ctx, models.GroupConversation{ID: "g1", Participants: []string{"u1", "u2"}, Group: models.GroupInfo{Name: "Trip"}})
	require.NoError(t, err)

	require.ErrorIs(t, repo.Rename(ctx, "room-1", "x"), ErrRoomNotGroup)
	require.ErrorIs(t, repo.Rename(ctx, "nope", "x"), ErrRoomNotFound)

	require.NoError(t, repo.Rename(ctx, "g1", "Summer Trip"))
	require.NoError(t, repo.SetPhoto(ctx, "g1", "https://example.com/g.png"))
	require.NoError(t, repo.RemoveParticipant(ctx, "g1", "u2"))
	require.ErrorIs(t, repo.RemoveParticipant(ctx, "g1", "u2"), ErrNotParticipant)

	conv, err := repo.Get(ctx, "g1")
	require.NoError(t, err)
	group := conv.(models.GroupConversation)
	require.Equal(t, "Summer Trip", group.Group.Name)
	require.Equal(t, "https://example.com/g.png", group.Group.PhotoURL)
	require.Equal(t, []string{"u1"}, group.Participants)

	rooms, err := repo.ListForUser(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	require.Equal(t, "room-1", rooms[0].ConversationID())
}

func TestMessageRepositoryAppendOrder(t *testing.T) {
	database := setupTestDB(t)
	rooms := NewRoomRepository(database)
	messages := NewMessageRepository(database)
	ctx := context.Background()

	_, err := rooms.Create(ctx, models.PrivateConversation{ID: "room-1", Participants: []string{"u1", "u2"}})
	require.NoError(t, err)

	seq, err := messages.LatestSeq(ctx, "room-1")
	require.NoError(t, err)
	require.Zero(t, seq)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, text := range []string{"hello", "hi back"} {
		stored, err := messages.Append(ctx, models.Message{
			RoomID:    "room-1",
			SenderID:  "u1",
			Text:      text,
			Kind:      models.MessageKindText,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
		require.NotEmpty(t, stored.ID)
	}

	list, err := messages.ListByRoom(ctx, "room-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "hello", list[0].Text)
	require.Equal(t, base, list[0].CreatedAt)
	require.False(t, list[0].Read)

	next, err := messages.LatestSeq(ctx, "room-1")
	require.NoError(t, err)
	require.Greater(t, next, seq)

	_, err = messages.Append(ctx, models.Message{RoomID: "nope", SenderID: "u1", Text: "x", Kind: models.MessageKindText})
	require.ErrorIs(t, err, ErrRoomNotFound)
	_, err = messages.Append(ctx, models.Message{RoomID: "room-1", SenderID: "u1", Text: " ", Kind: models.MessageKindText})
	require.ErrorIs(t, err, models.ErrBlankText)
}

func TestUserRepositoryProfilesAndContacts(t *testing.T) {
	database := setupTestDB(t)
	users := NewUserRepository(database)
	ctx := context.Background()

	require.NoError(t, users.Upsert(ctx, models.Profile{ID: "u2", DisplayName: "Bob", Online: true}))
	profile, err := users.Get(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, "Bob", profile.DisplayName)
	require.True(t, profile.Online)

	_, err = users.Get(ctx, "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, users.AddContact(ctx, "u1", "u2"))
	contacts, err := users.ListContacts(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, []string{"u1"}, contacts)

	require.NoError(t, users.RemoveContact(ctx, "u1", "u2"))
	require.ErrorIs(t, users.RemoveContact(ctx, "u1", "u2"), ErrContactNotFound)
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "chatroom.db")
	database, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.Migrate(context.Background()))
	require.Equal(t, path, database.Path())

	_, err = Open(Config{})
	require.Error(t, err)
}
