package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseConversationKind(t *testing.T) {
	kind, err := ParseConversationKind(" Group ")
	require.NoError(t, err)
	require.Equal(t, ConversationGroup, kind)

	kind, err = ParseConversationKind("private")
	require.NoError(t, err)
	require.Equal(t, ConversationPrivate, kind)

	_, err = ParseConversationKind("broadcast")
	require.ErrorIs(t, err, ErrInvalidKind)
}

func TestCounterpartOnlyForPrivate(t *testing.T) {
	private := PrivateConversation{ID: "room-1", Participants: []string{"u1", "u2"}}
	other, ok := Counterpart(private, "u1")
	require.True(t, ok)
	require.Equal(t, "u2", other)

	group := GroupConversation{ID: "room-2", Participants: []string{"u1", "u2"}, Group: GroupInfo{Name: "Trip"}}
	_, ok = Counterpart(group, "u1")
	require.False(t, ok)

	_, ok = Counterpart(PrivateConversation{ID: "solo", Participants: []string{"u1", "u1"}}, "u1")
	require.False(t, ok)
}

func TestGroupWithNameDoesNotAliasParticipants(t *testing.T) {
	original := GroupConversation{ID: "g", Participants: []string{"a", "b"}, Group: GroupInfo{Name: "Old"}}
	renamed := original.WithName("New")
	renamed.Participants[0] = "z"

	require.Equal(t, "Old", original.Group.Name)
	require.Equal(t, "New", renamed.Group.Name)
	require.Equal(t, "a", original.Participants[0])
}

func TestValidateConversation(t *testing.T) {
	require.NoError(t, ValidateConversation(PrivateConversation{ID: "r", Participants: []string{"a", "b"}}))
	require.ErrorIs(t, ValidateConversation(nil), ErrNilConversation)

	err := ValidateConversation(GroupConversation{ID: "", Participants: []string{"a"}})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingID))
	require.True(t, errors.Is(err, ErrBlankName))

	err = ValidateConversation(PrivateConversation{ID: "r", Participants: []string{"a"}})
	require.ErrorContains(t, err, "needs 2 participants")
}

func TestMessageValidate(t *testing.T) {
	msg := Message{RoomID: "room-1", SenderID: "u1", Text: "hello", Kind: MessageKindText, CreatedAt: time.Now()}
	require.NoError(t, msg.Validate())

	msg.Text = "   "
	require.ErrorIs(t, msg.Validate(), ErrBlankText)

	msg.Text = "hi"
	msg.Kind = "image"
	require.ErrorIs(t, msg.Validate(), ErrInvalidKind)
}

func TestValidationErrorsJoinsMessages(t *testing.T) {
	var v ValidationErrors
	require.NoError(t, v.Err())

	v.Add("room_id", ErrMissingID)
	v.AddMessage("text", "too long")
	require.Equal(t, "room_id: identifier is required; text: too long", v.Err().Error())
}
