package data

import (
	"slices"
	"strings"
	"time"

	"github.com/tOgg1/chatroom/internal/models"
)

// sortByActivity orders rooms newest activity first, then by id.
func sortByActivity(rooms []models.Conversation, lastActivity func(roomID string) time.Time) {
	slices.SortStableFunc(rooms, func(a, b models.Conversation) int {
		ta, tb := lastActivity(a.ConversationID()), lastActivity(b.ConversationID())
		if c := tb.Compare(ta); c != 0 {
			return c
		}
		return strings.Compare(a.ConversationID(), b.ConversationID())
	})
}

func sortStrings(values []string) {
	slices.Sort(values)
}
