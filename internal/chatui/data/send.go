package data

import (
	"strings"
	"time"

	"github.com/tOgg1/chatroom/internal/models"
)

// normalizeOutgoing trims and defaults a message before it is stored. The ID
// is always cleared: the backend owns it.
func normalizeOutgoing(msg models.Message, now time.Time) (models.Message, error) {
	msg.ID = ""
	msg.RoomID = strings.TrimSpace(msg.RoomID)
	msg.SenderID = strings.TrimSpace(msg.SenderID)
	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Kind == "" {
		msg.Kind = models.MessageKindText
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	if err := msg.Validate(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

func normalizeGroupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.ErrBlankName
	}
	return name, nil
}

func normalizePhotoURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", models.ErrBlankURL
	}
	return raw, nil
}
