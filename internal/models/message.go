package models

import (
	"strings"
	"time"
)

// MessageKind is the payload type of a message. Only text exists today.
type MessageKind string

const MessageKindText MessageKind = "text"

// Message is one chat record. The ID is assigned by the backend.
type Message struct {
	ID        string      `json:"id"`
	RoomID    string      `json:"room_id"`
	SenderID  string      `json:"sender_id"`
	Text      string      `json:"text"`
	Kind      MessageKind `json:"type"`
	CreatedAt time.Time   `json:"timestamp"`
	Read      bool        `json:"read"`
}

// Validate checks a message before it is handed to a backend.
func (m Message) Validate() error {
	var v ValidationErrors
	if strings.TrimSpace(m.RoomID) == "" {
		v.Add("room_id", ErrMissingID)
	}
	if strings.TrimSpace(m.SenderID) == "" {
		v.Add("sender_id", ErrMissingID)
	}
	if strings.TrimSpace(m.Text) == "" {
		v.Add("text", ErrBlankText)
	}
	if m.Kind != MessageKindText {
		v.Add("type", ErrInvalidKind)
	}
	return v.Err()
}

// CloneMessages copies a snapshot so receivers never share a backing array.
func CloneMessages(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	copy(out, in)
	return out
}
