// Package models defines the chat domain types shared by the client, the
// local store, and the daemon.
package models

import (
	"fmt"
	"strings"
)

// ConversationKind identifies the variant of a Conversation.
type ConversationKind string

const (
	ConversationPrivate ConversationKind = "private"
	ConversationGroup   ConversationKind = "group"
)

// ParseConversationKind validates a stored or transmitted kind string.
func ParseConversationKind(raw string) (ConversationKind, error) {
	switch ConversationKind(strings.ToLower(strings.TrimSpace(raw))) {
	case ConversationPrivate:
		return ConversationPrivate, nil
	case ConversationGroup:
		return ConversationGroup, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, raw)
	}
}

// Conversation is a closed union: the only implementations are
// PrivateConversation and GroupConversation.
type Conversation interface {
	ConversationID() string
	Kind() ConversationKind
	ParticipantIDs() []string

	isConversation()
}

// GroupInfo is the metadata only group conversations carry.
type GroupInfo struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// PrivateConversation is a two-party chat.
type PrivateConversation struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
}

func (c PrivateConversation) ConversationID() string { return c.ID }
func (c PrivateConversation) Kind() ConversationKind { return ConversationPrivate }
func (c PrivateConversation) ParticipantIDs() []string {
	return append([]string(nil), c.Participants...)
}
func (PrivateConversation) isConversation() {}

// GroupConversation is a multi-party chat with a name and photo.
type GroupConversation struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	Group        GroupInfo `json:"group"`
}

func (c GroupConversation) ConversationID() string   { return c.ID }
func (c GroupConversation) Kind() ConversationKind   { return ConversationGroup }
func (c GroupConversation) ParticipantIDs() []string { return append([]string(nil), c.Participants...) }
func (GroupConversation) isConversation()            {}

// WithName returns a copy carrying a new group name.
func (c GroupConversation) WithName(name string) GroupConversation {
	c.Participants = append([]string(nil), c.Participants...)
	c.Group.Name = name
	return c
}

// WithPhotoURL returns a copy carrying a new group photo reference.
func (c GroupConversation) WithPhotoURL(url string) GroupConversation {
	c.Participants = append([]string(nil), c.Participants...)
	c.Group.PhotoURL = url
	return c
}

// Counterpart returns the other participant of a private conversation.
// It reports false for groups and for rooms where self is the only member.
func Counterpart(conv Conversation, self string) (string, bool) {
	private, ok := conv.(PrivateConversation)
	if !ok {
		return "", false
	}
	for _, id := range private.Participants {
		if id != "" && id != self {
			return id, true
		}
	}
	return "", false
}

// HasParticipant reports whether userID is a member of conv.
func HasParticipant(conv Conversation, userID string) bool {
	if conv == nil {
		return false
	}
	for _, id := range conv.ParticipantIDs() {
		if id == userID {
			return true
		}
	}
	return false
}

// ValidateConversation checks the fields every variant must carry.
func ValidateConversation(conv Conversation) error {
	if conv == nil {
		return ErrNilConversation
	}
	var v ValidationErrors
	if strings.TrimSpace(conv.ConversationID()) == "" {
		v.Add("id", ErrMissingID)
	}
	participants := conv.ParticipantIDs()
	switch typed := conv.(type) {
	case PrivateConversation:
		if len(participants) != 2 {
			v.AddMessage("participants", fmt.Sprintf("private conversation needs 2 participants, got %d", len(participants)))
		}
	case GroupConversation:
		if len(participants) == 0 {
			v.AddMessage("participants", "group conversation needs at least one participant")
		}
		if strings.TrimSpace(typed.Group.Name) == "" {
			v.Add("group.name", ErrBlankName)
		}
	}
	return v.Err()
}
