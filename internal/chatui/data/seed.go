package data

import (
	"time"

	"github.com/tOgg1/chatroom/internal/models"
)

// Contact is an undirected contact-list link.
type Contact struct {
	A string
	B string
}

// Seed is initial backend content. Message IDs may be empty; the provider
// assigns them.
type Seed struct {
	Profiles []models.Profile
	Rooms    []models.Conversation
	Contacts []Contact
	Messages []models.Message
}

// DemoSeed is the content `chatroom seed` and the memory backend start with.
// self is the signed-in user and takes part in every room.
func DemoSeed(self string, now time.Time) Seed {
	if self == "" {
		self = "u1"
	}
	now = now.UTC().Truncate(time.Second)
	at := func(minutesAgo int) time.Time { return now.Add(-time.Duration(minutesAgo) * time.Minute) }

	return Seed{
		Profiles: []models.Profile{
			{ID: self, DisplayName: "You", Online: true},
			{ID: "ada", DisplayName: "Ada Lovelace", Online: true},
			{ID: "grace", DisplayName: "Grace Hopper"},
			{ID: "linus", DisplayName: "Linus", PhotoURL: "https://example.com/avatars/linus.png"},
		},
		Rooms: []models.Conversation{
			models.PrivateConversation{ID: "dm-ada", Participants: []string{self, "ada"}},
			models.PrivateConversation{ID: "dm-grace", Participants: []string{self, "grace"}},
			models.GroupConversation{
				ID:           "trip",
				Participants: []string{self, "ada", "grace", "linus"},
				Group:        models.GroupInfo{Name: "Trip Planning"},
			},
		},
		Contacts: []Contact{{A: self, B: "ada"}, {A: self, B: "grace"}},
		Messages: []models.Message{
			{RoomID: "dm-ada", SenderID: "ada", Text: "Did the engine run overnight?", CreatedAt: at(42)},
			{RoomID: "dm-ada", SenderID: self, Text: "It did. Tables attached.", CreatedAt: at(40)},
			{RoomID: "dm-grace", SenderID: "grace", Text: "Found a moth in relay 70.", CreatedAt: at(30)},
			{RoomID: "trip", SenderID: "linus", Text: "Lisbon or Porto?", CreatedAt: at(15)},
			{RoomID: "trip", SenderID: "ada", Text: "Porto, then the train down.", CreatedAt: at(12)},
			{RoomID: "trip", SenderID: "grace", Text: "I'll book the train.", CreatedAt: at(5)},
		},
	}
}
