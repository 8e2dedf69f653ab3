// Package data is the backend boundary of the chat client: service
// contracts plus the in-memory, SQLite and remote implementations.
package data

import (
	"context"
	"errors"
	"time"

	"github.com/tOgg1/chatroom/internal/models"
)

const (
	defaultPollInterval        = 500 * time.Millisecond
	defaultReconnectInterval   = 2 * time.Second
	defaultDialTimeout         = 5 * time.Second
	defaultRequestTimeout      = 10 * time.Second
	defaultSubscribeBufferSize = 16
	defaultProfileCacheTTL     = time.Minute
	defaultProfileCacheSize    = 512
)

// Backend errors. Implementations wrap their own causes with these so callers
// can branch with errors.Is regardless of provider.
var (
	ErrNotFound       = errors.New("not found")
	ErrNotGroup       = errors.New("conversation is not a group")
	ErrNotPrivate     = errors.New("conversation is not private")
	ErrNotParticipant = errors.New("not a participant")
	ErrUnavailable    = errors.New("backend unavailable")
)

// ChatService is everything the conversation and home views need from the
// backend.
type ChatService interface {
	// FetchConversation loads one conversation; ErrNotFound when absent.
	FetchConversation(ctx context.Context, roomID string) (models.Conversation, error)
	// ListConversations lists the rooms a user participates in.
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	// SubscribeMessages streams the full ordered history of a room: one
	// snapshot immediately, then one per change. The channel closes after
	// cancel is called; cancel is safe to call more than once.
	SubscribeMessages(roomID string) (<-chan []models.Message, func())
	// SendMessage appends a message. The backend assigns the ID.
	SendMessage(ctx context.Context, msg models.Message) (models.Message, error)
	RemoveContact(ctx context.Context, selfID, otherID string) error
	LeaveGroup(ctx context.Context, roomID, selfID string) error
	RenameGroup(ctx context.Context, roomID, name string) error
	SetGroupPhoto(ctx context.Context, roomID, photoURL string) error
}

// ProfileService resolves user summaries.
type ProfileService interface {
	// FetchProfile returns ErrNotFound for unknown users.
	FetchProfile(ctx context.Context, userID string) (models.Profile, error)
}

// Provider is a complete backend.
type Provider interface {
	ChatService
	ProfileService
	Close() error
}

type MemoryProviderConfig struct {
	Seed            Seed
	SubscribeBuffer int
}

type SQLiteProviderConfig struct {
	Path string
	// PollInterval bounds how late a write from another process is seen.
	PollInterval    time.Duration
	SubscribeBuffer int
}

type RemoteProviderConfig struct {
	Addr              string
	DialTimeout       time.Duration
	RequestTimeout    time.Duration
	ReconnectInterval time.Duration
	SubscribeBuffer   int
	ProfileCacheTTL   time.Duration
	ProfileCacheSize  int
}

func orDuration(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}

func orInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
