package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tOgg1/chatroom/internal/db"
	"github.com/tOgg1/chatroom/internal/events"
	"github.com/tOgg1/chatroom/internal/models"
)

// SQLiteProvider serves the chat contracts from a local database file.
// Writes made through this provider wake subscribers immediately; writes from
// other processes (the daemon, `chatroom send`) are picked up by polling.
type SQLiteProvider struct {
	db              *db.DB
	ownsDB          bool
	rooms           *db.RoomRepository
	messages        *db.MessageRepository
	users           *db.UserRepository
	publisher       *events.InMemoryPublisher
	pollInterval    time.Duration
	subscribeBuffer int
}

// NewSQLiteProvider opens and migrates the database at cfg.Path.
func NewSQLiteProvider(ctx context.Context, cfg SQLiteProviderConfig) (*SQLiteProvider, error) {
	database, err := db.Open(db.Config{Path: cfg.Path})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	p := NewSQLiteProviderFromDB(database, cfg)
	p.ownsDB = true
	return p, nil
}

// NewSQLiteProviderFromDB wraps an already migrated database. The caller
// keeps ownership of database.
func NewSQLiteProviderFromDB(database *db.DB, cfg SQLiteProviderConfig) *SQLiteProvider {
	return &SQLiteProvider{
		db:              database,
		rooms:           db.NewRoomRepository(database),
		messages:        db.NewMessageRepository(database),
		users:           db.NewUserRepository(database),
		publisher:       events.NewInMemoryPublisher(),
		pollInterval:    orDuration(cfg.PollInterval, defaultPollInterval),
		subscribeBuffer: orInt(cfg.SubscribeBuffer, defaultSubscribeBufferSize),
	}
}

// Publisher exposes the change bus; chatd logs room changes from it.
func (p *SQLiteProvider) Publisher() events.Publisher {
	return p.publisher
}

// ApplySeed writes seed content. Existing rooms are left alone, which makes
// seeding repeatable.
func (p *SQLiteProvider) ApplySeed(ctx context.Context, seed Seed) error {
	for _, profile := range seed.Profiles {
		if err := p.users.Upsert(ctx, profile); err != nil {
			return err
		}
	}
	fresh := make(map[string]bool, len(seed.Rooms))
	for _, room := range seed.Rooms {
		_, err := p.rooms.Get(ctx, room.ConversationID())
		if err == nil {
			continue
		}
		if !errors.Is(err, db.ErrRoomNotFound) {
			return err
		}
		if _, err := p.rooms.Create(ctx, room); err != nil {
			return err
		}
		fresh[room.ConversationID()] = true
	}
	for _, c := range seed.Contacts {
		if err := p.users.AddContact(ctx, c.A, c.B); err != nil {
			return err
		}
	}
	for _, msg := range seed.Messages {
		if !fresh[msg.RoomID] {
			continue
		}
		normalized, err := normalizeOutgoing(msg, time.Now())
		if err != nil {
			return fmt.Errorf("seed message: %w", err)
		}
		if _, err := p.messages.Append(ctx, normalized); err != nil {
			return fmt.Errorf("seed message: %w", err)
		}
	}
	return nil
}

func (p *SQLiteProvider) FetchConversation(ctx context.Context, roomID string) (models.Conversation, error) {
	conv, err := p.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, translateDBError(err)
	}
	return conv, nil
}

func (p *SQLiteProvider) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	rooms, err := p.rooms.ListForUser(ctx, userID)
	if err != nil {
		return nil, translateDBError(err)
	}
	return rooms, nil
}

func (p *SQLiteProvider) SubscribeMessages(roomID string) (<-chan []models.Message, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan []models.Message, p.subscribeBuffer)

	wake, stop, err := events.Notify(p.publisher, uuid.New().String(), events.Filter{
		RoomID: roomID,
		Types:  []events.Type{events.TypeMessageAppended},
	})
	if err != nil {
		close(out)
		return out, cancel
	}
	go p.subscribeLoop(ctx, out, roomID, wake, stop)
	return out, cancel
}

func (p *SQLiteProvider) subscribeLoop(ctx context.Context, out chan<- []models.Message, roomID string, wake <-chan struct{}, stop func()) {
	defer close(out)
	defer stop()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	lastSeq := int64(-1)
	for {
		seq, err := p.messages.LatestSeq(ctx, roomID)
		if err == nil && seq != lastSeq {
			history, listErr := p.messages.ListByRoom(ctx, roomID)
			if listErr == nil {
				lastSeq = seq
				if !sendSnapshot(ctx, out, history) {
					return
				}
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-wake:
		}
	}
}

func (p *SQLiteProvider) SendMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	normalized, err := normalizeOutgoing(msg, time.Now())
	if err != nil {
		return models.Message{}, err
	}
	conv, err := p.rooms.Get(ctx, normalized.RoomID)
	if err != nil {
		return models.Message{}, translateDBError(err)
	}
	if !models.HasParticipant(conv, normalized.SenderID) {
		return models.Message{}, fmt.Errorf("send to %q: %w", normalized.RoomID, ErrNotParticipant)
	}
	stored, err := p.messages.Append(ctx, normalized)
	if err != nil {
		return models.Message{}, translateDBError(err)
	}
	p.publisher.Publish(ctx, events.Event{Type: events.TypeMessageAppended, RoomID: stored.RoomID, UserID: stored.SenderID})
	return stored, nil
}

func (p *SQLiteProvider) RemoveContact(ctx context.Context, selfID, otherID string) error {
	if err := p.users.RemoveContact(ctx, selfID, otherID); err != nil {
		return translateDBError(err)
	}
	p.publisher.Publish(ctx, events.Event{Type: events.TypeContactRemoved, UserID: selfID})
	return nil
}

func (p *SQLiteProvider) LeaveGroup(ctx context.Context, roomID, selfID string) error {
	if err := p.rooms.RemoveParticipant(ctx, roomID, selfID); err != nil {
		return translateDBError(err)
	}
	p.publisher.Publish(ctx, events.Event{Type: events.TypeMemberLeft, RoomID: roomID, UserID: selfID})
	return nil
}

func (p *SQLiteProvider) RenameGroup(ctx context.Context, roomID, name string) error {
	name, err := normalizeGroupName(name)
	if err != nil {
		return err
	}
	if err := p.rooms.Rename(ctx, roomID, name); err != nil {
		return translateDBError(err)
	}
	p.publisher.Publish(ctx, events.Event{Type: events.TypeRoomUpdated, RoomID: roomID})
	return nil
}

func (p *SQLiteProvider) SetGroupPhoto(ctx context.Context, roomID, photoURL string) error {
	photoURL, err := normalizePhotoURL(photoURL)
	if err != nil {
		return err
	}
	if err := p.rooms.SetPhoto(ctx, roomID, photoURL); err != nil {
		return translateDBError(err)
	}
	p.publisher.Publish(ctx, events.Event{Type: events.TypeRoomUpdated, RoomID: roomID})
	return nil
}

func (p *SQLiteProvider) FetchProfile(ctx context.Context, userID string) (models.Profile, error) {
	profile, err := p.users.Get(ctx, userID)
	if err != nil {
		return models.Profile{}, translateDBError(err)
	}
	return profile, nil
}

func (p *SQLiteProvider) Close() error {
	p.publisher.Close()
	if p.ownsDB {
		return p.db.Close()
	}
	return nil
}

// translateDBError maps repository sentinels onto the backend sentinels while
// keeping the original in the chain.
func translateDBError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrRoomNotFound),
		errors.Is(err, db.ErrUserNotFound),
		errors.Is(err, db.ErrContactNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, db.ErrRoomNotGroup):
		return fmt.Errorf("%w: %w", ErrNotGroup, err)
	case errors.Is(err, db.ErrNotParticipant):
		return fmt.Errorf("%w: %w", ErrNotParticipant, err)
	default:
		return err
	}
}
