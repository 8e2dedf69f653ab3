package data

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tOgg1/chatroom/internal/events"
	"github.com/tOgg1/chatroom/internal/models"
)

// MemoryProvider keeps everything in process. Used for demos and tests.
type MemoryProvider struct {
	mu              sync.RWMutex
	rooms           map[string]models.Conversation
	messages        map[string][]models.Message
	profiles        map[string]models.Profile
	contacts        map[string]map[string]struct{}
	publisher       *events.InMemoryPublisher
	subscribeBuffer int
	now             func() time.Time
}

func NewMemoryProvider(cfg MemoryProviderConfig) (*MemoryProvider, error) {
	p := &MemoryProvider{
		rooms:           make(map[string]models.Conversation),
		messages:        make(map[string][]models.Message),
		profiles:        make(map[string]models.Profile),
		contacts:        make(map[string]map[string]struct{}),
		publisher:       events.NewInMemoryPublisher(),
		subscribeBuffer: orInt(cfg.SubscribeBuffer, defaultSubscribeBufferSize),
		now:             time.Now,
	}
	if err := p.apply(cfg.Seed); err != nil {
		return nil, err
	}
	return p, nil
}

// Publisher exposes the change bus; chatd logs room changes from it.
func (p *MemoryProvider) Publisher() events.Publisher {
	return p.publisher
}

func (p *MemoryProvider) apply(seed Seed) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, profile := range seed.Profiles {
		p.profiles[profile.ID] = profile
	}
	for _, room := range seed.Rooms {
		if err := models.ValidateConversation(room); err != nil {
			return fmt.Errorf("seed room: %w", err)
		}
		p.rooms[room.ConversationID()] = room
	}
	for _, c := range seed.Contacts {
		p.linkContact(c.A, c.B)
	}
	for _, msg := range seed.Messages {
		if _, ok := p.rooms[msg.RoomID]; !ok {
			return fmt.Errorf("seed message for room %q: %w", msg.RoomID, ErrNotFound)
		}
		normalized, err := normalizeOutgoing(msg, p.now())
		if err != nil {
			return fmt.Errorf("seed message: %w", err)
		}
		normalized.ID = uuid.New().String()
		p.messages[msg.RoomID] = append(p.messages[msg.RoomID], normalized)
	}
	return nil
}

func (p *MemoryProvider) linkContact(a, b string) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		set, ok := p.contacts[pair[0]]
		if !ok {
			set = make(map[string]struct{})
			p.contacts[pair[0]] = set
		}
		set[pair[1]] = struct{}{}
	}
}

func (p *MemoryProvider) FetchConversation(_ context.Context, roomID string) (models.Conversation, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	room, ok := p.rooms[strings.TrimSpace(roomID)]
	if !ok {
		return nil, fmt.Errorf("room %q: %w", roomID, ErrNotFound)
	}
	return copyConversation(room), nil
}

func (p *MemoryProvider) ListConversations(_ context.Context, userID string) ([]models.Conversation, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]models.Conversation, 0, len(p.rooms))
	for _, room := range p.rooms {
		if models.HasParticipant(room, userID) {
			out = append(out, copyConversation(room))
		}
	}
	sortByActivity(out, func(roomID string) time.Time {
		history := p.messages[roomID]
		if len(history) == 0 {
			return time.Time{}
		}
		return history[len(history)-1].CreatedAt
	})
	return out, nil
}

func (p *MemoryProvider) SubscribeMessages(roomID string) (<-chan []models.Message, func()) {
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

	go func() {
		defer close(out)
		defer stop()
		for {
			if !sendSnapshot(ctx, out, p.snapshot(roomID)) {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-wake:
			}
		}
	}()
	return out, cancel
}

func (p *MemoryProvider) snapshot(roomID string) []models.Message {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return models.CloneMessages(p.messages[roomID])
}

func (p *MemoryProvider) SendMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	normalized, err := normalizeOutgoing(msg, p.now())
	if err != nil {
		return models.Message{}, err
	}

	p.mu.Lock()
	room, ok := p.rooms[normalized.RoomID]
	if !ok {
		p.mu.Unlock()
		return models.Message{}, fmt.Errorf("room %q: %w", normalized.RoomID, ErrNotFound)
	}
	if !models.HasParticipant(room, normalized.SenderID) {
		p.mu.Unlock()
		return models.Message{}, fmt.Errorf("send to %q: %w", normalized.RoomID, ErrNotParticipant)
	}
	normalized.ID = uuid.New().String()
	p.messages[normalized.RoomID] = append(p.messages[normalized.RoomID], normalized)
	p.mu.Unlock()

	p.publisher.Publish(ctx, events.Event{Type: events.TypeMessageAppended, RoomID: normalized.RoomID, UserID: normalized.SenderID})
	return normalized, nil
}

func (p *MemoryProvider) RemoveContact(ctx context.Context, selfID, otherID string) error {
	p.mu.Lock()
	_, forward := p.contacts[selfID][otherID]
	_, backward := p.contacts[otherID][selfID]
	if !forward && !backward {
		p.mu.Unlock()
		return fmt.Errorf("contact %q: %w", otherID, ErrNotFound)
	}
	delete(p.contacts[selfID], otherID)
	delete(p.contacts[otherID], selfID)
	p.mu.Unlock()

	p.publisher.Publish(ctx, events.Event{Type: events.TypeContactRemoved, UserID: selfID})
	return nil
}

// Contacts lists selfID's contacts.
func (p *MemoryProvider) Contacts(selfID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.contacts[selfID]))
	for id := range p.contacts[selfID] {
		out = append(out, id)
	}
	sortStrings(out)
	return out
}

func (p *MemoryProvider) LeaveGroup(ctx context.Context, roomID, selfID string) error {
	err := p.updateGroup(roomID, func(group models.GroupConversation) (models.GroupConversation, error) {
		kept := make([]string, 0, len(group.Participants))
		for _, id := range group.Participants {
			if id != selfID {
				kept = append(kept, id)
			}
		}
		if len(kept) == len(group.Participants) {
			return group, ErrNotParticipant
		}
		group.Participants = kept
		return group, nil
	})
	if err != nil {
		return err
	}
	p.publisher.Publish(ctx, events.Event{Type: events.TypeMemberLeft, RoomID: roomID, UserID: selfID})
	return nil
}

func (p *MemoryProvider) RenameGroup(ctx context.Context, roomID, name string) error {
	name, err := normalizeGroupName(name)
	if err != nil {
		return err
	}
	if err := p.updateGroup(roomID, func(group models.GroupConversation) (models.GroupConversation, error) {
		return group.WithName(name), nil
	}); err != nil {
		return err
	}
	p.publisher.Publish(ctx, events.Event{Type: events.TypeRoomUpdated, RoomID: roomID})
	return nil
}

func (p *MemoryProvider) SetGroupPhoto(ctx context.Context, roomID, photoURL string) error {
	photoURL, err := normalizePhotoURL(photoURL)
	if err != nil {
		return err
	}
	if err := p.updateGroup(roomID, func(group models.GroupConversation) (models.GroupConversation, error) {
		return group.WithPhotoURL(photoURL), nil
	}); err != nil {
		return err
	}
	p.publisher.Publish(ctx, events.Event{Type: events.TypeRoomUpdated, RoomID: roomID})
	return nil
}

func (p *MemoryProvider) updateGroup(roomID string, fn func(models.GroupConversation) (models.GroupConversation, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	room, ok := p.rooms[roomID]
	if !ok {
		return fmt.Errorf("room %q: %w", roomID, ErrNotFound)
	}
	group, ok := room.(models.GroupConversation)
	if !ok {
		return fmt.Errorf("room %q: %w", roomID, ErrNotGroup)
	}
	updated, err := fn(group)
	if err != nil {
		return fmt.Errorf("room %q: %w", roomID, err)
	}
	p.rooms[roomID] = updated
	return nil
}

func (p *MemoryProvider) FetchProfile(_ context.Context, userID string) (models.Profile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	profile, ok := p.profiles[userID]
	if !ok {
		return models.Profile{}, fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	return profile, nil
}

// Close stops change notifications. Open subscriptions still need their
// cancel funcs called.
func (p *MemoryProvider) Close() error {
	p.publisher.Close()
	return nil
}

func copyConversation(conv models.Conversation) models.Conversation {
	switch typed := conv.(type) {
	case models.PrivateConversation:
		typed.Participants = typed.ParticipantIDs()
		return typed
	case models.GroupConversation:
		typed.Participants = typed.ParticipantIDs()
		return typed
	default:
		return conv
	}
}

// sendSnapshot delivers one snapshot and reports false once ctx is done.
func sendSnapshot(ctx context.Context, out chan<- []models.Message, snapshot []models.Message) bool {
	if snapshot == nil {
		snapshot = []models.Message{}
	}
	select {
	case <-ctx.Done():
		return false
	case out <- snapshot:
		return true
	}
}
