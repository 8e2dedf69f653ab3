// Package events fans room changes out to in-process subscribers.
package events

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Type names a room change.
type Type string

const (
	TypeMessageAppended Type = "message.appended"
	TypeRoomUpdated     Type = "room.updated"
	TypeMemberLeft      Type = "room.member_left"
	TypeContactRemoved  Type = "contact.removed"
)

// Event is one change notification. It carries identifiers only; receivers
// re-read the state they care about.
type Event struct {
	Type   Type
	RoomID string
	UserID string
	At     time.Time
}

// Handler is invoked for every event matching a subscription.
type Handler func(event Event)

// Filter defines criteria for matching events.
type Filter struct {
	// Types filters by event type (nil = all types).
	Types []Type

	// RoomID filters to a single room (empty = all).
	RoomID string
}

// Matches returns true if the event matches the filter criteria.
func (f Filter) Matches(event Event) bool {
	if len(f.Types) > 0 {
		matched := false
		for _, t := range f.Types {
			if event.Type == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if f.RoomID != "" && event.RoomID != f.RoomID {
		return false
	}
	return true
}

// Publisher errors.
var (
	ErrInvalidSubscriptionID = errors.New("subscription ID is required")
	ErrNilHandler            = errors.New("handler cannot be nil")
	ErrSubscriptionExists    = errors.New("subscription with this ID already exists")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
)

// Publisher is the room change bus.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Subscribe(id string, filter Filter, handler Handler) error
	Unsubscribe(id string) error
	SubscriberCount() int
}

type subscription struct {
	filter  Filter
	handler Handler
}

// InMemoryPublisher implements Publisher with synchronous in-process
// delivery.
type InMemoryPublisher struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	now           func() time.Time
}

// NewInMemoryPublisher creates a new in-memory event publisher.
func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{
		subscriptions: make(map[string]*subscription),
		now:           time.Now,
	}
}

// Publish calls every matching handler on the caller's goroutine. Handlers
// must not block.
func (p *InMemoryPublisher) Publish(_ context.Context, event Event) {
	if event.At.IsZero() {
		event.At = p.now().UTC()
	}

	p.mu.RLock()
	handlers := make([]Handler, 0, len(p.subscriptions))
	for _, sub := range p.subscriptions {
		if sub.filter.Matches(event) {
			handlers = append(handlers, sub.handler)
		}
	}
	p.mu.RUnlock()

	// Outside the lock so a handler may unsubscribe itself.
	for _, handler := range handlers {
		handler(event)
	}
}

// Subscribe registers a handler to receive events matching the filter.
func (p *InMemoryPublisher) Subscribe(id string, filter Filter, handler Handler) error {
	if id == "" {
		return ErrInvalidSubscriptionID
	}
	if handler == nil {
		return ErrNilHandler
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; exists {
		return ErrSubscriptionExists
	}
	p.subscriptions[id] = &subscription{filter: filter, handler: handler}
	return nil
}

// Unsubscribe removes a subscription by ID.
func (p *InMemoryPublisher) Unsubscribe(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; !exists {
		return ErrSubscriptionNotFound
	}
	delete(p.subscriptions, id)
	return nil
}

// SubscriberCount returns the number of active subscribers.
func (p *InMemoryPublisher) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscriptions)
}

// Close removes all subscriptions.
func (p *InMemoryPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscriptions = make(map[string]*subscription)
}

// Notify subscribes a coalescing wake-up channel: every matching event
// leaves at most one pending signal. The returned func unsubscribes.
func Notify(p Publisher, id string, filter Filter) (<-chan struct{}, func(), error) {
	wake := make(chan struct{}, 1)
	err := p.Subscribe(id, filter, func(Event) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, func() {}, err
	}
	var once sync.Once
	return wake, func() { once.Do(func() { _ = p.Unsubscribe(id) }) }, nil
}
