package chatui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/models"
)

type notice struct {
	level NoticeLevel
	text  string
}

type recordingNotifier struct {
	notices []notice
}

func (n *recordingNotifier) Notify(level NoticeLevel, text string) tea.Cmd {
	n.notices = append(n.notices, notice{level: level, text: text})
	return nil
}

func (n *recordingNotifier) last() notice {
	if len(n.notices) == 0 {
		return notice{}
	}
	return n.notices[len(n.notices)-1]
}

type stubSub struct {
	roomID   string
	ch       chan []models.Message
	cancels  int
	released bool
}

// stubProvider records every call and hands out subscriptions the test
// feeds by hand.
type stubProvider struct {
	mu sync.Mutex

	rooms    map[string]models.Conversation
	profiles map[string]models.Profile
	subs     []*stubSub

	fetches       []string
	profileCalls  []string
	sent          []models.Message
	renames       []string
	photos        []string
	removed       [][2]string
	left          [][2]string
	listCalls     int
	sendErr       error
	renameErr     error
	photoErr      error
	removeErr     error
	leaveErr      error
	fetchErr      error
	closeCalled   bool
	subscribeHook func(roomID string)
}

var _ data.Provider = (*stubProvider)(nil)

func newStubProvider() *stubProvider {
	return &stubProvider{
		rooms: map[string]models.Conversation{
			"room-1": models.PrivateConversation{ID: "room-1", Participants: []string{"u1", "u2"}},
			"g1": models.GroupConversation{
				ID:           "g1",
				Participants: []string{"u1", "u2", "u3"},
				Group:        models.GroupInfo{Name: "Weekend"},
			},
		},
		profiles: map[string]models.Profile{
			"u1": {ID: "u1", DisplayName: "Alice"},
			"u2": {ID: "u2", DisplayName: "Bob", Online: true},
		},
	}
}

func (p *stubProvider) FetchConversation(_ context.Context, roomID string) (models.Conversation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetches = append(p.fetches, roomID)
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	conv, ok := p.rooms[roomID]
	if !ok {
		return nil, data.ErrNotFound
	}
	return conv, nil
}

func (p *stubProvider) ListConversations(_ context.Context, userID string) ([]models.Conversation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listCalls++
	out := make([]models.Conversation, 0, len(p.rooms))
	for _, id := range []string{"room-1", "g1"} {
		if conv, ok := p.rooms[id]; ok && models.HasParticipant(conv, userID) {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (p *stubProvider) SubscribeMessages(roomID string) (<-chan []models.Message, func()) {
	p.mu.Lock()
	sub := &stubSub{roomID: roomID, ch: make(chan []models.Message, 8)}
	p.subs = append(p.subs, sub)
	hook := p.subscribeHook
	p.mu.Unlock()
	if hook != nil {
		hook(roomID)
	}
	return sub.ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		sub.cancels++
		if !sub.released {
			sub.released = true
			close(sub.ch)
		}
	}
}

func (p *stubProvider) SendMessage(_ context.Context, msg models.Message) (models.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	if p.sendErr != nil {
		return models.Message{}, p.sendErr
	}
	msg.ID = "m-1"
	return msg, nil
}

func (p *stubProvider) RemoveContact(_ context.Context, selfID, otherID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removed = append(p.removed, [2]string{selfID, otherID})
	return p.removeErr
}

func (p *stubProvider) LeaveGroup(_ context.Context, roomID, selfID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.left = append(p.left, [2]string{roomID, selfID})
	return p.leaveErr
}

func (p *stubProvider) RenameGroup(_ context.Context, _ string, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renames = append(p.renames, name)
	return p.renameErr
}

func (p *stubProvider) SetGroupPhoto(_ context.Context, _ string, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.photos = append(p.photos, url)
	return p.photoErr
}

func (p *stubProvider) FetchProfile(_ context.Context, userID string) (models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profileCalls = append(p.profileCalls, userID)
	profile, ok := p.profiles[userID]
	if !ok {
		return models.Profile{}, data.ErrNotFound
	}
	return profile, nil
}

func (p *stubProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCalled = true
	return nil
}

func (p *stubProvider) sub(i int) *stubSub {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subs[i]
}

func (p *stubProvider) cancelCount(i int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subs[i].cancels
}

// collect runs cmd (flattening batches) and gathers every message produced
// within wait. Commands still blocked afterwards, such as a feed wait on an
// idle channel, are abandoned.
func collect(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	const wait = 150 * time.Millisecond

	out := make(chan tea.Msg, 64)
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() {
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, inner := range batch {
					run(inner)
				}
				return
			}
			if msg != nil {
				out <- msg
			}
		}()
	}
	run(cmd)

	var msgs []tea.Msg
	deadline := time.After(wait)
	for {
		select {
		case msg := <-out:
			msgs = append(msgs, msg)
		case <-deadline:
			return msgs
		}
	}
}

// settle feeds the results of cmd back into v until nothing new arrives.
func settle(t *testing.T, v *conversationView, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var seen []tea.Msg
	for i := 0; i < 6 && cmd != nil; i++ {
		msgs := collect(t, cmd)
		if len(msgs) == 0 {
			break
		}
		seen = append(seen, msgs...)
		var next []tea.Cmd
		for _, msg := range msgs {
			if _, ok := msg.(roomScopedMsg); !ok {
				continue
			}
			next = append(next, v.Update(msg))
		}
		cmd = tea.Batch(next...)
	}
	return seen
}

func hasMsg[T any](msgs []tea.Msg) bool {
	for _, msg := range msgs {
		if _, ok := msg.(T); ok {
			return true
		}
	}
	return false
}

func newTestView(p *stubProvider, n Notifier) *conversationView {
	return newConversationView(Session{UserID: "u1"}, p, p, n, time.Second)
}

func keyEnter() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }

func keyEsc() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEsc} }

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}
