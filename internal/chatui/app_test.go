package chatui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/models"
)

func TestConfigNormalize(t *testing.T) {
	p := newStubProvider()

	cfg, err := Config{UserID: " u1 ", Provider: p}.normalize()
	require.NoError(t, err)
	require.Equal(t, "u1", cfg.UserID)
	require.Equal(t, string(ThemeDefault), cfg.Theme)
	require.Equal(t, defaultRequestTimeout, cfg.RequestTimeout)
	require.Equal(t, defaultToastDuration, cfg.ToastDuration)

	_, err = Config{UserID: "u1", Provider: p, Theme: "neon"}.normalize()
	require.ErrorContains(t, err, `invalid theme "neon"`)

	_, err = Config{Provider: p}.normalize()
	require.ErrorIs(t, err, errMissingUser)

	_, err = Config{UserID: "u1"}.normalize()
	require.ErrorIs(t, err, errMissingProvider)
}

func newTestModel(t *testing.T, p *stubProvider, roomID string) (*Model, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	m, err := NewModel(Config{UserID: "u1", RoomID: roomID, Provider: p, Notifier: n, RequestTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m, n
}

// pump feeds every message cmd produces back into the model.
func pump(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for i := 0; i < 6 && cmd != nil; i++ {
		msgs := collect(t, cmd)
		if len(msgs) == 0 {
			return
		}
		var next []tea.Cmd
		for _, msg := range msgs {
			_, c := m.Update(msg)
			next = append(next, c)
		}
		cmd = tea.Batch(next...)
	}
}

func TestModelStartsInGivenRoom(t *testing.T) {
	p := newStubProvider()
	m, _ := newTestModel(t, p, "g1")
	require.Equal(t, ViewConversation, m.activeViewID())

	pump(t, m, m.Init())
	require.Equal(t, "g1", m.conversation.roomID)
	require.Equal(t, 1, p.listCalls)

	out := m.View()
	require.Contains(t, out, "Weekend")
	require.Contains(t, out, "ctrl+o options")
	require.Len(t, strings.Split(out, "\n"), 24)
}

func TestModelOpensRoomFromHomeAndNavigatesBack(t *testing.T) {
	p := newStubProvider()
	m, _ := newTestModel(t, p, "")
	pump(t, m, m.Init())
	require.Equal(t, ViewHome, m.activeViewID())
	require.Len(t, m.home.entries, 2)
	require.Contains(t, m.View(), "Bob")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	pump(t, m, cmd)
	require.Equal(t, ViewConversation, m.activeViewID())
	require.Equal(t, "g1", m.conversation.roomID)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	pump(t, m, cmd)
	require.Equal(t, ViewHome, m.activeViewID())
	require.Empty(t, m.conversation.roomID)
	require.Equal(t, 1, p.cancelCount(0))
	require.Equal(t, 2, p.listCalls)
}

func TestModelTranslatesMouseBelowHeader(t *testing.T) {
	p := newStubProvider()
	m, _ := newTestModel(t, p, "g1")
	pump(t, m, m.Init())
	m.View()

	trigger := m.conversation.layout(80, m.height-2).trigger
	m.Update(press(trigger.X, trigger.Y+m.headerHeight()))
	require.True(t, m.conversation.menu.IsOpen())

	m.Update(press(0, 0))
	require.False(t, m.conversation.menu.IsOpen(), "header press counts as outside the menu")
}

func TestModelRoutesRoomResultsWhileHomeIsActive(t *testing.T) {
	p := newStubProvider()
	m, n := newTestModel(t, p, "g1")
	pump(t, m, m.Init())
	gen := m.conversation.gen

	m.conversation.nameEdit.Begin("Weekend")
	m.conversation.nameEdit.input.SetValue("Trip Planning")
	_, cmd := m.Update(keyEnter())
	msgs := collect(t, cmd)
	require.True(t, hasMsg[groupNameResultMsg](msgs))

	m.Update(navigateHomeMsg{})
	require.Equal(t, ViewHome, m.activeViewID())
	for _, msg := range msgs {
		m.Update(msg)
	}
	require.NotEqual(t, gen, m.conversation.gen)
	require.Equal(t, notice{level: NoticeSuccess, text: "Group name updated successfully"}, n.last())
}

func TestModelQuitKeys(t *testing.T) {
	p := newStubProvider()
	m, _ := newTestModel(t, p, "")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(openRoomMsg{roomID: "room-1"})
	pump(t, m, cmd)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.Equal(t, ViewConversation, m.activeViewID())
	require.Equal(t, "q", m.conversation.composer.input.Value())
}

func TestToastShowsInFooterUntilExpired(t *testing.T) {
	toast := newToastNotifier(time.Minute)
	cmd := toast.Notify(NoticeError, "Failed to send message")
	require.NotNil(t, cmd)
	level, text, ok := toast.active()
	require.True(t, ok)
	require.Equal(t, NoticeError, level)
	require.Equal(t, "Failed to send message", text)

	toast.Notify(NoticeSuccess, "Left group successfully")
	toast.expire(1)
	_, text, ok = toast.active()
	require.True(t, ok, "an older expiry leaves the newer toast")
	require.Equal(t, "Left group successfully", text)

	toast.expire(2)
	_, _, ok = toast.active()
	require.False(t, ok)
}

func TestModelWithMemoryProvider(t *testing.T) {
	provider, err := data.NewMemoryProvider(data.MemoryProviderConfig{Seed: data.DemoSeed("me", time.Unix(1_700_000_000, 0))})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })

	m, err := NewModel(Config{UserID: "me", RoomID: "trip", Provider: provider, Notifier: &recordingNotifier{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	pump(t, m, m.Init())

	require.Equal(t, "Trip Planning", m.conversation.Title())
	require.NotEmpty(t, m.conversation.state.messages)

	_, isGroup := m.conversation.state.conversation.(models.GroupConversation)
	require.True(t, isGroup)
}
