package chatui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/chatui/styles"
	"github.com/tOgg1/chatroom/internal/models"
)

const textListFailed = "Failed to load conversations"

type homeEntry struct {
	roomID string
	title  string
	kind   models.ConversationKind
	detail string
}

type homeLoadedMsg struct {
	seq     uint64
	entries []homeEntry
	err     error
}

// homeView lists the user's conversations; enter opens one.
type homeView struct {
	session  Session
	chat     data.ChatService
	profiles data.ProfileService
	notifier Notifier
	timeout  time.Duration

	seq      uint64
	loading  bool
	entries  []homeEntry
	selected int
	top      int
	height   int
}

func newHomeView(session Session, chat data.ChatService, profiles data.ProfileService, notifier Notifier, timeout time.Duration) *homeView {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &homeView{
		session:  session,
		chat:     chat,
		profiles: profiles,
		notifier: notifier,
		timeout:  timeout,
	}
}

func (v *homeView) Init() tea.Cmd {
	v.seq++
	v.loading = true
	return v.loadCmd(v.seq)
}

func (v *homeView) loadCmd(seq uint64) tea.Cmd {
	chat, profiles, self, timeout := v.chat, v.profiles, v.session.UserID, v.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		convs, err := chat.ListConversations(ctx, self)
		if err != nil {
			return homeLoadedMsg{seq: seq, err: err}
		}
		entries := make([]homeEntry, 0, len(convs))
		for _, conv := range convs {
			entries = append(entries, describeConversation(ctx, profiles, conv, self))
		}
		return homeLoadedMsg{seq: seq, entries: entries}
	}
}

func describeConversation(ctx context.Context, profiles data.ProfileService, conv models.Conversation, self string) homeEntry {
	entry := homeEntry{roomID: conv.ConversationID(), kind: conv.Kind()}
	switch typed := conv.(type) {
	case models.GroupConversation:
		entry.title = typed.Group.Name
		entry.detail = fmt.Sprintf("%d members", len(typed.Participants))
	case models.PrivateConversation:
		entry.title = "Unknown Contact"
		entry.detail = "Offline"
		other, ok := models.Counterpart(typed, self)
		if !ok {
			break
		}
		profile, err := profiles.FetchProfile(ctx, other)
		if err != nil {
			if !errors.Is(err, data.ErrNotFound) {
				entry.detail = "profile unavailable"
			}
			break
		}
		if profile.DisplayName != "" {
			entry.title = profile.DisplayName
		}
		if profile.Online {
			entry.detail = "Online"
		}
	}
	return entry
}

func (v *homeView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case homeLoadedMsg:
		if typed.seq != v.seq {
			return nil
		}
		v.loading = false
		if typed.err != nil {
			if v.notifier != nil {
				return v.notifier.Notify(NoticeError, textListFailed)
			}
			return nil
		}
		v.entries = typed.entries
		v.selected = clampInt(v.selected, 0, maxInt(0, len(v.entries)-1))
		return nil
	case tea.KeyMsg:
		return v.handleKey(typed)
	case tea.MouseMsg:
		if typed.Action != tea.MouseActionPress || typed.Button != tea.MouseButtonLeft {
			return nil
		}
		idx := v.top + typed.Y - 2
		if typed.Y >= 2 && idx >= 0 && idx < len(v.entries) {
			v.selected = idx
			return openRoomCmd(v.entries[idx].roomID)
		}
	}
	return nil
}

func (v *homeView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "j", "down":
		v.selected = minInt(maxInt(0, len(v.entries)-1), v.selected+1)
	case "k", "up":
		v.selected = maxInt(0, v.selected-1)
	case "g", "home":
		v.selected = 0
	case "G", "end":
		v.selected = maxInt(0, len(v.entries)-1)
	case "r":
		return v.Init()
	case "enter":
		if v.selected >= 0 && v.selected < len(v.entries) {
			return openRoomCmd(v.entries[v.selected].roomID)
		}
	}
	return nil
}

func (v *homeView) HelpText() string {
	return "j/k select  enter open  r refresh  q quit"
}

func (v *homeView) View(width, height int, theme Theme) string {
	v.height = height
	palette := styles.Lookup(string(theme))
	if width <= 0 || height <= 0 {
		return ""
	}

	lines := []string{
		palette.Title().Render(truncate("Conversations", width)),
		styles.DividerStyle(palette).Render(strings.Repeat("─", width)),
	}
	switch {
	case v.loading && len(v.entries) == 0:
		lines = append(lines, palette.Muted().Render("Loading..."))
	case len(v.entries) == 0:
		lines = append(lines, palette.Muted().Render("No conversations yet"))
	default:
		rows := maxInt(1, height-2)
		if v.selected < v.top {
			v.top = v.selected
		}
		if v.selected >= v.top+rows {
			v.top = v.selected - rows + 1
		}
		for i := v.top; i < len(v.entries) && i < v.top+rows; i++ {
			lines = append(lines, v.renderEntry(v.entries[i], i == v.selected, width, palette))
		}
	}
	return strings.Join(fitLines(lines, height), "\n")
}

func (v *homeView) renderEntry(entry homeEntry, selected bool, width int, palette styles.Theme) string {
	marker := "  "
	if selected {
		marker = "▸ "
	}
	kind := "@"
	if entry.kind == models.ConversationGroup {
		kind = "#"
	}
	line := fmt.Sprintf("%s%s %s  %s", marker, kind, entry.title, entry.detail)
	line = padVis(truncate(line, width), width)
	if selected {
		return palette.Selected().Render(line)
	}
	return line
}
