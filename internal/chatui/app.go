// Package chatui is the terminal chat client: a home view listing the user's
// conversations and the conversation view that renders one room.
package chatui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/logging"
)

const defaultRequestTimeout = 10 * time.Second

type Theme string

const (
	ThemeDefault      Theme = "default"
	ThemeHighContrast Theme = "high-contrast"
)

type ViewID string

const (
	ViewHome         ViewID = "home"
	ViewConversation ViewID = "conversation"
)

// Session is the authenticated identity the views act as.
type Session struct {
	UserID string
}

type Config struct {
	UserID         string
	RoomID         string
	Theme          string
	ToastDuration  time.Duration
	RequestTimeout time.Duration
	Mouse          bool
	Provider       data.Provider
	// Notifier replaces the footer toast; tests pass a recorder.
	Notifier Notifier
}

type Model struct {
	session  Session
	provider data.Provider
	theme    Theme
	mouse    bool
	toast    *toastNotifier
	logger   zerolog.Logger
	// startRoom opens on Init when a room id was given on the command line.
	startRoom string

	width  int
	height int

	viewStack    []ViewID
	views        map[ViewID]viewModel
	home         *homeView
	conversation *conversationView
}

type viewModel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int, theme Theme) string
}

// roomScopedMsg is an async result issued on behalf of one conversation
// subscription. The app routes these to the conversation view even when the
// home view is on top, so the view can drop or finish them.
type roomScopedMsg interface {
	generation() uint64
}

type openRoomMsg struct {
	roomID string
}

type navigateHomeMsg struct{}

func openRoomCmd(roomID string) tea.Cmd {
	return func() tea.Msg {
		return openRoomMsg{roomID: roomID}
	}
}

func navigateHomeCmd() tea.Cmd {
	return func() tea.Msg {
		return navigateHomeMsg{}
	}
}

func NewModel(cfg Config) (*Model, error) {
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	toast := newToastNotifier(normalized.ToastDuration)
	var notifier Notifier = toast
	if normalized.Notifier != nil {
		notifier = normalized.Notifier
	}

	session := Session{UserID: normalized.UserID}
	m := &Model{
		session:   session,
		provider:  normalized.Provider,
		theme:     Theme(normalized.Theme),
		mouse:     normalized.Mouse,
		toast:     toast,
		logger:    logging.Component("chatui"),
		viewStack: []ViewID{ViewHome},
		views:     make(map[ViewID]viewModel),
	}
	m.home = newHomeView(session, normalized.Provider, normalized.Provider, notifier, normalized.RequestTimeout)
	m.conversation = newConversationView(session, normalized.Provider, normalized.Provider, notifier, normalized.RequestTimeout)
	m.views[ViewHome] = m.home
	m.views[ViewConversation] = m.conversation

	if normalized.RoomID != "" {
		m.startRoom = normalized.RoomID
		m.viewStack = append(m.viewStack, ViewConversation)
	}
	return m, nil
}

// Run opens the TUI on the alternate screen and blocks until it exits. The
// provider stays owned by the caller.
func Run(cfg Config) error {
	model, err := NewModel(cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if model.mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	program := tea.NewProgram(model, opts...)
	_, err = program.Run()
	return err
}

// Close releases every view resource, including the live subscription.
func (m *Model) Close() error {
	if m == nil {
		return nil
	}
	for _, view := range m.views {
		if closer, ok := view.(interface{ Close() }); ok {
			closer.Close()
		}
	}
	return nil
}

// Init loads the room list and, when a room was given at startup, opens it.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.home.Init()}
	if m.startRoom != "" {
		cmds = append(cmds, m.conversation.SetRoom(m.startRoom), m.conversation.Init())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case toastExpiredMsg:
		m.toast.expire(typed.seq)
		return m, nil
	case openRoomMsg:
		m.logger.Debug().Str("room_id", typed.roomID).Msg("open room")
		cmd := m.conversation.SetRoom(typed.roomID)
		m.pushView(ViewConversation)
		return m, tea.Batch(cmd, m.conversation.Init())
	case navigateHomeMsg:
		m.conversation.SetRoom("")
		m.popToRoot()
		return m, m.home.Init()
	case homeLoadedMsg:
		return m, m.home.Update(msg)
	case roomScopedMsg:
		return m, m.conversation.Update(msg)
	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(typed); handled {
			return m, cmd
		}
	case tea.MouseMsg:
		typed.Y -= m.headerHeight()
		msg = typed
	}

	if active := m.activeView(); active != nil {
		return m, active.Update(msg)
	}
	return m, nil
}

func (m *Model) View() string {
	active := m.activeView()
	if active == nil {
		return "no active view"
	}
	header := m.renderHeader()
	footer := m.renderFooter()
	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}
	body := active.View(m.width, contentHeight, m.theme)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true
	}
	if m.activeViewID() != ViewHome {
		return nil, false
	}
	switch msg.String() {
	case "q":
		return tea.Quit, true
	}
	return nil, false
}

func (m *Model) headerHeight() int {
	return lipgloss.Height(m.renderHeader())
}

func (m *Model) activeView() viewModel {
	return m.views[m.activeViewID()]
}

func (m *Model) activeViewID() ViewID {
	if len(m.viewStack) == 0 {
		return ViewHome
	}
	return m.viewStack[len(m.viewStack)-1]
}

func (m *Model) pushView(id ViewID) {
	if _, ok := m.views[id]; !ok {
		return
	}
	if m.activeViewID() == id {
		return
	}
	m.viewStack = append(m.viewStack, id)
}

func (m *Model) popToRoot() {
	if len(m.viewStack) > 1 {
		m.viewStack = m.viewStack[:1]
	}
}

var (
	errMissingUser     = errors.New("chatui: user id is required")
	errMissingProvider = errors.New("chatui: provider is required")
)

func (c Config) normalize() (Config, error) {
	c.UserID = strings.TrimSpace(c.UserID)
	c.RoomID = strings.TrimSpace(c.RoomID)
	if c.UserID == "" {
		return Config{}, errMissingUser
	}
	if c.Provider == nil {
		return Config{}, errMissingProvider
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.ToastDuration <= 0 {
		c.ToastDuration = defaultToastDuration
	}
	if strings.TrimSpace(c.Theme) == "" {
		c.Theme = string(ThemeDefault)
	}
	switch Theme(c.Theme) {
	case ThemeDefault, ThemeHighContrast:
	default:
		return Config{}, fmt.Errorf("invalid theme %q", c.Theme)
	}
	return c, nil
}
