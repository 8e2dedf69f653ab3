package chatui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/tOgg1/chatroom/internal/chatui/data"
	"github.com/tOgg1/chatroom/internal/logging"
	"github.com/tOgg1/chatroom/internal/models"
)

const (
	textRoomNotFound      = "Chat room not found"
	textRoomLoadFailed    = "Failed to load chat room"
	textContactNotFound   = "Contact not found"
	textSendFailed        = "Failed to send message"
	textContactRemoved    = "Contact removed successfully"
	textRemoveFailed      = "Failed to remove contact"
	textLeftGroup         = "Left group successfully"
	textLeaveFailed       = "Failed to leave group"
	textGroupRenamed      = "Group name updated successfully"
	textRenameFailed      = "Failed to update group name"
	textGroupPhotoUpdated = "Group photo updated successfully"
	textPhotoFailed       = "Failed to update group photo"
)

// viewState is everything the conversation view renders. It is reset on
// every room change.
type viewState struct {
	messages     []models.Message
	conversation models.Conversation
	counterpart  *models.Profile
	// counterpartMissing is set when the private counterpart has no profile.
	counterpartMissing bool
	loading            bool
}

func (s viewState) group() (models.GroupConversation, bool) {
	group, ok := s.conversation.(models.GroupConversation)
	return group, ok
}

// subscription is the one live message feed a mounted view owns. gen tags
// every result issued for it; results from an older gen are dropped.
type subscription struct {
	gen    uint64
	ch     <-chan []models.Message
	cancel func()
}

func (s *subscription) release() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.ch = nil
}

type (
	conversationLoadedMsg struct {
		gen          uint64
		conversation models.Conversation
		err          error
	}
	profileLoadedMsg struct {
		gen     uint64
		profile models.Profile
		err     error
	}
	messagesMsg struct {
		gen      uint64
		messages []models.Message
	}
	subscriptionClosedMsg struct {
		gen uint64
	}
	sendResultMsg struct {
		gen uint64
		err error
	}
	groupNameResultMsg struct {
		gen  uint64
		name string
		err  error
	}
	groupPhotoResultMsg struct {
		gen uint64
		url string
		err error
	}
	membershipResultMsg struct {
		gen    uint64
		action membershipAction
		err    error
	}
)

func (m conversationLoadedMsg) generation() uint64 { return m.gen }
func (m profileLoadedMsg) generation() uint64      { return m.gen }
func (m messagesMsg) generation() uint64           { return m.gen }
func (m subscriptionClosedMsg) generation() uint64 { return m.gen }
func (m sendResultMsg) generation() uint64         { return m.gen }
func (m groupNameResultMsg) generation() uint64    { return m.gen }
func (m groupPhotoResultMsg) generation() uint64   { return m.gen }
func (m membershipResultMsg) generation() uint64   { return m.gen }

type membershipAction int

const (
	actionRemoveContact membershipAction = iota
	actionLeaveGroup
)

type conversationView struct {
	session  Session
	chat     data.ChatService
	profiles data.ProfileService
	notifier Notifier
	timeout  time.Duration
	base     zerolog.Logger
	logger   zerolog.Logger

	roomID string
	gen    uint64
	sub    subscription
	state  viewState

	composer  composer
	menu      optionsMenu
	nameEdit  editField
	photoEdit editField

	// scroll counts lines up from the newest message; 0 follows the feed.
	scroll int
	width  int
	height int
}

func newConversationView(session Session, chat data.ChatService, profiles data.ProfileService, notifier Notifier, timeout time.Duration) *conversationView {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	base := logging.Component("conversation")
	return &conversationView{
		session:   session,
		chat:      chat,
		profiles:  profiles,
		notifier:  notifier,
		timeout:   timeout,
		base:      base,
		logger:    base,
		composer:  newComposer(),
		nameEdit:  newEditField("Enter group name"),
		photoEdit: newEditField("Enter photo URL"),
	}
}

func (v *conversationView) Init() tea.Cmd {
	if v.roomID == "" {
		return nil
	}
	return v.composer.Focus()
}

// SetRoom switches the view to roomID. The previous subscription is released
// before the new one is opened, and the generation bump makes any result still
// in flight for the old room a no-op. An empty id just unmounts the room.
func (v *conversationView) SetRoom(roomID string) tea.Cmd {
	roomID = strings.TrimSpace(roomID)
	v.sub.release()
	v.gen++
	v.roomID = roomID
	v.state = viewState{}
	v.scroll = 0
	v.menu.Close()
	v.nameEdit.Cancel("")
	v.photoEdit.Cancel("")
	v.composer.Reset()
	v.logger = logging.WithRoom(v.base, roomID)

	if roomID == "" {
		return nil
	}
	v.state.loading = true
	v.startSubscription()
	return tea.Batch(v.fetchConversationCmd(), v.waitForMessagesCmd())
}

// Close releases the live subscription; the view is unmounted.
func (v *conversationView) Close() {
	v.sub.release()
	v.gen++
}

func (v *conversationView) startSubscription() {
	ch, cancel := v.chat.SubscribeMessages(v.roomID)
	var once sync.Once
	v.sub = subscription{
		gen: v.gen,
		ch:  ch,
		cancel: func() {
			once.Do(cancel)
		},
	}
}

func (v *conversationView) waitForMessagesCmd() tea.Cmd {
	ch := v.sub.ch
	gen := v.sub.gen
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		messages, ok := <-ch
		if !ok {
			return subscriptionClosedMsg{gen: gen}
		}
		return messagesMsg{gen: gen, messages: messages}
	}
}

func (v *conversationView) fetchConversationCmd() tea.Cmd {
	chat, roomID, gen, timeout := v.chat, v.roomID, v.gen, v.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		conv, err := chat.FetchConversation(ctx, roomID)
		return conversationLoadedMsg{gen: gen, conversation: conv, err: err}
	}
}

func (v *conversationView) fetchProfileCmd(userID string) tea.Cmd {
	profiles, gen, timeout := v.profiles, v.gen, v.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		profile, err := profiles.FetchProfile(ctx, userID)
		return profileLoadedMsg{gen: gen, profile: profile, err: err}
	}
}

func (v *conversationView) Update(msg tea.Msg) tea.Cmd {
	if scoped, ok := msg.(roomScopedMsg); ok && scoped.generation() != v.gen {
		return v.handleStale(msg)
	}

	switch typed := msg.(type) {
	case conversationLoadedMsg:
		return v.applyConversation(typed)
	case profileLoadedMsg:
		return v.applyProfile(typed)
	case messagesMsg:
		v.state.messages = typed.messages
		v.scroll = 0
		return v.waitForMessagesCmd()
	case subscriptionClosedMsg:
		v.logger.Debug().Msg("message feed closed")
		v.sub.ch = nil
		return nil
	case sendResultMsg:
		if typed.err != nil {
			v.logger.Warn().Err(typed.err).Msg("send message failed")
			return v.notify(NoticeError, textSendFailed)
		}
		return nil
	case groupNameResultMsg:
		return v.applyGroupName(typed)
	case groupPhotoResultMsg:
		return v.applyGroupPhoto(typed)
	case membershipResultMsg:
		return v.applyMembership(typed, true)
	case tea.KeyMsg:
		return v.handleKey(typed)
	case tea.MouseMsg:
		return v.handleMouse(typed)
	}

	if v.nameEdit.editing {
		return v.nameEdit.Update(msg)
	}
	if v.photoEdit.editing {
		return v.photoEdit.Update(msg)
	}
	return v.composer.Update(msg)
}

// handleStale finishes results that belong to a room the view already left.
// Nothing touches the current state; mutations the user issued still report
// their outcome.
func (v *conversationView) handleStale(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case sendResultMsg:
		if typed.err != nil {
			return v.notify(NoticeError, textSendFailed)
		}
	case groupNameResultMsg:
		if typed.err != nil {
			return v.notify(NoticeError, textRenameFailed)
		}
		return v.notify(NoticeSuccess, textGroupRenamed)
	case groupPhotoResultMsg:
		if typed.err != nil {
			return v.notify(NoticeError, textPhotoFailed)
		}
		return v.notify(NoticeSuccess, textGroupPhotoUpdated)
	case membershipResultMsg:
		return v.applyMembership(typed, false)
	}
	return nil
}

func (v *conversationView) applyConversation(msg conversationLoadedMsg) tea.Cmd {
	if msg.err != nil {
		v.state.loading = false
		if errors.Is(msg.err, data.ErrNotFound) {
			v.logger.Info().Msg("conversation not found")
			return v.notify(NoticeError, textRoomNotFound)
		}
		v.logger.Error().Err(msg.err).Msg("load conversation failed")
		return v.notify(NoticeError, textRoomLoadFailed)
	}
	v.state.conversation = msg.conversation
	other, ok := models.Counterpart(msg.conversation, v.session.UserID)
	if !ok {
		v.state.loading = false
		return nil
	}
	return v.fetchProfileCmd(other)
}

func (v *conversationView) applyProfile(msg profileLoadedMsg) tea.Cmd {
	v.state.loading = false
	if msg.err != nil {
		v.state.counterpartMissing = true
		if errors.Is(msg.err, data.ErrNotFound) {
			v.logger.Info().Msg("counterpart profile not found")
			return v.notify(NoticeError, textContactNotFound)
		}
		v.logger.Error().Err(msg.err).Msg("load counterpart profile failed")
		return v.notify(NoticeError, textRoomLoadFailed)
	}
	profile := msg.profile
	v.state.counterpart = &profile
	return nil
}

func (v *conversationView) notify(level NoticeLevel, text string) tea.Cmd {
	if v.notifier == nil {
		return nil
	}
	return v.notifier.Notify(level, text)
}

// sendCurrent sends the composer text. Blank text, a missing identity, no
// room or a room whose metadata is not loaded make it a no-op. There is no
// local echo: the message shows up when the feed delivers it.
func (v *conversationView) sendCurrent() tea.Cmd {
	if v.state.conversation == nil {
		return nil
	}
	text := v.composer.Submit()
	if text == "" || v.session.UserID == "" || v.roomID == "" {
		return nil
	}
	msg := models.Message{
		RoomID:    v.roomID,
		SenderID:  v.session.UserID,
		Text:      text,
		Kind:      models.MessageKindText,
		CreatedAt: time.Now().UTC(),
		Read:      false,
	}
	chat, gen, timeout := v.chat, v.gen, v.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_, err := chat.SendMessage(ctx, msg)
		return sendResultMsg{gen: gen, err: err}
	}
}

func (v *conversationView) beginNameEdit() tea.Cmd {
	group, ok := v.state.group()
	if !ok {
		return nil
	}
	v.menu.Close()
	v.photoEdit.Cancel(group.Group.PhotoURL)
	v.composer.Blur()
	return v.nameEdit.Begin(group.Group.Name)
}

func (v *conversationView) cancelNameEdit() tea.Cmd {
	current := ""
	if group, ok := v.state.group(); ok {
		current = group.Group.Name
	}
	v.nameEdit.Cancel(current)
	return v.composer.Focus()
}

// commitNameEdit leaves edit mode as soon as the request is dispatched. On
// failure the header keeps the old name and edit mode stays closed.
func (v *conversationView) commitNameEdit() tea.Cmd {
	name := v.nameEdit.Take()
	focus := v.composer.Focus()
	if _, ok := v.state.group(); !ok || name == "" || v.roomID == "" {
		return focus
	}
	chat, roomID, gen, timeout := v.chat, v.roomID, v.gen, v.timeout
	return tea.Batch(focus, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := chat.RenameGroup(ctx, roomID, name)
		return groupNameResultMsg{gen: gen, name: name, err: err}
	})
}

func (v *conversationView) applyGroupName(msg groupNameResultMsg) tea.Cmd {
	if msg.err != nil {
		v.logger.Warn().Err(msg.err).Msg("rename group failed")
		return v.notify(NoticeError, textRenameFailed)
	}
	if group, ok := v.state.group(); ok {
		v.state.conversation = group.WithName(msg.name)
	}
	return v.notify(NoticeSuccess, textGroupRenamed)
}

func (v *conversationView) beginPhotoEdit() tea.Cmd {
	group, ok := v.state.group()
	if !ok {
		return nil
	}
	v.menu.Close()
	v.nameEdit.Cancel(group.Group.Name)
	v.composer.Blur()
	return v.photoEdit.Begin(group.Group.PhotoURL)
}

func (v *conversationView) cancelPhotoEdit() tea.Cmd {
	current := ""
	if group, ok := v.state.group(); ok {
		current = group.Group.PhotoURL
	}
	v.photoEdit.Cancel(current)
	return v.composer.Focus()
}

func (v *conversationView) commitPhotoEdit() tea.Cmd {
	url := v.photoEdit.Take()
	focus := v.composer.Focus()
	if _, ok := v.state.group(); !ok || url == "" || v.roomID == "" {
		return focus
	}
	chat, roomID, gen, timeout := v.chat, v.roomID, v.gen, v.timeout
	v.logger.Debug().Str("photo_url", logging.RedactURL(url)).Msg("set group photo")
	return tea.Batch(focus, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := chat.SetGroupPhoto(ctx, roomID, url)
		return groupPhotoResultMsg{gen: gen, url: url, err: err}
	})
}

func (v *conversationView) applyGroupPhoto(msg groupPhotoResultMsg) tea.Cmd {
	if msg.err != nil {
		v.logger.Warn().Err(msg.err).Msg("set group photo failed")
		return v.notify(NoticeError, textPhotoFailed)
	}
	if group, ok := v.state.group(); ok {
		v.state.conversation = group.WithPhotoURL(msg.url)
	}
	return v.notify(NoticeSuccess, textGroupPhotoUpdated)
}

// activateMenu runs the single options entry: remove the contact of a private
// room or leave a group.
func (v *conversationView) activateMenu() tea.Cmd {
	v.menu.Close()
	if v.state.conversation == nil {
		return nil
	}
	switch conv := v.state.conversation.(type) {
	case models.PrivateConversation:
		return v.removeContactCmd(conv)
	case models.GroupConversation:
		return v.leaveGroupCmd()
	}
	return nil
}

func (v *conversationView) removeContactCmd(conv models.PrivateConversation) tea.Cmd {
	self := v.session.UserID
	other, ok := models.Counterpart(conv, self)
	if self == "" || !ok {
		return nil
	}
	chat, gen, timeout := v.chat, v.gen, v.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := chat.RemoveContact(ctx, self, other)
		return membershipResultMsg{gen: gen, action: actionRemoveContact, err: err}
	}
}

func (v *conversationView) leaveGroupCmd() tea.Cmd {
	self := v.session.UserID
	if self == "" || v.roomID == "" {
		return nil
	}
	chat, roomID, gen, timeout := v.chat, v.roomID, v.gen, v.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := chat.LeaveGroup(ctx, roomID, self)
		return membershipResultMsg{gen: gen, action: actionLeaveGroup, err: err}
	}
}

// applyMembership notifies, and on success for the current room navigates
// home.
func (v *conversationView) applyMembership(msg membershipResultMsg, current bool) tea.Cmd {
	success, failure := textContactRemoved, textRemoveFailed
	if msg.action == actionLeaveGroup {
		success, failure = textLeftGroup, textLeaveFailed
	}
	if msg.err != nil {
		v.logger.Warn().Err(msg.err).Int("action", int(msg.action)).Msg("membership change failed")
		return v.notify(NoticeError, failure)
	}
	if !current {
		return v.notify(NoticeSuccess, success)
	}
	return tea.Batch(v.notify(NoticeSuccess, success), navigateHomeCmd())
}

func (v *conversationView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.photoEdit.editing {
		switch msg.Type {
		case tea.KeyEnter:
			return v.commitPhotoEdit()
		case tea.KeyEsc:
			return v.cancelPhotoEdit()
		}
		return v.photoEdit.Update(msg)
	}
	if v.nameEdit.editing {
		switch msg.Type {
		case tea.KeyEnter:
			return v.commitNameEdit()
		case tea.KeyEsc:
			return v.cancelNameEdit()
		}
		return v.nameEdit.Update(msg)
	}
	if v.menu.IsOpen() {
		switch msg.Type {
		case tea.KeyEnter:
			return v.activateMenu()
		case tea.KeyEsc:
			v.menu.Close()
			return nil
		}
	}

	switch msg.String() {
	case "ctrl+o":
		if v.state.conversation != nil {
			v.menu.Toggle()
		}
		return nil
	case "ctrl+e":
		return v.beginNameEdit()
	case "ctrl+p":
		return v.beginPhotoEdit()
	case "esc":
		return navigateHomeCmd()
	case "enter":
		return v.sendCurrent()
	case "pgup":
		v.scroll += maxInt(1, v.messageAreaHeight()-1)
		return nil
	case "pgdown":
		v.scroll = maxInt(0, v.scroll-maxInt(1, v.messageAreaHeight()-1))
		return nil
	case "ctrl+end":
		v.scroll = 0
		return nil
	}
	// The composer is only drawn once the room is loaded.
	if v.state.conversation == nil {
		return nil
	}
	return v.composer.Update(msg)
}

func (v *conversationView) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		v.scroll += 3
		return nil
	case tea.MouseButtonWheelDown:
		v.scroll = maxInt(0, v.scroll-3)
		return nil
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}
	if v.state.conversation == nil {
		return nil
	}

	layout := v.layout(v.width, v.height)
	x, y := msg.X, msg.Y

	if v.photoEdit.editing {
		switch {
		case layout.updateButton.Contains(x, y):
			return v.commitPhotoEdit()
		case layout.cancelButton.Contains(x, y):
			return v.cancelPhotoEdit()
		}
		return nil
	}

	v.menu.SetRegions(layout.trigger, layout.menu)
	switch v.menu.HandlePointer(x, y) {
	case pointerToggled:
		return nil
	case pointerInside:
		return v.activateMenu()
	}

	if v.nameEdit.editing {
		switch {
		case layout.confirmName.Contains(x, y):
			return v.commitNameEdit()
		case layout.cancelName.Contains(x, y):
			return v.cancelNameEdit()
		}
		return nil
	}
	switch {
	case layout.photo.Contains(x, y):
		return v.beginPhotoEdit()
	case layout.editName.Contains(x, y):
		return v.beginNameEdit()
	}
	return nil
}

// HelpText is the key legend shown in the footer.
func (v *conversationView) HelpText() string {
	switch {
	case v.photoEdit.editing, v.nameEdit.editing:
		return "enter save  esc cancel"
	case v.menu.IsOpen():
		return "enter select  esc close"
	}
	if _, ok := v.state.group(); ok {
		return "enter send  ctrl+o options  ctrl+e rename  ctrl+p photo  pgup/pgdown scroll  esc back"
	}
	return "enter send  ctrl+o options  pgup/pgdown scroll  esc back"
}

// Title names the open room for the header.
func (v *conversationView) Title() string {
	switch conv := v.state.conversation.(type) {
	case models.GroupConversation:
		return conv.Group.Name
	case models.PrivateConversation:
		return v.counterpartName()
	}
	return ""
}

func (v *conversationView) counterpartName() string {
	if v.state.counterpart != nil && strings.TrimSpace(v.state.counterpart.DisplayName) != "" {
		return v.state.counterpart.DisplayName
	}
	return "Unknown Contact"
}
