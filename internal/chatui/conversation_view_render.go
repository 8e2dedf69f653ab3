package chatui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/chatroom/internal/chatui/styles"
	"github.com/tOgg1/chatroom/internal/models"
)

const (
	headerRows      = 3 // title, presence, divider
	composerRows    = 2 // divider, input
	menuRows        = 3
	photoDialogRows = 7
	markerWidth     = 3
	buttonGap       = 1

	photoMarkerSet   = "[◉]"
	photoMarkerEmpty = "[○]"
	editMarker       = "[✎]"
	confirmMarker    = "[✓]"
	cancelMarker     = "[✗]"
	triggerMarker    = "[⋮]"
	nameEditWidth    = 32
)

// conversationLayout holds every clickable region of one rendered frame, in
// view coordinates. View and the mouse handler compute it the same way.
type conversationLayout struct {
	photo       Rect
	editName    Rect
	confirmName Rect
	cancelName  Rect
	nameInput   int
	titleWidth  int

	trigger   Rect
	menu      Rect
	menuLabel string

	messagesTop    int
	messagesHeight int

	dialog       Rect
	cancelButton Rect
	updateButton Rect
}

func (v *conversationView) layout(width, height int) conversationLayout {
	var l conversationLayout
	_, isGroup := v.state.group()

	l.photo = Rect{X: 0, Y: 0, W: markerWidth, H: 1}
	l.trigger = Rect{X: maxInt(0, width-markerWidth), Y: 0, W: markerWidth, H: 1}
	titleX := markerWidth + 1
	avail := maxInt(0, width-titleX-(markerWidth+1)*2)

	if v.nameEdit.editing {
		l.nameInput = minInt(nameEditWidth, maxInt(1, avail-(markerWidth+1)))
		l.confirmName = Rect{X: titleX + l.nameInput + 1, Y: 0, W: markerWidth, H: 1}
		l.cancelName = Rect{X: l.confirmName.X + markerWidth + 1, Y: 0, W: markerWidth, H: 1}
	} else {
		l.titleWidth = minInt(lipgloss.Width(v.Title()), avail)
		if isGroup {
			l.editName = Rect{X: titleX + l.titleWidth + 1, Y: 0, W: markerWidth, H: 1}
		}
	}

	l.messagesTop = headerRows
	if v.menu.IsOpen() {
		l.menuLabel = "Remove Contact"
		if isGroup {
			l.menuLabel = "Leave Group"
		}
		menuWidth := lipgloss.Width(l.menuLabel) + 4
		l.menu = Rect{X: maxInt(0, width-menuWidth), Y: headerRows, W: menuWidth, H: menuRows}
		l.messagesTop += menuRows
	}
	l.messagesHeight = maxInt(0, height-l.messagesTop-composerRows)

	if v.photoEdit.editing {
		dialogWidth := styles.OverlayWidth(width)
		x := maxInt(0, (width-dialogWidth)/2)
		y := l.messagesTop + maxInt(0, (l.messagesHeight-photoDialogRows)/2)
		l.dialog = Rect{X: x, Y: y, W: dialogWidth, H: photoDialogRows}

		inner := maxInt(0, dialogWidth-4)
		buttonWidth := len("Cancel") + 2
		buttonsX := x + 2 + maxInt(0, inner-(buttonWidth*2+buttonGap))
		l.cancelButton = Rect{X: buttonsX, Y: y + 5, W: buttonWidth, H: 1}
		l.updateButton = Rect{X: buttonsX + buttonWidth + buttonGap, Y: y + 5, W: buttonWidth, H: 1}
	}
	return l
}

func (v *conversationView) messageAreaHeight() int {
	return v.layout(v.width, v.height).messagesHeight
}

func (v *conversationView) View(width, height int, theme Theme) string {
	v.width = width
	v.height = height
	palette := styles.Lookup(string(theme))

	if height <= 0 || width <= 0 {
		return ""
	}
	if v.roomID != "" && v.state.loading {
		return centerBlock(palette.Muted().Render("Loading conversation..."), width, height)
	}
	if v.roomID == "" || v.state.conversation == nil {
		return centerBlock(palette.Muted().Render("Select a chat to start messaging"), width, height)
	}

	l := v.layout(width, height)
	lines := make([]string, 0, height)
	lines = append(lines, v.renderTitleLine(l, width, palette))
	lines = append(lines, padVis(v.renderSubtitle(palette), width))
	lines = append(lines, styles.DividerStyle(palette).Render(strings.Repeat("─", width)))
	if v.menu.IsOpen() {
		box := styles.MenuStyle(palette).Render(lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Chrome.Error)).Render(l.menuLabel))
		for _, row := range strings.Split(box, "\n") {
			lines = append(lines, strings.Repeat(" ", l.menu.X)+row)
		}
	}

	area := v.renderMessages(width, l.messagesHeight, palette)
	if v.photoEdit.editing {
		area = v.overlayPhotoDialog(area, l, palette)
	}
	lines = append(lines, area...)
	lines = append(lines, styles.DividerStyle(palette).Render(strings.Repeat("─", width)))
	lines = append(lines, v.composer.View(width, palette))
	return strings.Join(fitLines(lines, height), "\n")
}

func (v *conversationView) renderTitleLine(l conversationLayout, width int, palette styles.Theme) string {
	var b strings.Builder
	b.WriteString(palette.Accent().Render(v.photoMarker()))
	b.WriteString(" ")
	if v.nameEdit.editing {
		b.WriteString(v.nameEdit.View(l.nameInput))
		b.WriteString(" ")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Presence.Online)).Render(confirmMarker))
		b.WriteString(" ")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Chrome.Error)).Render(cancelMarker))
	} else {
		b.WriteString(palette.Title().Render(truncate(v.Title(), l.titleWidth)))
		if l.editName.W > 0 {
			b.WriteString(" ")
			b.WriteString(palette.Muted().Render(editMarker))
		}
	}
	left := b.String()
	trigger := palette.Accent().Render(triggerMarker)
	gap := width - lipgloss.Width(left) - lipgloss.Width(trigger)
	if gap < 1 {
		return truncateVis(left, maxInt(0, width-markerWidth-1)) + " " + trigger
	}
	return left + strings.Repeat(" ", gap) + trigger
}

func (v *conversationView) photoMarker() string {
	switch conv := v.state.conversation.(type) {
	case models.GroupConversation:
		if strings.TrimSpace(conv.Group.PhotoURL) != "" {
			return photoMarkerSet
		}
	case models.PrivateConversation:
		if v.state.counterpart != nil && strings.TrimSpace(v.state.counterpart.PhotoURL) != "" {
			return photoMarkerSet
		}
	}
	return photoMarkerEmpty
}

func (v *conversationView) renderSubtitle(palette styles.Theme) string {
	if group, ok := v.state.group(); ok {
		count := len(group.Participants)
		label := fmt.Sprintf("%d members", count)
		if count == 1 {
			label = "1 member"
		}
		return palette.Muted().Render(label)
	}
	online := v.state.counterpart != nil && v.state.counterpart.Online
	if online {
		return palette.PresenceStyle(true).Render("Online")
	}
	return palette.PresenceStyle(false).Render("Offline")
}

// renderMessages returns exactly height lines, the window v.scroll lines up
// from the newest message.
func (v *conversationView) renderMessages(width, height int, palette styles.Theme) []string {
	if height <= 0 {
		return nil
	}
	msgStyles := styles.NewMessageStyles(palette, nil)
	bodyWidth := maxInt(1, width-2)

	all := make([]string, 0, len(v.state.messages)*3)
	for i, msg := range v.state.messages {
		if i > 0 {
			all = append(all, "")
		}
		own := msg.SenderID == v.session.UserID
		header := msgStyles.RenderHeader(msg.SenderID, v.senderName(msg.SenderID), own, msg.CreatedAt)
		if !own {
			if dot := msgStyles.RenderUnreadIndicator(!msg.Read); dot != "" {
				header += " " + dot
			}
		}
		all = append(all, truncateVis(header, width))
		all = append(all, strings.Split(msgStyles.RenderBody(msg.Text, bodyWidth, own), "\n")...)
	}

	maxScroll := maxInt(0, len(all)-height)
	v.scroll = clampInt(v.scroll, 0, maxScroll)
	end := len(all) - v.scroll
	start := maxInt(0, end-height)
	return fitLines(append([]string(nil), all[start:end]...), height)
}

func (v *conversationView) senderName(senderID string) string {
	if senderID == v.session.UserID {
		return "You"
	}
	if v.state.counterpart != nil && v.state.counterpart.ID == senderID && v.state.counterpart.DisplayName != "" {
		return v.state.counterpart.DisplayName
	}
	return senderID
}

// overlayPhotoDialog draws the photo URL dialog over the message area.
func (v *conversationView) overlayPhotoDialog(area []string, l conversationLayout, palette styles.Theme) []string {
	inner := maxInt(1, l.dialog.W-4)
	buttons := styles.ButtonStyle(palette, false).Render("Cancel") +
		strings.Repeat(" ", buttonGap) +
		styles.ButtonStyle(palette, true).Render("Update")
	content := strings.Join([]string{
		palette.Title().Render("Update Group Photo"),
		"",
		v.photoEdit.View(inner),
		"",
		lipgloss.PlaceHorizontal(inner, lipgloss.Right, buttons),
	}, "\n")
	dialog := styles.PanelStyle(palette, true).Width(maxInt(1, l.dialog.W-2)).Render(content)

	top := l.dialog.Y - l.messagesTop
	pad := strings.Repeat(" ", l.dialog.X)
	for i, row := range strings.Split(dialog, "\n") {
		idx := top + i
		if idx < 0 || idx >= len(area) {
			continue
		}
		area[idx] = pad + row
	}
	return area
}
