package chatui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/chatroom/internal/chatui/styles"
)

func (m *Model) renderHeader() string {
	palette := styles.Lookup(string(m.theme))
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Background)).
		Background(lipgloss.Color(palette.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	left := "chatroom"
	center := "@" + m.session.UserID
	right := "rooms"
	if m.activeViewID() == ViewConversation {
		right = "room " + shortID(m.conversation.roomID)
		if title := m.conversation.Title(); title != "" {
			right = title
		}
	}
	line := joinHeader(left, center, right, maxInt(0, m.width-2))
	return style.Width(maxInt(0, m.width)).Render(line)
}

func (m *Model) renderFooter() string {
	palette := styles.Lookup(string(m.theme))
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Background)).
		Background(lipgloss.Color(palette.Chrome.Footer)).
		Padding(0, 1)

	text := ""
	if helper, ok := m.activeView().(interface{ HelpText() string }); ok {
		text = helper.HelpText()
	}
	if level, toast, ok := m.toast.active(); ok {
		color := palette.Chrome.Toast
		if level == NoticeError {
			color = palette.Chrome.Error
		}
		style = style.Background(lipgloss.Color(color)).Bold(true)
		text = toast
	}
	return style.Width(maxInt(0, m.width)).Render(truncate(text, maxInt(0, m.width-2)))
}

func joinHeader(left, center, right string, width int) string {
	left = strings.TrimSpace(left)
	center = strings.TrimSpace(center)
	right = strings.TrimSpace(right)
	if width <= 0 {
		return left
	}

	space := width - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if space < 2 {
		line := left
		if right != "" {
			line = left + "  " + right
		}
		return truncateVis(line, width)
	}

	leftGap := space / 2
	rightGap := space - leftGap
	return truncateVis(left+strings.Repeat(" ", leftGap)+center+strings.Repeat(" ", rightGap)+right, width)
}
