package styles

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const ownMessageGutter = "▌ "

// MessageStyles contains pre-built styles for message rendering.
type MessageStyles struct {
	Theme   Theme
	Senders *SenderColorMapper

	Own       lipgloss.Style
	Other     lipgloss.Style
	Timestamp lipgloss.Style
	Body      lipgloss.Style
	Gutter    lipgloss.Style
	Unread    lipgloss.Style
}

// NewMessageStyles builds a reusable style set for messages.
func NewMessageStyles(theme Theme, senders *SenderColorMapper) MessageStyles {
	if senders == nil {
		senders = NewSenderColorMapper(theme.SenderPalette)
	}
	return MessageStyles{
		Theme:     theme,
		Senders:   senders,
		Own:       lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Own)).Bold(true),
		Other:     lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Other)),
		Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted)),
		Body:      lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Foreground)),
		Gutter:    lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Own)),
		Unread: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Base.Accent)).
			Bold(true),
	}
}

// RenderHeader renders "name 15:04". Own messages use the theme's own color,
// everyone else gets a stable per-sender color keyed by senderID.
func (s MessageStyles) RenderHeader(senderID, name string, own bool, ts time.Time) string {
	label := strings.TrimSpace(name)
	if label == "" {
		label = strings.TrimSpace(senderID)
	}
	if label == "" {
		label = "unknown"
	}
	var nameText string
	if own {
		nameText = s.Own.Render(label)
	} else {
		nameText = s.Senders.Foreground(senderID).Render(label)
	}
	if ts.IsZero() {
		return nameText
	}
	return nameText + " " + s.Timestamp.Render(ts.Local().Format("15:04"))
}

// RenderBody renders wrapped text. Own messages carry a colored gutter.
func (s MessageStyles) RenderBody(body string, width int, own bool) string {
	if !own {
		return s.Body.Render(WrapText(body, width))
	}
	inner := width - lipgloss.Width(ownMessageGutter)
	if inner < 1 {
		inner = 1
	}
	lines := strings.Split(WrapText(body, inner), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, s.Gutter.Render(ownMessageGutter)+s.Body.Render(line))
	}
	return strings.Join(out, "\n")
}

// RenderUnreadIndicator renders a bold dot for unread messages.
func (s MessageStyles) RenderUnreadIndicator(unread bool) string {
	if !unread {
		return ""
	}
	return s.Unread.Render("●")
}

// WrapText word-wraps each paragraph of body to width.
func WrapText(body string, width int) string {
	if width <= 0 {
		return body
	}
	parts := strings.Split(body, "\n")
	for i := range parts {
		parts[i] = wordwrap.String(parts[i], width)
	}
	return strings.Join(parts, "\n")
}
