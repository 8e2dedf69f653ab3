// Package styles holds the chat TUI theme tokens and pre-built lipgloss
// styles.
package styles

import "github.com/charmbracelet/lipgloss"

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
}

// MessageColors defines colors for message bubbles.
type MessageColors struct {
	Own   string
	Other string
}

// PresenceColors defines colors for the counterpart presence line.
type PresenceColors struct {
	Online  string
	Offline string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	SelectedItem string
	Toast        string
	Error        string
}

// BorderColors defines border colors for panels and overlays.
type BorderColors struct {
	ActivePane   string
	InactivePane string
	Divider      string
}

// Theme defines the chat TUI style tokens.
type Theme struct {
	Name          string
	BorderStyle   string   // "rounded", "sharp", "double", "hidden"
	SenderPalette []string // ANSI-256 codes for sender name colors

	Base     BaseColors
	Message  MessageColors
	Presence PresenceColors
	Chrome   ChromeColors
	Borders  BorderColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// Lookup returns the named theme, falling back to DefaultTheme.
func Lookup(name string) Theme {
	if theme, ok := Themes[name]; ok {
		return theme
	}
	return DefaultTheme
}

// Muted renders secondary text.
func (t Theme) Muted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

// Accent renders highlighted text.
func (t Theme) Accent() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent)).Bold(true)
}

// Title renders conversation titles.
func (t Theme) Title() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Foreground)).Bold(true)
}

// Selected renders the focused row of a list.
func (t Theme) Selected() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Base.Background)).
		Background(lipgloss.Color(t.Chrome.SelectedItem)).
		Bold(true)
}

// PresenceStyle colors the Online/Offline label.
func (t Theme) PresenceStyle(online bool) lipgloss.Style {
	if online {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Presence.Online))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Presence.Offline))
}
