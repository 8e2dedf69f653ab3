package styles

import "github.com/charmbracelet/lipgloss"

const (
	// LayoutInnerPadding is the default panel content padding.
	LayoutInnerPadding = 1

	// OverlayMinWidth keeps the photo dialog usable on narrow terminals.
	OverlayMinWidth = 30
	// OverlayMaxWidth caps the photo dialog on wide terminals.
	OverlayMaxWidth = 60
)

// OverlayWidth returns the dialog width for a body of totalWidth columns.
func OverlayWidth(totalWidth int) int {
	if totalWidth <= 0 {
		return 0
	}
	width := clampInt(totalWidth*2/3, OverlayMinWidth, OverlayMaxWidth)
	if width > totalWidth {
		return totalWidth
	}
	return width
}

// PanelStyle returns a focused/unfocused border style for panes.
func PanelStyle(theme Theme, focused bool) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(panelBorderStyle(theme)).
		BorderForeground(lipgloss.Color(panelBorderColor(theme, focused))).
		Padding(0, LayoutInnerPadding)
}

// MenuStyle frames the options dropdown.
func MenuStyle(theme Theme) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(panelBorderStyle(theme)).
		BorderForeground(lipgloss.Color(theme.Base.Accent)).
		Padding(0, LayoutInnerPadding)
}

// DividerStyle returns the divider style between sections.
func DividerStyle(theme Theme) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Borders.Divider))
}

// ButtonStyle renders dialog buttons; the primary one is filled.
func ButtonStyle(theme Theme, primary bool) lipgloss.Style {
	style := lipgloss.NewStyle().Padding(0, 1)
	if primary {
		return style.
			Foreground(lipgloss.Color(theme.Base.Background)).
			Background(lipgloss.Color(theme.Base.Accent)).
			Bold(true)
	}
	return style.
		Foreground(lipgloss.Color(theme.Base.Foreground)).
		Background(lipgloss.Color(theme.Borders.InactivePane))
}

func panelBorderColor(theme Theme, focused bool) string {
	if focused {
		return theme.Borders.ActivePane
	}
	return theme.Borders.InactivePane
}

func panelBorderStyle(theme Theme) lipgloss.Border {
	switch theme.BorderStyle {
	case "double":
		return lipgloss.DoubleBorder()
	case "sharp":
		return lipgloss.NormalBorder()
	case "hidden":
		return lipgloss.HiddenBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
