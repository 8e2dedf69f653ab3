package chatui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/chatroom/internal/chatui/styles"
)

const composerCharLimit = 4096

// composer is the single-line message input under the message list.
type composer struct {
	input textinput.Model
}

func newComposer() composer {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "> "
	ti.CharLimit = composerCharLimit
	return composer{input: ti}
}

func (c *composer) Focus() tea.Cmd { return c.input.Focus() }

func (c *composer) Blur() { c.input.Blur() }

func (c *composer) Focused() bool { return c.input.Focused() }

// Submit returns the trimmed text and clears the input.
func (c *composer) Submit() string {
	text := strings.TrimSpace(c.input.Value())
	c.input.Reset()
	return text
}

func (c *composer) Reset() { c.input.Reset() }

func (c *composer) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

func (c *composer) View(width int, theme styles.Theme) string {
	c.input.Width = maxInt(1, width-lipgloss.Width(c.input.Prompt)-1)
	c.input.PromptStyle = theme.Accent()
	c.input.PlaceholderStyle = theme.Muted().Italic(true)
	return padVis(c.input.View(), width)
}

// editField is one inline edit mode: an editing flag plus the pending value
// held by its input.
type editField struct {
	editing bool
	input   textinput.Model
}

func newEditField(placeholder string) editField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = 256
	return editField{input: ti}
}

// Begin enters edit mode seeded with the current value.
func (e *editField) Begin(seed string) tea.Cmd {
	e.editing = true
	e.input.SetValue(seed)
	e.input.CursorEnd()
	return e.input.Focus()
}

// Cancel reverts the pending value to current and leaves edit mode.
func (e *editField) Cancel(current string) {
	e.editing = false
	e.input.SetValue(current)
	e.input.Blur()
}

// Take leaves edit mode and returns the trimmed pending value.
func (e *editField) Take() string {
	pending := strings.TrimSpace(e.input.Value())
	e.editing = false
	e.input.Blur()
	return pending
}

func (e *editField) Pending() string { return e.input.Value() }

func (e *editField) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	return cmd
}

func (e *editField) View(width int) string {
	e.input.Width = maxInt(1, width-1)
	return padVis(e.input.View(), width)
}
