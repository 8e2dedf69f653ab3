package chatui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// NoticeLevel distinguishes success toasts from failures.
type NoticeLevel int

const (
	NoticeSuccess NoticeLevel = iota
	NoticeError
)

func (l NoticeLevel) String() string {
	if l == NoticeError {
		return "error"
	}
	return "success"
}

// Notifier surfaces transient user-visible notifications. Notify runs on the
// UI loop; the returned command (possibly nil) is batched by the caller.
type Notifier interface {
	Notify(level NoticeLevel, text string) tea.Cmd
}

const defaultToastDuration = 3 * time.Second

type toastExpiredMsg struct {
	seq uint64
}

// toastNotifier keeps the single visible toast rendered in the footer.
type toastNotifier struct {
	duration time.Duration

	seq   uint64
	level NoticeLevel
	text  string
}

func newToastNotifier(duration time.Duration) *toastNotifier {
	if duration <= 0 {
		duration = defaultToastDuration
	}
	return &toastNotifier{duration: duration}
}

func (n *toastNotifier) Notify(level NoticeLevel, text string) tea.Cmd {
	n.seq++
	n.level = level
	n.text = text
	seq := n.seq
	return tea.Tick(n.duration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (n *toastNotifier) expire(seq uint64) {
	if seq == n.seq {
		n.text = ""
	}
}

func (n *toastNotifier) active() (NoticeLevel, string, bool) {
	if n.text == "" {
		return 0, "", false
	}
	return n.level, n.text, true
}
