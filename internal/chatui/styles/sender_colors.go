package styles

import (
	"hash/fnv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// SenderColorPalette is a curated ANSI 256 palette for stable sender colors.
// Red and green stay reserved for errors and presence.
var SenderColorPalette = []string{
	"33", "39", "45", "69", "75", "81", "87", "99",
	"111", "117", "123", "147", "153", "159", "183", "189",
}

// SenderColorMapper resolves a deterministic color per sender id and caches
// the resulting styles.
type SenderColorMapper struct {
	palette []string

	mu    sync.RWMutex
	cache map[string]lipgloss.Style
}

// NewSenderColorMapper returns a mapper over palette, or over
// SenderColorPalette when palette is empty.
func NewSenderColorMapper(palette []string) *SenderColorMapper {
	if len(palette) == 0 {
		palette = SenderColorPalette
	}
	return &SenderColorMapper{
		palette: append([]string(nil), palette...),
		cache:   make(map[string]lipgloss.Style, 32),
	}
}

// Foreground returns the bold name style for sender.
func (m *SenderColorMapper) Foreground(sender string) lipgloss.Style {
	key := normalizeSender(sender)

	m.mu.RLock()
	if style, ok := m.cache[key]; ok {
		m.mu.RUnlock()
		return style
	}
	m.mu.RUnlock()

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.ColorCode(key))).Bold(true)

	m.mu.Lock()
	m.cache[key] = style
	m.mu.Unlock()
	return style
}

// ColorCode returns the ANSI-256 code chosen for sender.
func (m *SenderColorMapper) ColorCode(sender string) string {
	return m.palette[hashToPalette(normalizeSender(sender), len(m.palette))]
}

func normalizeSender(sender string) string {
	normalized := strings.ToLower(strings.TrimSpace(sender))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

func hashToPalette(key string, paletteLen int) int {
	if paletteLen == 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(paletteLen))
}
