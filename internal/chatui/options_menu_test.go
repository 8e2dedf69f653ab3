package chatui

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRectContains(t *testing.T) {
	r := Rect{X: 2, Y: 1, W: 3, H: 2}
	require.True(t, r.Contains(2, 1))
	require.True(t, r.Contains(4, 2))
	require.False(t, r.Contains(5, 1))
	require.False(t, r.Contains(2, 3))
	require.False(t, Rect{}.Contains(0, 0))
}

func TestOptionsMenuTransitions(t *testing.T) {
	trigger := Rect{X: 10, Y: 0, W: 3, H: 1}
	bounds := Rect{X: 5, Y: 1, W: 8, H: 3}
	var m optionsMenu
	m.SetRegions(trigger, bounds)

	tests := []struct {
		name string
		x, y int
		want pointerOutcome
		open bool
	}{
		{name: "press elsewhere while closed", x: 0, y: 5, want: pointerIgnored, open: false},
		{name: "trigger opens", x: 11, y: 0, want: pointerToggled, open: true},
		{name: "inside keeps open", x: 6, y: 2, want: pointerInside, open: true},
		{name: "trigger closes", x: 10, y: 0, want: pointerToggled, open: false},
		{name: "trigger reopens", x: 12, y: 0, want: pointerToggled, open: true},
		{name: "outside closes", x: 0, y: 0, want: pointerDismissed, open: false},
		{name: "outside while closed is ignored", x: 0, y: 0, want: pointerIgnored, open: false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, m.HandlePointer(tt.x, tt.y), tt.name)
		require.Equal(t, tt.open, m.IsOpen(), tt.name)
	}
}
