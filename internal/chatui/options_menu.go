package chatui

// Rect is a cell-aligned rectangle in view coordinates.
type Rect struct {
	X, Y int
	W, H int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return r.W > 0 && r.H > 0 && x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// HitTester answers whether a pointer position falls inside a rendered region.
type HitTester interface {
	Contains(x, y int) bool
}

type pointerOutcome int

const (
	// pointerIgnored: menu closed and the press missed the trigger.
	pointerIgnored pointerOutcome = iota
	// pointerToggled: the press hit the trigger and was consumed.
	pointerToggled
	// pointerInside: the press landed on the open menu.
	pointerInside
	// pointerDismissed: the press landed outside the open menu and closed it.
	pointerDismissed
)

// optionsMenu is the closed/open state machine behind the header's options
// trigger. The trigger toggles; any other press outside the menu closes it.
type optionsMenu struct {
	open    bool
	trigger HitTester
	bounds  HitTester
}

func (m *optionsMenu) Toggle() { m.open = !m.open }

func (m *optionsMenu) Close() { m.open = false }

func (m *optionsMenu) IsOpen() bool { return m.open }

// SetRegions records where the trigger and the open menu were rendered.
func (m *optionsMenu) SetRegions(trigger, bounds HitTester) {
	m.trigger = trigger
	m.bounds = bounds
}

// HandlePointer applies one pointer press. A trigger press is consumed here
// and never reaches the outside check, so it cannot close the menu it just
// opened.
func (m *optionsMenu) HandlePointer(x, y int) pointerOutcome {
	if m.trigger != nil && m.trigger.Contains(x, y) {
		m.Toggle()
		return pointerToggled
	}
	if !m.open {
		return pointerIgnored
	}
	if m.bounds != nil && m.bounds.Contains(x, y) {
		return pointerInside
	}
	m.open = false
	return pointerDismissed
}
