package player

// Menu selections beyond the video list.
const (
	menuToggleMode = iota
	menuToggleCaption
	menuClose
	menuCoreItems
)

// Menu is the overlay menu's navigation state: three fixed entries followed
// by one entry per configured video. Selection effects are applied by the
// controller.
type Menu struct {
	open     bool
	selected int
}

// IsOpen reports whether the menu overlay is visible.
func (m *Menu) IsOpen() bool {
	return m.open
}

// Toggle opens or closes the menu, resetting the cursor on open.
func (m *Menu) Toggle() {
	m.open = !m.open
	if m.open {
		m.selected = 0
	}
}

// Close hides the menu.
func (m *Menu) Close() {
	m.open = false
}

// Up moves the cursor up, wrapping over the item count.
func (m *Menu) Up(videoCount int) {
	if !m.open {
		return
	}
	total := menuCoreItems + videoCount
	m.selected = (m.selected - 1 + total) % total
}

// Down moves the cursor down, wrapping over the item count.
func (m *Menu) Down(videoCount int) {
	if !m.open {
		return
	}
	total := menuCoreItems + videoCount
	m.selected = (m.selected + 1) % total
}

// Selection returns the selected core item, or (-1, videoIndex) when a
// video entry is selected.
func (m *Menu) Selection() (item int, videoIndex int) {
	if m.selected < menuCoreItems {
		return m.selected, -1
	}
	return -1, m.selected - menuCoreItems
}
