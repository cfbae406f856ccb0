package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// MenuComponent is a vertical list with a cursor.
type MenuComponent struct {
	items  []string
	cursor int
}

// NewMenuComponent creates a menu over items.
func NewMenuComponent(items ...string) *MenuComponent {
	return &MenuComponent{items: items}
}

// Up moves the cursor up, wrapping at the top.
func (m *MenuComponent) Up() {
	if len(m.items) == 0 {
		return
	}
	m.cursor = (m.cursor - 1 + len(m.items)) % len(m.items)
}

// Down moves the cursor down, wrapping at the bottom.
func (m *MenuComponent) Down() {
	if len(m.items) == 0 {
		return
	}
	m.cursor = (m.cursor + 1) % len(m.items)
}

// Cursor returns the selected index.
func (m *MenuComponent) Cursor() int {
	return m.cursor
}

// View renders the menu.
func (m *MenuComponent) View() string {
	selected := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	item := lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))

	var sb strings.Builder
	for i, it := range m.items {
		if i == m.cursor {
			sb.WriteString(selected.Render("▸ " + it))
		} else {
			sb.WriteString(item.Render("  " + it))
		}
		if i < len(m.items)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
