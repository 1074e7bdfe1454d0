package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// truncate shortens text to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// boxWidth is the width of centred boxes, capped by the terminal.
func (a *App) boxWidth(limit int) int {
	w := a.width - 4
	if w > limit || w <= 0 {
		w = limit
	}
	return w
}

// center places one block horizontally in the middle of the screen.
func (a *App) center(s string) string {
	return lipgloss.PlaceHorizontal(a.width, lipgloss.Center, s)
}

func (a *App) centerVertically(content string) string {
	lines := lipgloss.Height(content)
	padding := (a.height - lines) / 2
	if padding < 0 {
		padding = 0
	}
	return strings.Repeat("\n", padding) + content
}
