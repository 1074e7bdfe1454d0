// Package theme resolves and persists the light/dark preference.
package theme

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

func (t Theme) IsDark() bool {
	return t == Dark
}

// Parse returns the theme named by s, ignoring case and surrounding space.
func Parse(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

// Store persists the preference.
type Store interface {
	SaveTheme(Theme) error
}

// DetectDark reports the terminal background. lipgloss answers false when the
// terminal does not reply, which falls through to light.
func DetectDark() bool {
	return lipgloss.HasDarkBackground()
}

// Initial picks the starting theme: a stored preference wins, then the
// ambient signal, then light. detectDark may be nil.
func Initial(stored string, detectDark func() bool) Theme {
	if t, ok := Parse(stored); ok {
		return t
	}
	if detectDark != nil && detectDark() {
		return Dark
	}
	return Light
}

type Manager struct {
	mu      sync.Mutex
	current Theme
	store   Store
}

func NewManager(initial Theme, store Store) *Manager {
	if _, ok := Parse(string(initial)); !ok {
		initial = Light
	}
	return &Manager{current: initial, store: store}
}

func (m *Manager) Current() Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Toggle flips the theme and saves it. The visible theme changes even when
// saving fails; the error is returned so the caller can report it.
func (m *Manager) Toggle() (Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = m.current.Toggle()
	if m.store == nil {
		return m.current, nil
	}
	return m.current, m.store.SaveTheme(m.current)
}
