package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (a *App) handleResultsKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	s := a.state

	switch {
	case key.Matches(msg, keys.Back), msg.String() == "n", msg.String() == "q":
		s.notice = ""
		a.show(viewForm)
		return nil, true
	case key.Matches(msg, keys.Up), msg.String() == "shift+tab":
		if s.panel > 0 {
			s.panel--
			a.refreshResults()
			a.scrollToPanel()
		}
		return nil, true
	case key.Matches(msg, keys.Down), key.Matches(msg, keys.Tab):
		if s.panel < len(s.results)-1 {
			s.panel++
			a.refreshResults()
			a.scrollToPanel()
		}
		return nil, true
	case key.Matches(msg, keys.Copy):
		return a.copyPanel(), true
	case key.Matches(msg, keys.Theme):
		a.toggleTheme()
		return nil, true
	}
	// pgup, pgdown and the mouse scroll the viewport
	return nil, false
}

// refreshResults re-renders every panel into the viewport and records where
// each one starts.
func (a *App) refreshResults() {
	s := a.state
	st := a.styles
	w := s.viewport.Width
	if w <= 0 {
		w = 70
	}

	if len(s.results) == 0 {
		s.offsets = nil
		s.viewport.SetContent(st.Subtitle.Render(
			"No formats recognised in the response.\nTry again, or pick fewer formats."))
		return
	}

	var panels []string
	s.offsets = s.offsets[:0]
	line := 0
	for i, rec := range s.results {
		header := st.Title.Render(rec.Title) + "  " + st.Tag.Render(rec.Language)
		body := []string{header}
		if rec.Description != "" {
			body = append(body, st.Subtitle.Render(rec.Description))
		}
		body = append(body, "", st.Code.Render(rec.Code))

		box := st.Box.Copy().Width(w - 2)
		if i == s.panel {
			box = box.BorderForeground(st.Palette.Primary)
		}
		panel := box.Render(strings.Join(body, "\n"))

		s.offsets = append(s.offsets, line)
		line += lipgloss.Height(panel)
		panels = append(panels, panel)
	}

	s.viewport.SetContent(strings.Join(panels, "\n"))
}

func (a *App) scrollToPanel() {
	s := a.state
	if s.panel < len(s.offsets) {
		s.viewport.SetYOffset(s.offsets[s.panel])
	}
}

func (a *App) renderResults() string {
	st := a.styles
	s := a.state
	var b strings.Builder

	header := fmt.Sprintf("%d formats", len(s.results))
	if len(s.results) == 1 {
		header = "1 format"
	}
	if len(s.results) > 0 {
		header += fmt.Sprintf(" · %d/%d", s.panel+1, len(s.results))
	}
	b.WriteString(a.center(st.Logo.Render(logo) + st.Subtitle.Render("  "+header)))
	b.WriteString("\n\n")

	b.WriteString(a.center(s.viewport.View()))
	b.WriteString("\n\n")

	if s.notice != "" {
		b.WriteString(a.center(st.Success.Render(s.notice)))
		b.WriteString("\n")
	}

	status := st.StatusBar.Render("[j/k] Panel  [c] Copy code  [pgup/pgdn] Scroll  [ctrl+t] Theme  [esc] Back to form")
	b.WriteString(a.center(status))

	return b.String()
}
