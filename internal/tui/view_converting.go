package tui

import (
	"fmt"
	"strings"

	"github.com/sant0-9/promptfmt/internal/formats"
)

func (a *App) renderConverting() string {
	st := a.styles
	s := a.state
	w := a.boxWidth(60)
	var b strings.Builder

	title := st.Logo.Render("Converting")
	b.WriteString(a.center(title))
	b.WriteString("\n\n")

	asked := st.Subtitle.Render("> " + truncate(strings.Join(strings.Fields(s.prompt.Value()), " "), 55))
	b.WriteString(a.center(asked))
	b.WriteString("\n\n")

	var lines []string
	for _, f := range s.registry.Active() {
		lines = append(lines, st.Text.Render("  "+formats.DisplayName(f.Name)))
	}
	lines = append(lines, "", st.Subtitle.Render("  Style: "+s.style()))

	box := st.Box.Copy().
		Width(w).
		BorderForeground(st.Palette.Secondary).
		Render(strings.Join(lines, "\n"))
	b.WriteString(a.center(box))
	b.WriteString("\n\n")

	progress := s.spinner.View() + " Waiting for the model..."
	if s.received > 0 {
		progress = fmt.Sprintf("%s Receiving... %d characters", s.spinner.View(), s.received)
	}
	b.WriteString(a.center(st.Selected.Render(progress)))
	b.WriteString("\n\n")

	b.WriteString(a.center(st.StatusBar.Render("[ctrl+c] Quit")))

	return a.centerVertically(b.String())
}
