package tui

import "strings"

func (a *App) renderHelp() string {
	st := a.styles
	w := a.boxWidth(60)
	var b strings.Builder

	b.WriteString(a.center(st.Logo.Render("Help")))
	b.WriteString("\n\n")

	commands := []string{
		"  /help, /h      Show this help",
		"  /settings, /s  Open settings",
		"  /custom, /c    Add a custom format",
		"  /example, /e   Fill in an example prompt",
		"  /theme, /t     Toggle light/dark theme",
		"  /quit, /q      Quit promptfmt",
		"",
		"  Type a command in the prompt box and press enter",
	}

	b.WriteString(a.center(st.Box.Copy().Width(w).Render(st.Text.Render(strings.Join(commands, "\n")))))
	b.WriteString("\n\n")

	shortcuts := []string{
		"  ctrl+s         Convert",
		"  tab            Next field (formats, style, prompt)",
		"  space          Toggle format / next style",
		"  a / n          Select all / no formats",
		"  d              Remove the custom format under the cursor",
		"  ctrl+n         Add a custom format",
		"  ctrl+e         Example prompt",
		"  ctrl+t         Toggle theme",
		"  c              Copy code (results)",
		"  esc            Back / dismiss error / quit (ignored while converting)",
	}

	b.WriteString(a.center(st.Subtitle.Render("Keyboard Shortcuts")))
	b.WriteString("\n\n")
	b.WriteString(a.center(st.Box.Copy().Width(w).Render(st.Text.Render(strings.Join(shortcuts, "\n")))))
	b.WriteString("\n\n")

	b.WriteString(a.center(st.StatusBar.Render("[esc] Back")))

	return a.centerVertically(b.String())
}
