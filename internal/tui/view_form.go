package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sant0-9/promptfmt/internal/config"
	"github.com/sant0-9/promptfmt/internal/formats"
	"github.com/sant0-9/promptfmt/internal/prompts"
)

const logo = "🧩 promptfmt"

const tagline = "Turn a plain prompt into JSON, YAML, CSV and more"

func (a *App) handleFormKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	s := a.state

	switch {
	case key.Matches(msg, keys.Convert):
		return a.submit(), true
	case key.Matches(msg, keys.Custom):
		return a.openDialog(), true
	case key.Matches(msg, keys.Theme):
		a.toggleTheme()
		return nil, true
	case key.Matches(msg, keys.Example):
		s.prompt.SetValue(prompts.ExamplePrompt)
		a.setFocus(focusPrompt)
		return nil, true
	case key.Matches(msg, keys.Tab):
		a.setFocus((s.focus + 1) % 3)
		return nil, true
	case msg.String() == "shift+tab":
		a.setFocus((s.focus + 2) % 3)
		return nil, true
	case key.Matches(msg, keys.Back):
		if s.notice != "" || (s.session != nil && s.session.Error() != "") {
			s.notice = ""
			if s.session != nil {
				s.session.ClearError()
			}
			return nil, true
		}
		a.quitting = true
		return tea.Quit, true
	}

	switch s.focus {
	case focusFormats:
		return a.handleFormatsKey(msg), true
	case focusStyle:
		switch {
		case key.Matches(msg, keys.Left):
			s.styleIdx = (s.styleIdx + len(prompts.ContextStyles) - 1) % len(prompts.ContextStyles)
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.Toggle):
			s.styleIdx = (s.styleIdx + 1) % len(prompts.ContextStyles)
		case key.Matches(msg, keys.Help):
			a.show(viewHelp)
		}
		return nil, true
	case focusPrompt:
		if key.Matches(msg, keys.Enter) && strings.HasPrefix(strings.TrimSpace(s.prompt.Value()), "/") {
			return a.runCommand(s.prompt.Value())
		}
	}
	return nil, false
}

func (a *App) handleFormatsKey(msg tea.KeyMsg) tea.Cmd {
	s := a.state
	all := s.registry.All()

	switch {
	case key.Matches(msg, keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(msg, keys.Down):
		if s.cursor < len(all)-1 {
			s.cursor++
		}
	case key.Matches(msg, keys.Toggle), key.Matches(msg, keys.Enter):
		if s.cursor < len(all) {
			s.registry.Toggle(all[s.cursor].Name)
		}
	case key.Matches(msg, keys.Remove):
		if s.cursor < len(all) && !formats.IsPredefined(all[s.cursor].Name) {
			name := all[s.cursor].Name
			s.registry.Remove(name)
			s.notice = fmt.Sprintf("Removed %q", name)
			if s.cursor >= len(all)-1 && s.cursor > 0 {
				s.cursor--
			}
		}
	case msg.String() == "a":
		for _, f := range all {
			s.registry.SetSelected(f.Name, true)
		}
	case msg.String() == "n":
		for _, f := range all {
			s.registry.SetSelected(f.Name, false)
		}
	case key.Matches(msg, keys.Help):
		a.show(viewHelp)
	}
	return nil
}

func (a *App) setFocus(f focus) {
	a.state.focus = f
	if f == focusPrompt {
		a.state.prompt.Focus()
	} else {
		a.state.prompt.Blur()
	}
}

func (a *App) renderForm() string {
	st := a.styles
	s := a.state
	w := a.boxWidth(80)
	var b strings.Builder

	b.WriteString(a.center(st.Logo.Render(logo)))
	b.WriteString("\n")
	b.WriteString(a.center(st.Subtitle.Render(tagline)))
	b.WriteString("\n")
	b.WriteString(a.center(a.renderProviderLine()))
	b.WriteString("\n\n")

	if banner := a.renderBanner(); banner != "" {
		b.WriteString(a.center(banner))
		b.WriteString("\n\n")
	}

	b.WriteString(a.center(a.renderFormats(w)))
	b.WriteString("\n")
	b.WriteString(a.center(a.renderStyle(w)))
	b.WriteString("\n")

	promptBox := st.Box.Copy().Width(w)
	if s.focus == focusPrompt {
		promptBox = promptBox.BorderForeground(st.Palette.Primary)
	}
	b.WriteString(a.center(promptBox.Render(s.prompt.View())))
	b.WriteString("\n")

	if s.notice != "" {
		b.WriteString(a.center(st.Subtitle.Render(s.notice)))
		b.WriteString("\n")
	}
	if est := a.tokenEstimate(); est != "" {
		b.WriteString(a.center(st.StatusBar.Render(est)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	submit := "[ctrl+s] Convert"
	if !s.request().Ready() {
		submit = st.Unfocused.Render("[ctrl+s] Convert (needs prompt + format)")
	}
	status := st.StatusBar.Render(submit + "  [tab] Next field  [ctrl+n] Custom format  [ctrl+t] Theme  [?] Help  [esc] Quit")
	b.WriteString(a.center(status))

	return a.centerVertically(b.String())
}

func (a *App) renderProviderLine() string {
	st := a.styles
	s := a.state

	name := s.config.Provider
	if p := config.GetProvider(name); p != nil {
		name = p.Name
	}
	line := fmt.Sprintf("%s · %s", name, s.config.Model)

	switch {
	case s.providerReady:
		return st.Success.Render("● ") + st.Subtitle.Render(line)
	case s.providerError != nil:
		return st.Error.Render("● ") + st.Subtitle.Render(line+" (unavailable)")
	default:
		return st.Subtitle.Render("○ " + line + " (connecting...)")
	}
}

func (a *App) renderFormats(w int) string {
	st := a.styles
	s := a.state
	focused := s.focus == focusFormats

	var lines []string
	for i, f := range s.registry.All() {
		mark := "[ ]"
		if s.registry.Selected(f.Name) {
			mark = "[x]"
		}
		cursor := "  "
		if focused && i == s.cursor {
			cursor = "> "
		}

		line := fmt.Sprintf("%s%s %s", cursor, mark, f.DisplayName())
		switch {
		case focused && i == s.cursor:
			line = st.Selected.Render(line)
		case !s.registry.Selected(f.Name):
			line = st.Unfocused.Render(line)
		default:
			line = st.Text.Render(line)
		}
		if !formats.IsPredefined(f.Name) {
			line += st.Subtitle.Render("  custom: " + truncate(f.Instructions, 40))
		}
		lines = append(lines, line)
	}

	header := "Formats"
	if focused {
		header += st.Subtitle.Render("  [space] toggle  [a] all  [n] none  [d] remove custom")
	}

	box := st.Box.Copy().Width(w)
	if focused {
		box = box.BorderForeground(st.Palette.Primary)
	}
	return box.Render(st.Title.Render(header) + "\n" + strings.Join(lines, "\n"))
}

func (a *App) renderStyle(w int) string {
	st := a.styles
	focused := a.state.focus == focusStyle

	value := a.state.style()
	if focused {
		value = st.Selected.Render("< " + value + " >")
	} else {
		value = st.Text.Render(value)
	}

	box := st.Box.Copy().Width(w)
	if focused {
		box = box.BorderForeground(st.Palette.Primary)
	}
	return box.Render(lipgloss.JoinHorizontal(lipgloss.Top, st.Title.Render("Context style: "), value))
}

// tokenEstimate summarises the size of the request the form would send.
func (a *App) tokenEstimate() string {
	req := a.state.request()
	if !req.Ready() || strings.HasPrefix(strings.TrimSpace(req.Prompt), "/") {
		return ""
	}
	user, err := prompts.Assemble(req.Prompt, req.Formats, req.Style)
	if err != nil {
		return ""
	}

	tokens := estimateTokens(prompts.SystemInstruction) + estimateTokens(user)
	limit := getContextLimit(a.state.config.Model)
	return fmt.Sprintf("~%d tokens · %d formats · %.1f%% of context", tokens, len(req.Formats), float64(tokens)*100/float64(limit))
}
