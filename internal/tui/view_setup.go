package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sant0-9/promptfmt/internal/config"
)

func (a *App) handleSetupKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	s := a.state

	switch s.setupStep {
	case 0: // Provider selection
		switch {
		case key.Matches(msg, keys.Back):
			if !s.needsSetup {
				a.show(viewSettings)
				return nil, true
			}
			a.quitting = true
			return tea.Quit, true
		case key.Matches(msg, keys.Up):
			if s.selectedProvider > 0 {
				s.selectedProvider--
			}
		case key.Matches(msg, keys.Down):
			if s.selectedProvider < len(config.Providers)-1 {
				s.selectedProvider++
			}
		case key.Matches(msg, keys.Enter):
			provider := config.Providers[s.selectedProvider]
			s.config.Provider = provider.ID
			s.config.Model = provider.DefaultModel

			if provider.NeedsAPIKey {
				s.setupStep = 1
				s.apiKeyInput.Reset()
				s.apiKeyInput.Focus()
				return textinput.Blink, true
			}
			return a.finishSetup(), true
		}
		return nil, true

	case 1: // API key entry
		switch {
		case key.Matches(msg, keys.Back):
			s.setupStep = 0
			s.apiKeyInput.Reset()
			return nil, true
		case key.Matches(msg, keys.Enter):
			if strings.TrimSpace(s.apiKeyInput.Value()) == "" {
				return nil, true
			}
			s.config.APIKey = strings.TrimSpace(s.apiKeyInput.Value())
			s.apiKeyInput.Blur()
			s.setupStep = 0
			return a.finishSetup(), true
		}
	}

	return nil, false
}

func (a *App) renderSetup() string {
	switch a.state.setupStep {
	case 0:
		return a.renderProviderSelection()
	case 1:
		return a.renderAPIKeyEntry()
	default:
		return ""
	}
}

func (a *App) renderProviderSelection() string {
	st := a.styles
	var b strings.Builder

	b.WriteString(a.center(st.Logo.Render(logo)))
	b.WriteString("\n\n")
	b.WriteString(a.center(st.Title.Render("Welcome! Choose your LLM provider:")))
	b.WriteString("\n\n")

	var providerLines []string
	for i, p := range config.Providers {
		if i == a.state.selectedProvider {
			providerLines = append(providerLines, st.Selected.Render(fmt.Sprintf("> [x] %-12s %s", p.Name, p.Description)))
		} else {
			providerLines = append(providerLines, st.Unfocused.Render(fmt.Sprintf("  [ ] %-12s %s", p.Name, p.Description)))
		}
	}

	providerBox := st.Box.Copy().
		Width(a.boxWidth(54)).
		Render(strings.Join(providerLines, "\n"))
	b.WriteString(a.center(providerBox))
	b.WriteString("\n\n")

	if a.state.setupError != nil {
		b.WriteString(a.center(st.Error.Render("Could not save config: " + a.state.setupError.Error())))
		b.WriteString("\n\n")
	}

	b.WriteString(a.center(st.StatusBar.Render("[j/k] Navigate  [enter] Select  [esc] Quit")))

	return a.centerVertically(b.String())
}

func (a *App) renderAPIKeyEntry() string {
	st := a.styles
	var b strings.Builder

	provider := config.GetProvider(a.state.config.Provider)
	name := a.state.config.Provider
	if provider != nil {
		name = provider.Name
	}

	b.WriteString(a.center(st.Logo.Render(logo)))
	b.WriteString("\n\n")
	b.WriteString(a.center(st.Title.Render(fmt.Sprintf("Enter your %s API key:", name))))
	b.WriteString("\n\n")

	if provider != nil && provider.SignupURL != "" {
		b.WriteString(a.center(st.Subtitle.Render("Get one at: " + provider.SignupURL)))
		b.WriteString("\n\n")
	}

	inputBox := st.Box.Copy().
		Width(a.boxWidth(60)).
		BorderForeground(st.Palette.Secondary).
		Render(a.state.apiKeyInput.View())
	b.WriteString(a.center(inputBox))
	b.WriteString("\n\n")

	b.WriteString(a.center(st.StatusBar.Render("[enter] Continue  [esc] Back")))

	return a.centerVertically(b.String())
}
