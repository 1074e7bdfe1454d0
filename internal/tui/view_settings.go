package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sant0-9/promptfmt/internal/config"
	"github.com/sant0-9/promptfmt/internal/prompts"
)

func (a *App) handleSettingsKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	s := a.state
	cfg := s.config

	switch s.settingsMode {
	case "provider":
		switch {
		case key.Matches(msg, keys.Back):
			s.settingsMode = ""
		case key.Matches(msg, keys.Up):
			if s.settingsSelected > 0 {
				s.settingsSelected--
			}
		case key.Matches(msg, keys.Down):
			if s.settingsSelected < len(config.Providers)-1 {
				s.settingsSelected++
			}
		case key.Matches(msg, keys.Enter):
			p := config.Providers[s.settingsSelected]
			if cfg.Provider != p.ID {
				cfg.Provider = p.ID
				cfg.Model = p.DefaultModel
				cfg.APIKey = ""
			}
			if p.NeedsAPIKey && cfg.APIKey == "" {
				s.settingsMode = "apikey"
				s.apiKeyInput.Reset()
				return s.apiKeyInput.Focus(), true
			}
			s.settingsMode = ""
			return a.applySettings(), true
		}
		return nil, true

	case "model":
		p := config.GetProvider(cfg.Provider)
		switch {
		case key.Matches(msg, keys.Back):
			s.settingsMode = ""
		case key.Matches(msg, keys.Up):
			if s.settingsSelected > 0 {
				s.settingsSelected--
			}
		case key.Matches(msg, keys.Down):
			if p != nil && s.settingsSelected < len(p.Models)-1 {
				s.settingsSelected++
			}
		case key.Matches(msg, keys.Enter):
			if p != nil && s.settingsSelected < len(p.Models) {
				cfg.Model = p.Models[s.settingsSelected]
			}
			s.settingsMode = ""
			return a.applySettings(), true
		}
		return nil, true

	case "apikey":
		switch {
		case key.Matches(msg, keys.Back):
			s.apiKeyInput.Blur()
			s.settingsMode = ""
			return nil, true
		case key.Matches(msg, keys.Enter):
			cfg.APIKey = strings.TrimSpace(s.apiKeyInput.Value())
			s.apiKeyInput.Blur()
			s.apiKeyInput.Reset()
			s.settingsMode = ""
			return a.applySettings(), true
		}
		return nil, false
	}

	switch msg.String() {
	case "esc", "q":
		a.show(viewForm)
	case "p":
		s.settingsMode = "provider"
		s.settingsSelected = config.ProviderIndex(cfg.Provider)
	case "m":
		s.settingsMode = "model"
		s.settingsSelected = 0
		if p := config.GetProvider(cfg.Provider); p != nil {
			for i, m := range p.Models {
				if m == cfg.Model {
					s.settingsSelected = i
				}
			}
		}
	case "k":
		s.settingsMode = "apikey"
		s.apiKeyInput.Reset()
		return tea.Batch(s.apiKeyInput.Focus(), textinput.Blink), true
	case "t":
		a.toggleTheme()
	case "y":
		s.styleIdx = (s.styleIdx + 1) % len(prompts.ContextStyles)
		cfg.ContextStyle = s.style()
		return a.saveConfig(), true
	case "s":
		cfg.Stream = !cfg.Stream
		return a.applySettings(), true
	case "r":
		s.setupStep = 0
		s.selectedProvider = config.ProviderIndex(cfg.Provider)
		a.view = viewSetup
	}
	return nil, true
}

// applySettings saves the config and reconnects with it.
func (a *App) applySettings() tea.Cmd {
	a.state.providerReady = false
	a.state.providerError = nil
	a.log.Info("settings changed", "provider", a.state.config.Provider, "model", a.state.config.Model, "stream", a.state.config.Stream)
	return a.saveConfig()
}

func (a *App) renderSettings() string {
	switch a.state.settingsMode {
	case "provider":
		return a.renderSettingsProvider()
	case "model":
		return a.renderSettingsModel()
	case "apikey":
		return a.renderSettingsAPIKey()
	default:
		return a.renderSettingsMain()
	}
}

func maskKey(k string) string {
	switch {
	case k == "":
		return "Not set"
	case len(k) > 8:
		return k[:4] + "****" + k[len(k)-4:]
	default:
		return "****"
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (a *App) renderSettingsMain() string {
	st := a.styles
	cfg := a.state.config
	w := a.boxWidth(50)
	var b strings.Builder

	b.WriteString(a.center(st.Logo.Render("Settings")))
	b.WriteString("\n\n")

	providerName := cfg.Provider
	if p := config.GetProvider(cfg.Provider); p != nil {
		providerName = p.Name
	}

	configLines := []string{
		fmt.Sprintf("  Provider: %s", providerName),
		fmt.Sprintf("  Model:    %s", cfg.Model),
		fmt.Sprintf("  API Key:  %s", maskKey(cfg.APIKey)),
		fmt.Sprintf("  Style:    %s", a.state.style()),
		fmt.Sprintf("  Theme:    %s", a.themes.Current()),
		fmt.Sprintf("  Stream:   %s", onOff(cfg.Stream)),
	}
	if a.state.library != nil {
		configLines = append(configLines, fmt.Sprintf("  Library:  %s", a.state.library.Dir()))
	}

	configBox := st.Box.Copy().Width(w).Render(st.Text.Render(strings.Join(configLines, "\n")))
	b.WriteString(a.center(configBox))
	b.WriteString("\n\n")

	actions := []string{
		"  [p] Change provider",
		"  [m] Change model",
		"  [k] Update API key",
		"  [y] Next default style",
		"  [t] Toggle theme",
		"  [s] Toggle streaming",
		"  [r] Rerun setup",
	}
	actionsBox := st.Box.Copy().Width(w).Render(st.Text.Render(strings.Join(actions, "\n")))
	b.WriteString(a.center(actionsBox))
	b.WriteString("\n\n")

	if a.state.notice != "" {
		b.WriteString(a.center(st.Subtitle.Render(a.state.notice)))
		b.WriteString("\n\n")
	}

	b.WriteString(a.center(st.StatusBar.Render("[esc] Back")))

	return a.centerVertically(b.String())
}

func (a *App) renderList(title, subtitle string, items []string, current string) string {
	st := a.styles
	var b strings.Builder

	b.WriteString(a.center(st.Logo.Render(title)))
	b.WriteString("\n\n")
	if subtitle != "" {
		b.WriteString(a.center(st.Subtitle.Render(subtitle)))
		b.WriteString("\n\n")
	}

	var lines []string
	for i, item := range items {
		cursor := "  "
		if i == a.state.settingsSelected {
			cursor = "> "
		}
		mark := ""
		if item == current {
			mark = " (current)"
		}
		line := cursor + item + mark
		if i == a.state.settingsSelected {
			line = st.Selected.Render(line)
		} else {
			line = st.Text.Render(line)
		}
		lines = append(lines, line)
	}

	listBox := st.Box.Copy().Width(a.boxWidth(50)).Render(strings.Join(lines, "\n"))
	b.WriteString(a.center(listBox))
	b.WriteString("\n\n")

	b.WriteString(a.center(st.StatusBar.Render("[up/down] Navigate  [enter] Select  [esc] Cancel")))

	return a.centerVertically(b.String())
}

func (a *App) renderSettingsProvider() string {
	names := make([]string, len(config.Providers))
	current := ""
	for i, p := range config.Providers {
		names[i] = p.Name
		if p.ID == a.state.config.Provider {
			current = p.Name
		}
	}
	return a.renderList("Select Provider", "", names, current)
}

func (a *App) renderSettingsModel() string {
	p := config.GetProvider(a.state.config.Provider)
	if p == nil {
		return a.centerVertically(a.center(a.styles.Subtitle.Render("This provider has no model list. Set model in config.yaml.")))
	}
	return a.renderList("Select Model", "Provider: "+p.Name, p.Models, a.state.config.Model)
}

func (a *App) renderSettingsAPIKey() string {
	st := a.styles
	var b strings.Builder

	b.WriteString(a.center(st.Logo.Render("Update API Key")))
	b.WriteString("\n\n")

	desc := "Enter your new API key"
	if p := config.GetProvider(a.state.config.Provider); p != nil && p.SignupURL != "" {
		desc = fmt.Sprintf("Enter your %s API key (get one at %s)", p.Name, p.SignupURL)
	}
	b.WriteString(a.center(st.Subtitle.Render(desc)))
	b.WriteString("\n\n")

	inputBox := st.Box.Copy().
		Width(a.boxWidth(50)).
		BorderForeground(st.Palette.Primary).
		Render(a.state.apiKeyInput.View())
	b.WriteString(a.center(inputBox))
	b.WriteString("\n\n")

	b.WriteString(a.center(st.StatusBar.Render("[enter] Save  [esc] Cancel")))

	return a.centerVertically(b.String())
}
