package tui

import "strings"

// renderBanner shows the last conversion failure, or a provider problem when
// there is no failure to show. It returns "" when there is nothing to report.
func (a *App) renderBanner() string {
	st := a.styles
	s := a.state

	var title, errMsg string
	switch {
	case s.session != nil && s.session.Error() != "":
		title = "Conversion failed"
		errMsg = s.session.Error()
	case s.providerError != nil:
		title = "Provider unavailable"
		errMsg = s.providerError.Error()
	default:
		return ""
	}

	body := st.Error.Render(title) + "\n" + st.Text.Render(errMsg)
	if tips := suggestions(errMsg); len(tips) > 0 {
		body += "\n\n" + st.Subtitle.Render(strings.Join(tips, "\n"))
	}

	return st.Box.Copy().
		Width(a.boxWidth(80)).
		BorderForeground(st.Palette.Error).
		Render(body)
}

// suggestions returns hints keyed on the error text.
func suggestions(errMsg string) []string {
	errLower := strings.ToLower(errMsg)

	switch {
	case strings.Contains(errLower, "requires an api key") || strings.Contains(errLower, "requires base_url") || strings.Contains(errLower, "unknown provider"):
		return []string{
			"Type /settings to finish configuring the provider",
		}
	case strings.Contains(errLower, "api key") || strings.Contains(errLower, "401") || strings.Contains(errLower, "unauthorized"):
		return []string{
			"Check your API key in ~/.config/promptfmt/config.yaml",
			"Or type /settings to update it",
		}
	case strings.Contains(errLower, "ollama"):
		return []string{
			"Make sure Ollama is running: ollama serve",
			"Or switch to a cloud provider in /settings",
		}
	case strings.Contains(errLower, "rate limit") || strings.Contains(errLower, "429") || strings.Contains(errLower, "quota"):
		return []string{
			"You've hit the API rate limit",
			"Wait a moment and try again",
		}
	case strings.Contains(errLower, "connection") || strings.Contains(errLower, "connect") || strings.Contains(errLower, "timeout") || strings.Contains(errLower, "deadline"):
		return []string{
			"Check your internet connection",
			"Or try Ollama for a local model",
		}
	}
	return nil
}
