package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/sant0-9/promptfmt/internal/theme"
)

// Palette is the set of colors a theme paints with.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color
	Surface   lipgloss.Color
}

var (
	DarkPalette = Palette{
		Primary:   lipgloss.Color("#7C3AED"),
		Secondary: lipgloss.Color("#06B6D4"),
		Success:   lipgloss.Color("#10B981"),
		Error:     lipgloss.Color("#EF4444"),
		Muted:     lipgloss.Color("#6B7280"),
		Text:      lipgloss.Color("#F9FAFB"),
		Surface:   lipgloss.Color("#1F2937"),
	}

	LightPalette = Palette{
		Primary:   lipgloss.Color("#6D28D9"),
		Secondary: lipgloss.Color("#0E7490"),
		Success:   lipgloss.Color("#047857"),
		Error:     lipgloss.Color("#B91C1C"),
		Muted:     lipgloss.Color("#6B7280"),
		Text:      lipgloss.Color("#111827"),
		Surface:   lipgloss.Color("#F3F4F6"),
	}
)

func For(t theme.Theme) Palette {
	if t.IsDark() {
		return DarkPalette
	}
	return LightPalette
}

// Styles are the rendered styles for one palette.
type Styles struct {
	Palette Palette

	Logo      lipgloss.Style
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Text      lipgloss.Style
	Box       lipgloss.Style
	StatusBar lipgloss.Style
	Center    lipgloss.Style
	Selected  lipgloss.Style
	Unfocused lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Code      lipgloss.Style
	Tag       lipgloss.Style
}

func New(p Palette) Styles {
	return Styles{
		Palette: p,

		Logo: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true),

		Title: lipgloss.NewStyle().
			Foreground(p.Text).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(p.Muted),

		Text: lipgloss.NewStyle().
			Foreground(p.Text),

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Muted).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(p.Muted),

		Center: lipgloss.NewStyle().
			Align(lipgloss.Center),

		Selected: lipgloss.NewStyle().
			Foreground(p.Secondary).
			Bold(true),

		Unfocused: lipgloss.NewStyle().
			Foreground(p.Muted),

		Error: lipgloss.NewStyle().
			Foreground(p.Error).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(p.Success),

		Code: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Surface).
			Padding(0, 1),

		Tag: lipgloss.NewStyle().
			Foreground(p.Surface).
			Background(p.Secondary).
			Padding(0, 1),
	}
}

// ForTheme is New(For(t)).
func ForTheme(t theme.Theme) Styles {
	return New(For(t))
}
