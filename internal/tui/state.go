package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/sant0-9/promptfmt/internal/config"
	"github.com/sant0-9/promptfmt/internal/convert"
	"github.com/sant0-9/promptfmt/internal/formats"
	"github.com/sant0-9/promptfmt/internal/parser"
	"github.com/sant0-9/promptfmt/internal/prompts"
)

// focus is the form field receiving keys.
type focus int

const (
	focusFormats focus = iota
	focusStyle
	focusPrompt
)

// dialogField is the custom format dialog field receiving keys.
type dialogField int

const (
	fieldName dialogField = iota
	fieldInstructions
)

type state struct {
	// Config
	config     *config.Config
	needsSetup bool

	// Setup wizard state
	setupStep        int
	selectedProvider int
	apiKeyInput      textinput.Model
	setupError       error

	// Settings
	settingsMode     string
	settingsSelected int

	// Formats
	registry *formats.Registry
	library  *formats.Library
	cursor   int

	// Form
	focus    focus
	styleIdx int
	prompt   textarea.Model
	notice   string

	// Custom format dialog
	nameInput     textinput.Model
	instrInput    textarea.Model
	dialogField   dialogField
	dialogError   error
	saveToLibrary bool

	// Conversion
	session    *convert.Session
	converting bool
	received   int
	cancel     context.CancelFunc
	spinner    spinner.Model

	// Results
	results  []parser.Record
	panel    int
	offsets  []int
	viewport viewport.Model

	// Provider
	providerReady bool
	providerError error
}

func newState() *state {
	prompt := textarea.New()
	prompt.Placeholder = "Describe the data to convert, or type /help for commands..."
	prompt.CharLimit = 10000
	prompt.ShowLineNumbers = false
	prompt.SetWidth(70)
	prompt.SetHeight(5)

	apiKey := textinput.New()
	apiKey.Placeholder = "Paste your API key here..."
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.CharLimit = 200
	apiKey.Width = 50

	name := textinput.New()
	name.Placeholder = "e.g. Markdown Table"
	name.CharLimit = 60
	name.Width = 50

	instr := textarea.New()
	instr.Placeholder = "e.g. Columns for id, name and role"
	instr.CharLimit = 2000
	instr.ShowLineNumbers = false
	instr.SetWidth(56)
	instr.SetHeight(4)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &state{
		registry:    formats.NewRegistry(),
		focus:       focusPrompt,
		prompt:      prompt,
		apiKeyInput: apiKey,
		nameInput:   name,
		instrInput:  instr,
		spinner:     sp,
		viewport:    viewport.New(70, 20),
	}
}

// style returns the selected context style label.
func (s *state) style() string {
	if s.styleIdx < 0 || s.styleIdx >= len(prompts.ContextStyles) {
		return prompts.DefaultContextStyle
	}
	return prompts.ContextStyles[s.styleIdx]
}

// request snapshots the form for the session.
func (s *state) request() convert.Request {
	return convert.Request{
		Prompt:  s.prompt.Value(),
		Formats: s.registry.Active(),
		Style:   s.style(),
	}
}

func styleIndex(style string) int {
	for i, st := range prompts.ContextStyles {
		if st == style {
			return i
		}
	}
	return 0
}
