package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sant0-9/promptfmt/internal/config"
	"github.com/sant0-9/promptfmt/internal/convert"
	"github.com/sant0-9/promptfmt/internal/formats"
	"github.com/sant0-9/promptfmt/internal/llm"
	"github.com/sant0-9/promptfmt/internal/parser"
	"github.com/sant0-9/promptfmt/internal/prompts"
	"github.com/sant0-9/promptfmt/internal/theme"
	"github.com/sant0-9/promptfmt/internal/tui/styles"
)

type view int

const (
	viewSetup view = iota
	viewForm
	viewCustom
	viewConverting
	viewResults
	viewSettings
	viewHelp
)

// Options configure a new App.
type Options struct {
	// Config is the loaded configuration. Nil starts the setup wizard.
	Config *config.Config
	Logger *slog.Logger
	// DetectDark reports the terminal background when no theme is stored.
	DetectDark func() bool
}

type App struct {
	width    int
	height   int
	view     view
	state    *state
	quitting bool

	themes  *theme.Manager
	styles  styles.Styles
	log     *slog.Logger
	program *tea.Program
}

func NewApp(opts Options) *App {
	s := newState()

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if opts.Config == nil {
		s.needsSetup = true
		s.config = config.DefaultConfig()
	} else {
		s.config = opts.Config
	}
	s.styleIdx = styleIndex(s.config.ContextStyle)
	s.selectedProvider = config.ProviderIndex(s.config.Provider)

	initial := theme.Initial(s.config.Theme, opts.DetectDark)

	a := &App{
		view:   viewForm,
		state:  s,
		themes: theme.NewManager(initial, s.config),
		styles: styles.ForTheme(initial),
		log:    log,
	}
	a.loadLibrary()
	return a
}

// SetProgram lets the app push streaming progress from the conversion
// goroutine. Call it before Run.
func (a *App) SetProgram(p *tea.Program) {
	a.program = p
}

// loadLibrary registers saved custom formats, unselected.
func (a *App) loadLibrary() {
	dir, err := a.state.config.FormatsPath()
	if err != nil {
		a.log.Warn("format library unavailable", "error", err)
		return
	}
	a.state.library = formats.NewLibrary(dir)

	specs, err := a.state.library.Load()
	if err != nil {
		a.log.Warn("failed to load format library", "dir", dir, "error", err)
		return
	}
	for _, spec := range specs {
		if _, err := a.state.registry.AddUnselected(spec.Name, spec.Instructions); err != nil {
			a.log.Warn("skipping library format", "name", spec.Name, "error", err)
		}
	}
	a.log.Debug("format library loaded", "dir", dir, "count", len(specs))
}

func (a *App) Init() tea.Cmd {
	if a.state.needsSetup {
		a.view = viewSetup
		return tea.Batch(tea.WindowSize(), textinput.Blink)
	}

	a.state.prompt.Focus()
	return tea.Batch(
		tea.WindowSize(),
		textarea.Blink,
		a.connect(),
	)
}

// connect builds the configured provider and checks that it answers.
func (a *App) connect() tea.Cmd {
	cfg := *a.state.config
	return func() tea.Msg {
		provider, err := llm.NewProvider(&cfg)
		if err != nil {
			return providerErrorMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := provider.Ping(ctx); err != nil {
			return providerErrorMsg{err: err, provider: provider}
		}

		return providerReadyMsg{provider: provider}
	}
}

func (a *App) useProvider(p llm.Provider) {
	cfg := a.state.config
	session := convert.NewSession(p, convert.Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Stream:      cfg.Stream,
		Logger:      a.log,
	})
	session.SetProgressCallback(func(pr convert.Progress) {
		if a.program != nil {
			a.program.Send(progressMsg(pr))
		}
	})
	a.state.session = session
}

type setupCompleteMsg struct{}
type setupErrorMsg struct{ error }
type providerReadyMsg struct{ provider llm.Provider }
type providerErrorMsg struct {
	err      error
	provider llm.Provider
}
type progressMsg convert.Progress
type convertDoneMsg struct {
	records []parser.Record
	err     error
}
type formatSavedMsg struct {
	path string
	err  error
}
type copiedMsg struct {
	title string
	err   error
}
type configSavedMsg struct{ err error }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd, handled := a.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if handled {
			return a, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case spinner.TickMsg:
		if !a.state.converting {
			return a, nil
		}
		var cmd tea.Cmd
		a.state.spinner, cmd = a.state.spinner.Update(msg)
		return a, cmd

	case progressMsg:
		a.state.received = msg.Chars
		return a, nil

	case convertDoneMsg:
		a.finishConvert(msg)
		return a, nil

	case setupCompleteMsg:
		a.state.needsSetup = false
		a.state.setupError = nil
		a.view = viewForm
		a.state.prompt.Focus()
		return a, a.connect()

	case setupErrorMsg:
		a.state.setupError = msg.error
		return a, nil

	case providerReadyMsg:
		a.state.providerReady = true
		a.state.providerError = nil
		a.useProvider(msg.provider)
		a.log.Info("provider ready", "provider", msg.provider.Name(), "model", a.state.config.Model)
		return a, nil

	case providerErrorMsg:
		a.state.providerReady = false
		a.state.providerError = msg.err
		if msg.provider != nil {
			// keep a session so the user can still try once the provider is back
			a.useProvider(msg.provider)
		} else {
			a.state.session = nil
		}
		a.log.Warn("provider unavailable", "provider", a.state.config.Provider, "error", msg.err)
		return a, nil

	case formatSavedMsg:
		if msg.err != nil {
			a.state.notice = "Could not save format: " + msg.err.Error()
		} else {
			a.state.notice = "Saved to " + msg.path
		}
		return a, nil

	case copiedMsg:
		if msg.err != nil {
			a.state.notice = "Copy failed: " + msg.err.Error()
		} else {
			a.state.notice = "Copied " + msg.title + " to clipboard"
		}
		return a, nil

	case configSavedMsg:
		if msg.err != nil {
			a.state.notice = "Could not save settings: " + msg.err.Error()
			return a, nil
		}
		return a, a.connect()
	}

	// Update inputs based on view
	switch a.view {
	case viewSetup:
		if a.state.setupStep == 1 {
			var cmd tea.Cmd
			a.state.apiKeyInput, cmd = a.state.apiKeyInput.Update(msg)
			cmds = append(cmds, cmd)
		}
	case viewSettings:
		if a.state.settingsMode == "apikey" {
			var cmd tea.Cmd
			a.state.apiKeyInput, cmd = a.state.apiKeyInput.Update(msg)
			cmds = append(cmds, cmd)
		}
	case viewForm:
		if a.state.focus == focusPrompt {
			var cmd tea.Cmd
			a.state.prompt, cmd = a.state.prompt.Update(msg)
			cmds = append(cmds, cmd)
		}
	case viewCustom:
		var cmd tea.Cmd
		if a.state.dialogField == fieldName {
			a.state.nameInput, cmd = a.state.nameInput.Update(msg)
		} else {
			a.state.instrInput, cmd = a.state.instrInput.Update(msg)
		}
		cmds = append(cmds, cmd)
	case viewResults:
		var cmd tea.Cmd
		a.state.viewport, cmd = a.state.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) resize() {
	w := a.boxWidth(80)
	a.state.prompt.SetWidth(w - 4)
	a.state.instrInput.SetWidth(a.boxWidth(60) - 4)
	a.state.viewport.Width = w
	h := a.height - 6
	if h < 5 {
		h = 5
	}
	a.state.viewport.Height = h
	if a.view == viewResults {
		a.refreshResults()
	}
}

// handleKey reports whether the key was consumed. Unconsumed keys go to the
// focused input.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if key.Matches(msg, keys.Quit) {
		if a.state.cancel != nil {
			a.state.cancel()
		}
		a.quitting = true
		return tea.Quit, true
	}

	switch a.view {
	case viewSetup:
		return a.handleSetupKey(msg)
	case viewForm:
		return a.handleFormKey(msg)
	case viewCustom:
		return a.handleCustomKey(msg)
	case viewConverting:
		// a request runs to completion; only quitting abandons it
		return nil, true
	case viewResults:
		return a.handleResultsKey(msg)
	case viewSettings:
		return a.handleSettingsKey(msg)
	case viewHelp:
		if key.Matches(msg, keys.Back) || msg.String() == "q" || key.Matches(msg, keys.Help) {
			a.show(viewForm)
		}
		return nil, true
	}
	return nil, false
}

// show switches views. Leaving the form dismisses its banner and notice.
func (a *App) show(v view) {
	if a.view == viewForm && v != viewForm {
		a.state.notice = ""
		if a.state.session != nil {
			a.state.session.ClearError()
		}
	}
	a.view = v
	if v == viewForm && a.state.focus == focusPrompt {
		a.state.prompt.Focus()
	} else {
		a.state.prompt.Blur()
	}
}

// runCommand executes a slash command typed in the prompt.
func (a *App) runCommand(input string) (tea.Cmd, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/help", "/h":
		a.state.prompt.Reset()
		a.show(viewHelp)
	case "/settings", "/s":
		a.state.prompt.Reset()
		a.state.settingsMode = ""
		a.show(viewSettings)
	case "/quit", "/q":
		a.quitting = true
		return tea.Quit, true
	case "/theme", "/t":
		a.state.prompt.Reset()
		a.toggleTheme()
	case "/example", "/e":
		a.state.prompt.SetValue(prompts.ExamplePrompt)
	case "/custom", "/c":
		a.state.prompt.Reset()
		return a.openDialog(), true
	case "/convert":
		a.state.prompt.Reset()
		a.state.notice = "Type a prompt and press ctrl+s to convert"
	default:
		return nil, false
	}
	return nil, true
}

func (a *App) toggleTheme() {
	t, err := a.themes.Toggle()
	a.styles = styles.ForTheme(t)
	if err != nil {
		a.state.notice = "Could not save theme: " + err.Error()
		a.log.Warn("theme not saved", "theme", string(t), "error", err)
	}
	if a.view == viewResults {
		a.refreshResults()
	}
}

func (a *App) submit() tea.Cmd {
	s := a.state
	if s.converting {
		return nil
	}
	if s.session == nil {
		s.notice = "No provider configured. Type /settings to choose one."
		return nil
	}

	req := s.request()
	if !req.Ready() {
		s.notice = convert.ErrNotReady.Error()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.converting = true
	s.received = 0
	s.notice = ""
	s.results = nil
	s.session.ClearError()
	a.view = viewConverting
	a.state.prompt.Blur()

	session := s.session
	return tea.Batch(
		s.spinner.Tick,
		func() tea.Msg {
			records, err := session.Submit(ctx, req)
			return convertDoneMsg{records: records, err: err}
		},
	)
}

func (a *App) finishConvert(msg convertDoneMsg) {
	s := a.state
	if errors.Is(msg.err, convert.ErrBusy) {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.converting = false

	if msg.err != nil {
		a.view = viewForm
		a.state.prompt.Focus()
		return
	}

	s.results = msg.records
	s.panel = 0
	a.view = viewResults
	a.refreshResults()
	a.state.viewport.GotoTop()
}

func (a *App) copyPanel() tea.Cmd {
	s := a.state
	if s.panel < 0 || s.panel >= len(s.results) {
		return nil
	}
	rec := s.results[s.panel]
	return func() tea.Msg {
		return copiedMsg{title: rec.Title, err: clipboard.WriteAll(rec.Code)}
	}
}

func (a *App) saveFormat(spec formats.Spec) tea.Cmd {
	lib := a.state.library
	return func() tea.Msg {
		path, err := lib.Save(spec)
		return formatSavedMsg{path: path, err: err}
	}
}

func (a *App) saveConfig() tea.Cmd {
	cfg := *a.state.config
	return func() tea.Msg {
		return configSavedMsg{err: cfg.Save()}
	}
}

func (a *App) finishSetup() tea.Cmd {
	cfg := *a.state.config
	return func() tea.Msg {
		if err := cfg.Save(); err != nil {
			return setupErrorMsg{err}
		}
		return setupCompleteMsg{}
	}
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	switch a.view {
	case viewSetup:
		return a.renderSetup()
	case viewCustom:
		return a.renderCustom()
	case viewConverting:
		return a.renderConverting()
	case viewResults:
		return a.renderResults()
	case viewSettings:
		return a.renderSettings()
	case viewHelp:
		return a.renderHelp()
	default:
		return a.renderForm()
	}
}
