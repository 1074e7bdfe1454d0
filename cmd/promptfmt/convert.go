package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/sant0-9/promptfmt/internal/config"
	"github.com/sant0-9/promptfmt/internal/convert"
	"github.com/sant0-9/promptfmt/internal/formats"
	"github.com/sant0-9/promptfmt/internal/llm"
	"github.com/sant0-9/promptfmt/internal/parser"
	"github.com/sant0-9/promptfmt/internal/prompts"
	"github.com/spf13/cobra"
)

var (
	formatFlags  []string
	customFlags  []string
	styleFlag    string
	providerFlag string
	modelFlag    string
	jsonFlag     bool
	copyFlag     bool
	timeoutFlag  time.Duration
)

var convertCmd = &cobra.Command{
	Use:   "convert [prompt]",
	Short: "Convert a prompt once and print the formats",
	Long: `Convert a prompt into the selected formats and print them.

The prompt comes from the arguments, from stdin when it is piped, or is asked
for interactively. Without --format every predefined format is produced.`,
	Example: `  promptfmt convert "three users: alice admin, bob user" -f json -f yaml
  cat notes.txt | promptfmt convert --style Technical --json
  promptfmt convert --custom "Markdown Table=a GitHub markdown table" "list the planets"`,
	RunE: runConvert,
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List predefined and saved custom formats",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		lib, err := loadLibrary(cfg)
		if err != nil {
			return fmt.Errorf("failed to load format library: %w", err)
		}
		printFormats(cmd.OutOrStdout(), lib)
		return nil
	},
}

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List context styles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		printStyles(cmd.OutOrStdout(), canonicalStyle(cfg.ContextStyle))
		return nil
	},
}

func init() {
	convertCmd.Flags().StringArrayVarP(&formatFlags, "format", "f", nil, "format to produce (repeatable, default all predefined)")
	convertCmd.Flags().StringArrayVar(&customFlags, "custom", nil, `custom format as "Name=instructions" (repeatable)`)
	convertCmd.Flags().StringVarP(&styleFlag, "style", "s", "", "context style (see 'promptfmt styles')")
	convertCmd.Flags().StringVar(&providerFlag, "provider", "", "override the configured provider")
	convertCmd.Flags().StringVar(&modelFlag, "model", "", "override the configured model")
	convertCmd.Flags().BoolVar(&jsonFlag, "json", false, "print records as JSON")
	convertCmd.Flags().BoolVar(&copyFlag, "copy", false, "copy the first record's code to the clipboard")
	convertCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "give up after this long (0 waits for the provider)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	log := cliLogger(debug)

	cfg, err := config.LoadOrDefault()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if providerFlag != "" {
		id := strings.ToLower(providerFlag)
		if p := config.GetProvider(id); p != nil && cfg.Provider != id {
			cfg.Model = p.DefaultModel
		}
		// unknown ids are rejected by llm.NewProvider
		cfg.Provider = id
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}

	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())

	prompt, err := readPrompt(args, os.Stdin, interactive)
	if err != nil {
		return err
	}

	lib, err := loadLibrary(cfg)
	if err != nil {
		log.Warn("failed to load format library", "error", err)
	}

	// Ask for the rest only when the prompt itself was asked for.
	ask := interactive && len(args) == 0

	selected := formatFlags
	if ask && len(selected) == 0 && len(customFlags) == 0 {
		if selected, err = askFormats(lib); err != nil {
			return err
		}
	}
	reg, err := buildRegistry(log, lib, selected, customFlags)
	if err != nil {
		return err
	}

	style := styleFlag
	switch {
	case style != "":
		if !prompts.IsContextStyle(style) {
			return fmt.Errorf("unknown style %q (see 'promptfmt styles')", style)
		}
	case ask:
		if style, err = askStyle(canonicalStyle(cfg.ContextStyle)); err != nil {
			return err
		}
	default:
		style = cfg.ContextStyle
	}

	req := convert.Request{
		Prompt:  prompt,
		Formats: reg.Active(),
		Style:   canonicalStyle(style),
	}
	if !req.Ready() {
		return convert.ErrNotReady
	}

	provider, err := llm.NewProvider(cfg)
	if err != nil {
		return err
	}

	session := convert.NewSession(provider, convert.Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Stream:      cfg.Stream,
		Logger:      log,
	})
	if cfg.Stream && isatty.IsTerminal(os.Stderr.Fd()) {
		session.SetProgressCallback(func(p convert.Progress) {
			fmt.Fprintf(os.Stderr, "\rReceiving... %d chars", p.Chars)
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeoutFlag > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeoutFlag)
		defer cancel()
	}

	records, err := session.Submit(ctx, req)
	if cfg.Stream && isatty.IsTerminal(os.Stderr.Fd()) {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("conversion timed out after %s", timeoutFlag)
		}
		return errors.New(session.Error())
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "No formats recognised in the response.")
	}
	if jsonFlag {
		if err := writeJSON(out, records); err != nil {
			return err
		}
	} else {
		writeText(out, records)
	}

	if copyFlag && len(records) > 0 {
		if err := clipboard.WriteAll(records[0].Code); err != nil {
			return errors.Wrap(err, "failed to copy to clipboard")
		}
		fmt.Fprintf(os.Stderr, "Copied %s to clipboard\n", records[0].Title)
	}
	return nil
}

func loadLibrary(cfg *config.Config) ([]formats.Spec, error) {
	dir, err := cfg.FormatsPath()
	if err != nil {
		return nil, err
	}
	return formats.NewLibrary(dir).Load()
}

// readPrompt takes the prompt from args, then piped stdin, then asks.
func readPrompt(args []string, stdin io.Reader, interactive bool) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if !interactive {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.Wrap(err, "failed to read stdin")
		}
		return strings.TrimSpace(string(data)), nil
	}

	var prompt string
	q := &survey.Multiline{
		Message: "Enter the prompt to convert:",
		Help:    "Describe the data in plain language. Finish with an empty line.",
	}
	if err := survey.AskOne(q, &prompt, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return strings.TrimSpace(prompt), nil
}

func askFormats(lib []formats.Spec) ([]string, error) {
	var options []string
	options = append(options, formats.Predefined...)
	for _, s := range lib {
		options = append(options, s.Name)
	}

	var selected []string
	q := &survey.MultiSelect{
		Message: "Formats:",
		Options: options,
		Default: formats.Predefined,
	}
	if err := survey.AskOne(q, &selected, survey.WithValidator(survey.MinItems(1))); err != nil {
		return nil, err
	}
	return selected, nil
}

func askStyle(current string) (string, error) {
	var style string
	q := &survey.Select{
		Message: "Context style:",
		Options: prompts.ContextStyles,
		Default: current,
	}
	if err := survey.AskOne(q, &style); err != nil {
		return "", err
	}
	return style, nil
}

// buildRegistry loads library formats unselected, applies the selection and
// adds custom formats selected. An empty selection keeps the predefined
// defaults, unless custom formats were given, in which case only those run.
// Library files that clash with an earlier name are skipped.
func buildRegistry(log *slog.Logger, lib []formats.Spec, selected, custom []string) (*formats.Registry, error) {
	reg := formats.NewRegistry()
	for _, s := range lib {
		if _, err := reg.AddUnselected(s.Name, s.Instructions); err != nil {
			log.Warn("skipping library format", "name", s.Name, "error", err)
		}
	}

	if len(selected) > 0 || len(custom) > 0 {
		if unknown := reg.SelectOnly(selected); len(unknown) > 0 {
			return nil, fmt.Errorf("unknown format(s): %s (see 'promptfmt formats')", strings.Join(unknown, ", "))
		}
	}

	for _, c := range custom {
		name, instructions, err := parseCustom(c)
		if err != nil {
			return nil, err
		}
		if _, err := reg.Add(name, instructions); err != nil {
			return nil, errors.Wrapf(err, "custom format %q", name)
		}
	}
	return reg, nil
}

func parseCustom(s string) (string, string, error) {
	name, instructions, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	instructions = strings.TrimSpace(instructions)
	if !ok || name == "" || instructions == "" {
		return "", "", fmt.Errorf(`invalid custom format %q: want "Name=instructions"`, s)
	}
	return name, instructions, nil
}

func canonicalStyle(style string) string {
	for _, s := range prompts.ContextStyles {
		if strings.EqualFold(s, strings.TrimSpace(style)) {
			return s
		}
	}
	return prompts.DefaultContextStyle
}

func writeText(w io.Writer, records []parser.Record) {
	for i, r := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s ==\n", r.Title)
		if r.Description != "" {
			fmt.Fprintln(w, r.Description)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.TrimRight(r.Code, "\n"))
	}
}

func writeJSON(w io.Writer, records []parser.Record) error {
	if records == nil {
		records = []parser.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printFormats(w io.Writer, lib []formats.Spec) {
	fmt.Fprintln(w, "Predefined:")
	for _, name := range formats.Predefined {
		fmt.Fprintf(w, "  %-8s %s\n", name, formats.DisplayName(name))
	}
	if len(lib) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSaved:")
	for _, s := range lib {
		fmt.Fprintf(w, "  %s\n", s.Name)
	}
}

func printStyles(w io.Writer, current string) {
	for _, s := range prompts.ContextStyles {
		marker := " "
		if s == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\n", marker, s)
	}
}
