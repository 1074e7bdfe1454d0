package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sant0-9/promptfmt/internal/config"
	"github.com/sant0-9/promptfmt/internal/theme"
	"github.com/sant0-9/promptfmt/internal/tui"
	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "promptfmt",
	Short: "Convert a plain prompt into structured data formats",
	Long: `promptfmt asks an LLM to restate a natural-language prompt as JSON, TOON,
YAML, CSV, XML, TOML or any custom format you describe, and shows one panel per
rendering.

Run without arguments for the interactive terminal UI, or use "promptfmt convert"
for one-shot conversions in scripts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		return runTUI(debug)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "promptfmt version %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built: %s\n", date)
		fmt.Fprintf(out, "  go version: %s\n", runtime.Version())
		fmt.Fprintf(out, "  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(stylesCmd)

	rootCmd.PersistentFlags().Bool("debug", false, "write debug logs (TUI: ~/.config/promptfmt/debug.log, CLI: stderr)")
}

func debugEnabled(flag bool) bool {
	return flag || os.Getenv("PROMPTFMT_DEBUG") != ""
}

// tuiLogger writes to a file because the TUI owns the terminal. Without debug
// it discards everything.
func tuiLogger(debug bool) (*slog.Logger, func(), error) {
	if !debugEnabled(debug) {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, err
	}

	f, err := tea.LogToFile(filepath.Join(dir, "debug.log"), "promptfmt")
	if err != nil {
		return nil, nil, err
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return log, func() { f.Close() }, nil
}

// cliLogger writes to stderr: warnings only, or everything with debug.
func cliLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debugEnabled(debug) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runTUI(debug bool) error {
	log, closeLog, err := tuiLogger(debug)
	if err != nil {
		return fmt.Errorf("failed to open debug log: %w", err)
	}
	defer closeLog()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app := tui.NewApp(tui.Options{
		Config:     cfg,
		Logger:     log,
		DetectDark: theme.DetectDark,
	})
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	app.SetProgram(p)

	log.Info("starting", "version", version, "setup", cfg == nil)
	_, err = p.Run()
	return err
}

func main() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
