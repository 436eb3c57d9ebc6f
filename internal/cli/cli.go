// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/moly-tui/internal/ui/app"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	json       bool
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "moly",
		Short: "Terminal chat client for local and hosted language models",
		Long: `moly is a terminal chat client for Ollama and OpenAI-compatible providers.

Providers are configured in config.toml in the moly home directory
(~/.moly, or $MOLY_HOME). Edits to that file are picked up while the
TUI is running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Version = Version
	root.SetVersionTemplate(versionString() + "\n")

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default: $MOLY_HOME/config.toml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "override log_level (debug, info, warn, error)")
	pf.BoolVar(&flags.json, "json", false, "output JSON")

	root.AddCommand(
		newProvidersCommand(flags),
		newModelsCommand(flags),
		newPrefsCommand(flags),
		newChatsCommand(flags),
		newVersionCommand(flags),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func versionString() string {
	return fmt.Sprintf("moly %s (commit %s, built %s, %s/%s)",
		Version, GitCommit, BuildDate, runtime.GOOS, runtime.GOARCH)
}

// =============================================================================
// TUI
// =============================================================================

// ErrNotTerminal is returned when the TUI is started without a terminal.
var ErrNotTerminal = errors.New("moly needs an interactive terminal; see 'moly --help' for non-interactive commands")

func runTUI(cmd *cobra.Command, flags *globalFlags) error {
	if !IsTTY() || !IsStdoutTTY() {
		return ErrNotTerminal
	}

	e, err := bootstrap(cmd.Context(), flags)
	if err != nil {
		return err
	}
	defer e.Close()

	opts := app.Options{
		Store:           e.store,
		Streamer:        e.router,
		RefreshInterval: e.cfg.RefreshInterval(),
		RefreshOnStart:  true,
		ReloadProviders: e.reloadProviders,
		ReloadMCP:       e.reloadMCP,
		Logger:          e.logger,
	}
	// A missing watcher only disables hot reload.
	if w, err := e.watchConfig(); err != nil {
		e.logger.Warn("config hot reload disabled", zap.Error(err))
	} else {
		opts.ConfigWatcher = w
	}
	if w, err := e.watchMCP(); err != nil {
		e.logger.Warn("mcp hot reload disabled", zap.Error(err))
	} else {
		opts.McpWatcher = w
	}

	m := app.New(opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	m.Attach(p)

	e.logger.Info("tui started", zap.String("version", Version))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
