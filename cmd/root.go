// Package cmd wires the codeenvswitch CLI surface: profile binding,
// session log syncing and usage queries.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kritoooo/CodeEnvSwitch/internal/config"
	"github.com/Kritoooo/CodeEnvSwitch/internal/pipeline"
)

var (
	flagConfig    string
	flagDataDir   string
	flagClaudeDir string
	flagCodexDir  string
	flagQuiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "codeenvswitch",
	Short: "Profile-aware usage tracking for Claude Code and Codex",
	Long:  "Bind CLI coding sessions to profiles, sync their transcripts into a usage ledger, and query per-profile token and cost totals.",
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: XDG config dir)")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Data directory for ledger and state")
	rootCmd.PersistentFlags().StringVar(&flagClaudeDir, "claude-dir", "", "Claude Code data directory")
	rootCmd.PersistentFlags().StringVar(&flagCodexDir, "codex-dir", "", "Codex CLI data directory")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadConfig is the shared configuration path used by all commands.
// Flags override file-level directory settings.
func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFrom(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}

	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}
	if flagClaudeDir != "" {
		cfg.General.ClaudeDir = flagClaudeDir
	}
	if flagCodexDir != "" {
		cfg.General.CodexDir = flagCodexDir
	}
	return cfg, nil
}

// syncQuietly runs a sync pass before a query so answers reflect the
// session logs on disk. Lock contention is fine; stale data still answers.
func syncQuietly(cfg config.Config) {
	res, err := pipeline.Sync(cfg)
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  sync failed: %v\n", err)
		}
		return
	}
	if res.Skipped && !flagQuiet {
		fmt.Fprintln(os.Stderr, "  sync in progress elsewhere, using existing ledger")
	}
}
