package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kritoooo/CodeEnvSwitch/internal/aggregate"
	"github.com/Kritoooo/CodeEnvSwitch/internal/cli"
	"github.com/Kritoooo/CodeEnvSwitch/internal/ledger"
	"github.com/Kritoooo/CodeEnvSwitch/internal/pipeline"
	"github.com/Kritoooo/CodeEnvSwitch/internal/source"
)

var (
	flagStatusTool    string
	flagStatusProfile string
	flagStatusName    string
	flagStatusTag     string
	flagStatusCwd     string
)

var statuslineCmd = &cobra.Command{
	Use:   "statusline",
	Short: "Record live usage from a status line hook and echo totals",
	Long:  "Reads the tool's status line JSON from stdin, records the usage delta against the active profile, and prints a one-line summary for the status bar.",
	RunE:  runStatusline,
}

func init() {
	statuslineCmd.Flags().StringVarP(&flagStatusTool, "tool", "t", "", "Tool emitting the status payload (claude or codex)")
	statuslineCmd.Flags().StringVarP(&flagStatusProfile, "profile", "p", "", "Active profile key")
	statuslineCmd.Flags().StringVar(&flagStatusName, "name", "", "Active profile display name")
	statuslineCmd.Flags().StringVar(&flagStatusTag, "tag", "", "Terminal tag for multi-terminal setups")
	statuslineCmd.Flags().StringVar(&flagStatusCwd, "cwd", "", "Working directory override")
	_ = statuslineCmd.MarkFlagRequired("tool")
	rootCmd.AddCommand(statuslineCmd)
}

func runStatusline(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading status input: %w", err)
	}

	in, err := source.ParseStatusInput(flagStatusTool, data)
	if err != nil {
		return err
	}

	env := pipeline.Env{
		Tool:        flagStatusTool,
		ProfileKey:  flagStatusProfile,
		ProfileName: flagStatusName,
		WorkingDir:  flagStatusCwd,
		TerminalTag: flagStatusTag,
	}

	res, err := pipeline.RecordIncremental(cfg, env, in)
	if err != nil {
		return err
	}
	if res.Skipped && !flagQuiet {
		fmt.Fprintln(os.Stderr, "  sync lock held, observation dropped")
	}

	// Echo today's totals for the renderer even when nothing was appended.
	records, err := ledger.New(cfg.LedgerPath()).ReadAll()
	if err != nil {
		return err
	}

	idx := aggregate.BuildTotals(records)
	t, _ := aggregate.LookupTotals(idx, flagStatusTool, flagStatusProfile, flagStatusName)

	line := fmt.Sprintf("%s today", cli.FormatTokens(t.Tokens.Today))
	cidx := aggregate.BuildCost(records, cfg)
	if c, ok := aggregate.LookupCost(cidx, flagStatusTool, flagStatusProfile, flagStatusName); ok && c.Today > 0 {
		line += " " + cli.FormatCost(c.Today)
	}
	fmt.Println(line)
	return nil
}
