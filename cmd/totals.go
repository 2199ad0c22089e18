package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kritoooo/CodeEnvSwitch/internal/aggregate"
	"github.com/Kritoooo/CodeEnvSwitch/internal/cli"
	"github.com/Kritoooo/CodeEnvSwitch/internal/ledger"
)

var (
	flagTotalsTool    string
	flagTotalsProfile string
	flagTotalsName    string
	flagTotalsNoSync  bool
)

var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Today/total token usage per profile",
	RunE:  runTotals,
}

func init() {
	totalsCmd.Flags().StringVarP(&flagTotalsTool, "tool", "t", "", "Tool to query (claude or codex)")
	totalsCmd.Flags().StringVarP(&flagTotalsProfile, "profile", "p", "", "Profile key to look up")
	totalsCmd.Flags().StringVar(&flagTotalsName, "name", "", "Profile display name to look up")
	totalsCmd.Flags().BoolVar(&flagTotalsNoSync, "no-sync", false, "Skip the sync pass, query the ledger as-is")
	rootCmd.AddCommand(totalsCmd)
}

func runTotals(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !flagTotalsNoSync {
		syncQuietly(cfg)
	}

	records, err := ledger.New(cfg.LedgerPath()).ReadAll()
	if err != nil {
		return err
	}
	idx := aggregate.BuildTotals(records)

	if flagTotalsProfile != "" || flagTotalsName != "" {
		if flagTotalsTool == "" {
			return fmt.Errorf("--tool is required with --profile or --name")
		}
		t, ok := aggregate.LookupTotals(idx, flagTotalsTool, flagTotalsProfile, flagTotalsName)
		if !ok {
			fmt.Println("No usage recorded for that profile.")
			return nil
		}
		printTotals(flagTotalsTool, firstNonEmpty(flagTotalsProfile, flagTotalsName), t)
		return nil
	}

	keys := idx.Keys()
	if len(keys) == 0 {
		fmt.Println("No usage recorded yet. Bind a session and run sync.")
		return nil
	}
	for _, k := range keys {
		tool, id := splitIndexKey(k)
		printTotals(tool, id, idx.ByKey[k])
	}
	return nil
}

func printTotals(tool, id string, t aggregate.Totals) {
	fmt.Printf("%s/%s\n", tool, id)
	fmt.Printf("  Today  %8s tokens  (in %s, out %s, cache r/w %s/%s)\n",
		cli.FormatTokens(t.Tokens.Today),
		cli.FormatTokens(t.Input.Today), cli.FormatTokens(t.Output.Today),
		cli.FormatTokens(t.CacheRead.Today), cli.FormatTokens(t.CacheWrite.Today))
	fmt.Printf("  Total  %8s tokens  (in %s, out %s, cache r/w %s/%s)  %s records\n",
		cli.FormatTokens(t.Tokens.Total),
		cli.FormatTokens(t.Input.Total), cli.FormatTokens(t.Output.Total),
		cli.FormatTokens(t.CacheRead.Total), cli.FormatTokens(t.CacheWrite.Total),
		cli.FormatNumber(int64(t.Records)))
}

func splitIndexKey(k string) (tool, id string) {
	if i := strings.Index(k, "||"); i >= 0 {
		return k[:i], k[i+2:]
	}
	return "", k
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
