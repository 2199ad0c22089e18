package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kritoooo/CodeEnvSwitch/internal/aggregate"
	"github.com/Kritoooo/CodeEnvSwitch/internal/cli"
	"github.com/Kritoooo/CodeEnvSwitch/internal/ledger"
)

var (
	flagCostsTool    string
	flagCostsProfile string
	flagCostsName    string
	flagCostsNoSync  bool
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Today/total USD cost per profile",
	RunE:  runCosts,
}

func init() {
	costsCmd.Flags().StringVarP(&flagCostsTool, "tool", "t", "", "Tool to query (claude or codex)")
	costsCmd.Flags().StringVarP(&flagCostsProfile, "profile", "p", "", "Profile key to look up")
	costsCmd.Flags().StringVar(&flagCostsName, "name", "", "Profile display name to look up")
	costsCmd.Flags().BoolVar(&flagCostsNoSync, "no-sync", false, "Skip the sync pass, query the ledger as-is")
	rootCmd.AddCommand(costsCmd)
}

func runCosts(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !flagCostsNoSync {
		syncQuietly(cfg)
	}

	records, err := ledger.New(cfg.LedgerPath()).ReadAll()
	if err != nil {
		return err
	}
	idx := aggregate.BuildCost(records, cfg)

	if flagCostsProfile != "" || flagCostsName != "" {
		if flagCostsTool == "" {
			return fmt.Errorf("--tool is required with --profile or --name")
		}
		c, ok := aggregate.LookupCost(idx, flagCostsTool, flagCostsProfile, flagCostsName)
		if !ok {
			fmt.Println("No usage recorded for that profile.")
			return nil
		}
		printCost(flagCostsTool, firstNonEmpty(flagCostsProfile, flagCostsName), c)
		return nil
	}

	keys := idx.Keys()
	if len(keys) == 0 {
		fmt.Println("No usage recorded yet. Bind a session and run sync.")
		return nil
	}
	for _, k := range keys {
		tool, id := splitIndexKey(k)
		printCost(tool, id, idx.ByKey[k])
	}
	return nil
}

func printCost(tool, id string, c aggregate.CostTotals) {
	fmt.Printf("%s/%s  today %s  total %s", tool, id,
		cli.FormatCost(c.Today), cli.FormatCost(c.Total))
	if c.Unpriced > 0 {
		fmt.Printf("  (%d records without pricing)", c.Unpriced)
	}
	fmt.Println()
}
