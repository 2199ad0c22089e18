package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kritoooo/CodeEnvSwitch/internal/pipeline"
)

var flagResetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe the usage ledger and sync state",
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&flagResetYes, "yes", "y", false, "Confirm the wipe")
	rootCmd.AddCommand(resetCmd)
}

func runReset(_ *cobra.Command, _ []string) error {
	if !flagResetYes {
		return fmt.Errorf("reset deletes all recorded usage; re-run with --yes to confirm")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	done, err := pipeline.Reset(cfg)
	if err != nil {
		return err
	}
	if !done {
		fmt.Println("A sync pass holds the lock; try again in a moment.")
		return nil
	}
	fmt.Println("Ledger and state cleared. Binding log kept.")
	return nil
}
