package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List configured profiles",
	RunE:  runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

func runProfiles(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Profiles) == 0 {
		fmt.Println("No profiles configured. Add [profiles.<key>] sections to the config file.")
		return nil
	}

	keys := make([]string, 0, len(cfg.Profiles))
	for k := range cfg.Profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		p := cfg.Profiles[k]
		fmt.Printf("%-20s", k)
		if p.Name != "" {
			fmt.Printf("  %s", p.Name)
		}
		if p.Type != "" {
			fmt.Printf("  (%s)", p.Type)
		}
		if p.Model != "" {
			fmt.Printf("  model=%s", p.Model)
		}
		if p.Multiplier != nil {
			fmt.Printf("  x%g", *p.Multiplier)
		}
		fmt.Println()
	}
	return nil
}
