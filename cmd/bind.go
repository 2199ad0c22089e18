package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kritoooo/CodeEnvSwitch/internal/binding"
	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

var (
	flagBindTool        string
	flagBindProfile     string
	flagBindName        string
	flagBindType        string
	flagBindTag         string
	flagBindCwd         string
	flagBindSessionFile string
	flagBindSessionID   string
)

var bindCmd = &cobra.Command{
	Use:   "bind",
	Short: "Append profile binding entries",
}

var bindUseCmd = &cobra.Command{
	Use:   "use",
	Short: "Record that a profile was activated in this terminal",
	RunE:  runBindUse,
}

var bindSessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Attribute a session transcript to a profile",
	RunE:  runBindSession,
}

func init() {
	for _, c := range []*cobra.Command{bindUseCmd, bindSessionCmd} {
		c.Flags().StringVarP(&flagBindTool, "tool", "t", "", "Tool the binding applies to (claude or codex)")
		c.Flags().StringVarP(&flagBindProfile, "profile", "p", "", "Profile key")
		c.Flags().StringVar(&flagBindName, "name", "", "Profile display name")
		c.Flags().StringVar(&flagBindType, "type", "", "Profile type label")
		c.Flags().StringVar(&flagBindTag, "tag", "", "Terminal tag")
		c.Flags().StringVar(&flagBindCwd, "cwd", "", "Working directory")
		_ = c.MarkFlagRequired("tool")
	}
	bindSessionCmd.Flags().StringVar(&flagBindSessionFile, "session-file", "", "Transcript file path")
	bindSessionCmd.Flags().StringVar(&flagBindSessionID, "session-id", "", "Session identifier")

	bindCmd.AddCommand(bindUseCmd)
	bindCmd.AddCommand(bindSessionCmd)
	rootCmd.AddCommand(bindCmd)
}

func runBindUse(_ *cobra.Command, _ []string) error {
	return appendBinding(binding.Entry{
		Kind:        binding.KindUse,
		Tool:        flagBindTool,
		ProfileKey:  flagBindProfile,
		ProfileName: flagBindName,
		ProfileType: flagBindType,
		TerminalTag: flagBindTag,
		Cwd:         bindCwd(),
	})
}

func runBindSession(_ *cobra.Command, _ []string) error {
	if flagBindSessionFile == "" && flagBindSessionID == "" {
		return fmt.Errorf("a session binding needs --session-file or --session-id")
	}
	return appendBinding(binding.Entry{
		Kind:        binding.KindSession,
		Tool:        flagBindTool,
		ProfileKey:  flagBindProfile,
		ProfileName: flagBindName,
		ProfileType: flagBindType,
		TerminalTag: flagBindTag,
		Cwd:         bindCwd(),
		SessionFile: flagBindSessionFile,
		SessionID:   flagBindSessionID,
	})
}

func appendBinding(e binding.Entry) error {
	if !model.KnownTool(e.Tool) {
		return fmt.Errorf("unknown tool %q (expected one of %v)", e.Tool, model.Tools())
	}
	if e.ProfileKey == "" && e.ProfileName == "" {
		return fmt.Errorf("a binding needs --profile or --name")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := binding.NewLog(cfg.BindingLogPath()).Append(e); err != nil {
		return err
	}
	if !flagQuiet {
		fmt.Printf("Bound %s to %s.\n", e.Tool, firstNonEmpty(e.ProfileKey, e.ProfileName))
	}
	return nil
}

func bindCwd() string {
	if flagBindCwd != "" {
		return flagBindCwd
	}
	wd, _ := os.Getwd()
	return wd
}
