package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notelens-ai/notelens/internal/config"
	"github.com/notelens-ai/notelens/internal/framework"
)

var frameworksFlags struct {
	configPath string
}

var frameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "Inspect and validate compliance frameworks",
}

var frameworksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List builtin and configured frameworks",
	RunE:  runFrameworksList,
}

var frameworksValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a framework YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFrameworksValidate,
}

func init() {
	frameworksCmd.PersistentFlags().StringVar(&frameworksFlags.configPath, "config", "notelens.yaml", "Path to config file")
	frameworksCmd.AddCommand(frameworksListCmd)
	frameworksCmd.AddCommand(frameworksValidateCmd)
}

func runFrameworksList(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(frameworksFlags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := framework.NewStore(cfg.Frameworks.Dir)
	if err != nil {
		return fmt.Errorf("frameworks: %w", err)
	}

	for _, fw := range store.List() {
		fmt.Printf("%-24s v%-8s %-12s %2d elements  [%s]\n", fw.ID, fw.Version, fw.Regulator, fw.Elements, fw.Source)
	}
	return nil
}

func runFrameworksValidate(_ *cobra.Command, args []string) error {
	def, err := framework.Load(args[0])
	if err != nil {
		return err
	}
	required := 0
	for _, el := range def.Elements {
		if el.Required {
			required++
		}
	}
	fmt.Printf("%s v%s: %d elements (%d required), %d meeting-type overrides\n",
		def.ID, def.Version, len(def.Elements), required, len(def.MeetingTypeOverrides))
	return nil
}
