// Package cli implements the drover command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/droverhq/drover/config"
)

var configPath string

// NewRootCmd creates the top-level drover command with all subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drover",
		Short: "Agentic tool-execution orchestrator",
		Long: `Drover runs autonomous tool-calling loops against Anthropic, OpenAI,
or Google models, with an auditable event trail and persisted run records.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (YAML)")

	cmd.AddCommand(
		newServeCmd(),
		newRunCmd(),
		newRunsCmd(),
	)

	return cmd
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
