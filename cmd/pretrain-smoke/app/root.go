package app

import (
	"github.com/spf13/cobra"

	"github.com/zjy-dev/pretrain-smoke/internal/config"
)

// NewSmokeCommand creates the root command for the pretrain-smoke tool.
func NewSmokeCommand() *cobra.Command {
	var configName string

	cmd := &cobra.Command{
		Use:   "pretrain-smoke",
		Short: "Smoke test a pretraining script on a synthetic corpus.",
		Long: `pretrain-smoke builds a small synthetic corpus, runs a pretraining script
against it and checks that the script reports its GPU memory usage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configName, "config", config.DefaultConfigName,
		"config file base name, looked up as configs/<name>.yaml")

	cmd.AddCommand(NewRunCommand(&configName))
	cmd.AddCommand(NewCorpusCommand(&configName))

	return cmd
}
