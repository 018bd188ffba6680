package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/pretrain-smoke/internal/config"
	"github.com/zjy-dev/pretrain-smoke/internal/corpus"
)

// NewCorpusCommand creates the "corpus" subcommand.
func NewCorpusCommand(configName *string) *cobra.Command {
	var (
		path        string
		sequence    string
		repetitions int
	)

	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Only write the synthetic corpus.",
		Long: `Write the synthetic corpus without running the pretraining script.
Missing directories are created and an existing file is overwritten.

Examples:
  pretrain-smoke corpus
  pretrain-smoke corpus --path data/tiny.txt --sequence "x y " --repetitions 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configName)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			target := cfg.CorpusLocation()
			if cmd.Flags().Changed("path") {
				target = path
			}
			if !cmd.Flags().Changed("sequence") {
				sequence = cfg.Corpus.Sequence
			}
			if !cmd.Flags().Changed("repetitions") {
				repetitions = cfg.Corpus.Repetitions
			}

			if err := corpus.NewBuilder(nil).Build(target, sequence, repetitions); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(sequence)*repetitions, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Corpus file path (overrides config)")
	cmd.Flags().StringVar(&sequence, "sequence", "", "Sequence to repeat (overrides config)")
	cmd.Flags().IntVar(&repetitions, "repetitions", 0, "Number of repetitions (overrides config)")

	return cmd
}
