package smoke

import (
	"fmt"

	"github.com/zjy-dev/pretrain-smoke/internal/config"
	"github.com/zjy-dev/pretrain-smoke/internal/corpus"
	"github.com/zjy-dev/pretrain-smoke/internal/exec"
	"github.com/zjy-dev/pretrain-smoke/internal/logger"
	"github.com/zjy-dev/pretrain-smoke/internal/oracle"
)

// NewRunnerFromConfig wires a Runner from loaded configuration. Oracle
// plugins must be registered by the caller (import internal/oracle/plugins).
func NewRunnerFromConfig(cfg *config.Config, log *logger.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chain, err := oracle.NewChain(cfg.Oracle.Checks, cfg.Oracle.Options())
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle: %w", err)
	}

	corpusPath := cfg.CorpusLocation()
	if cfg.Corpus.Temp {
		corpusPath = cfg.Corpus.Path
	}

	run := cfg.Run
	return NewRunner(Config{
		Builder: corpus.NewBuilder(nil),
		NewExecutor: func(dir string) exec.Executor {
			return exec.NewCommandExecutor(
				exec.WithDir(dir),
				exec.WithTimeout(run.Timeout),
				exec.WithEnv(run.Env...),
			)
		},
		Oracle:      chain,
		Logger:      log,
		CorpusPath:  corpusPath,
		Sequence:    cfg.Corpus.Sequence,
		Repetitions: cfg.Corpus.Repetitions,
		TempCorpus:  cfg.Corpus.Temp,
		WorkDir:     run.WorkDir,
		Executable:  run.Executable,
		Args:        run.Args,
	}), nil
}
