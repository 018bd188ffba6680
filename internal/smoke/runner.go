// Package smoke runs the pretraining smoke check: build the synthetic corpus,
// run the training script, and judge its captured output.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/zjy-dev/pretrain-smoke/internal/corpus"
	"github.com/zjy-dev/pretrain-smoke/internal/exec"
	"github.com/zjy-dev/pretrain-smoke/internal/logger"
	"github.com/zjy-dev/pretrain-smoke/internal/oracle"
)

// Stage names the pipeline step an error came from.
type Stage string

const (
	StageSetup   Stage = "setup"
	StageLaunch  Stage = "launch"
	StageTimeout Stage = "timeout"
	StageRun     Stage = "run"
	StageOracle  Stage = "oracle"
	StageCleanup Stage = "cleanup"
)

// StageError is returned when the pipeline could not reach a verdict.
// An oracle failure is not a StageError: it is reported in Outcome.Verdict.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the stage of the first StageError in err's chain.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// ExecutorFactory returns an executor that runs in dir.
type ExecutorFactory func(dir string) exec.Executor

// Config holds the components and parameters of a run.
type Config struct {
	Builder     *corpus.Builder
	NewExecutor ExecutorFactory
	Oracle      oracle.Oracle
	Logger      *logger.Logger

	CorpusPath  string
	Sequence    string
	Repetitions int
	// TempCorpus builds the corpus at CorpusPath relative to a fresh temp
	// directory, runs the script there, and removes the directory afterwards.
	// Relative script paths are resolved against WorkDir (or the current
	// directory) first.
	TempCorpus bool
	WorkDir    string

	Executable string
	Args       []string
}

// Outcome records what happened during a run.
type Outcome struct {
	CorpusPath string
	WorkDir    string
	Command    []string
	Result     *exec.ExecutionResult
	Verdict    *oracle.Verdict
	StartedAt  time.Time
	Duration   time.Duration
}

// Passed reports whether a verdict was reached and it passed.
func (o *Outcome) Passed() bool {
	return o != nil && o.Verdict != nil && o.Verdict.Passed
}

// Runner executes the smoke pipeline once per Run call.
type Runner struct {
	cfg Config
	log *logger.Logger
}

// NewRunner creates a Runner. A nil Builder means the OS filesystem and a nil
// Logger means the package default.
func NewRunner(cfg Config) *Runner {
	if cfg.Builder == nil {
		cfg.Builder = corpus.NewBuilder(nil)
	}
	if cfg.NewExecutor == nil {
		cfg.NewExecutor = func(dir string) exec.Executor {
			return exec.NewCommandExecutor(exec.WithDir(dir))
		}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Runner{cfg: cfg, log: log}
}

// Run builds the corpus, runs the external process and analyzes its output.
// The returned Outcome is never nil. A non-nil error is a *StageError (or a
// combination including one when temp cleanup also failed).
func (r *Runner) Run(ctx context.Context) (out *Outcome, err error) {
	out = &Outcome{
		StartedAt: time.Now(),
		WorkDir:   r.cfg.WorkDir,
		Command:   append([]string{r.cfg.Executable}, r.cfg.Args...),
	}
	defer func() { out.Duration = time.Since(out.StartedAt) }()

	if r.cfg.Oracle == nil {
		return out, &StageError{Stage: StageOracle, Err: errors.New("no oracle configured")}
	}

	command, args := r.cfg.Executable, r.cfg.Args
	if r.cfg.TempCorpus {
		base, baseErr := r.baseDir()
		if baseErr != nil {
			return out, &StageError{Stage: StageSetup, Err: baseErr}
		}
		command, args = r.resolveScriptPaths(base)
		out.Command = append([]string{command}, args...)

		tc, buildErr := r.cfg.Builder.BuildTemp(r.cfg.CorpusPath, r.cfg.Sequence, r.cfg.Repetitions)
		if buildErr != nil {
			return out, &StageError{Stage: StageSetup, Err: buildErr}
		}
		defer func() {
			if cerr := tc.Cleanup(); cerr != nil {
				err = multierr.Append(err, &StageError{Stage: StageCleanup, Err: cerr})
			} else {
				r.log.Debug("Removed temp corpus directory %s", tc.Dir())
			}
		}()
		out.WorkDir = tc.Dir()
		out.CorpusPath = tc.Path()
	} else {
		if buildErr := r.cfg.Builder.Build(r.cfg.CorpusPath, r.cfg.Sequence, r.cfg.Repetitions); buildErr != nil {
			return out, &StageError{Stage: StageSetup, Err: buildErr}
		}
		out.CorpusPath = r.cfg.CorpusPath
	}
	r.log.Info("Corpus written to %s (%d x %q)", out.CorpusPath, r.cfg.Repetitions, r.cfg.Sequence)

	r.log.Info("Running %v in %s", out.Command, displayDir(out.WorkDir))
	res, runErr := r.cfg.NewExecutor(out.WorkDir).Run(ctx, command, args...)
	out.Result = res
	if runErr != nil {
		if res != nil {
			r.log.Block(logger.ERROR, "partial stdout", res.Stdout)
			r.log.Block(logger.ERROR, "partial stderr", res.Stderr)
		}
		return out, &StageError{Stage: classify(runErr), Err: runErr}
	}
	r.log.Info("Process exited with code %d after %s", res.ExitCode, res.Duration.Round(time.Millisecond))

	// Output goes to the log before the verdict so it is never swallowed.
	r.log.Block(logger.INFO, "stdout", res.Stdout)
	if res.Stderr != "" {
		r.log.Block(logger.INFO, "stderr", res.Stderr)
	}

	verdict, oracleErr := r.cfg.Oracle.Analyze(oracle.Result{
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		ExitCode: res.ExitCode,
	})
	if oracleErr != nil {
		return out, &StageError{Stage: StageOracle, Err: oracleErr}
	}
	out.Verdict = verdict

	if verdict.ExitCodeIgnored {
		r.log.Warn("Process exited with code %d; exit code does not affect the verdict", res.ExitCode)
	}
	if verdict.Passed {
		r.log.Info("PASS [%s]: %s", verdict.Oracle, verdict.Description)
	} else {
		r.log.Error("FAIL [%s]: %s", verdict.Oracle, verdict.Description)
	}
	return out, nil
}

// baseDir is the directory the script would run from without a temp corpus.
func (r *Runner) baseDir() (string, error) {
	if r.cfg.WorkDir != "" {
		dir, err := filepath.Abs(r.cfg.WorkDir)
		if err != nil {
			return "", fmt.Errorf("failed to resolve working directory %s: %w", r.cfg.WorkDir, err)
		}
		return dir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return dir, nil
}

// resolveScriptPaths makes relative paths absolute against base, so the
// script and its file arguments are still found once the process runs from
// the temp directory. A relative executable is rewritten only when it
// contains a path separator; bare names are left to PATH lookup. Arguments
// are rewritten only when they name an existing file under base.
func (r *Runner) resolveScriptPaths(base string) (string, []string) {
	command := r.cfg.Executable
	if strings.ContainsRune(command, filepath.Separator) && !filepath.IsAbs(command) {
		command = filepath.Join(base, command)
	}

	fs := r.cfg.Builder.Fs()
	args := make([]string, len(r.cfg.Args))
	for i, arg := range r.cfg.Args {
		args[i] = arg
		if arg == "" || strings.HasPrefix(arg, "-") || filepath.IsAbs(arg) {
			continue
		}
		candidate := filepath.Join(base, arg)
		if ok, _ := afero.Exists(fs, candidate); ok {
			args[i] = candidate
		}
	}
	return command, args
}

func classify(err error) Stage {
	switch {
	case errors.Is(err, exec.ErrTimeout):
		return StageTimeout
	case errors.Is(err, exec.ErrLaunch):
		return StageLaunch
	default:
		return StageRun
	}
}

func displayDir(dir string) string {
	if dir == "" {
		return "current directory"
	}
	return dir
}
