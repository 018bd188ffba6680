package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

var (
	// ErrLaunch reports that the command could not be started at all
	// (not found, not executable, bad working directory).
	ErrLaunch = errors.New("failed to launch command")
	// ErrTimeout reports that the command was killed after exceeding its timeout.
	ErrTimeout = errors.New("command timed out")
)

// defaultWaitDelay bounds how long Run waits for inherited pipes
// to close once a timed-out child has been killed.
const defaultWaitDelay = 5 * time.Second

// ExecutionResult holds the outcome of a command execution.
type ExecutionResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Executor defines an interface for running external commands.
// This allows for mocking in tests.
type Executor interface {
	Run(ctx context.Context, command string, args ...string) (*ExecutionResult, error)
}

// Option configures a CommandExecutor.
type Option func(*CommandExecutor)

// WithDir sets the working directory of the child process.
func WithDir(dir string) Option {
	return func(e *CommandExecutor) {
		e.dir = dir
	}
}

// WithTimeout kills the child process once d has elapsed. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *CommandExecutor) {
		e.timeout = d
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(e *CommandExecutor) {
		e.env = append(e.env, env...)
	}
}

// WithWaitDelay overrides how long to wait for output pipes after a kill.
func WithWaitDelay(d time.Duration) Option {
	return func(e *CommandExecutor) {
		e.waitDelay = d
	}
}

// CommandExecutor is a concrete implementation of the Executor interface
// that runs actual commands on the host system.
type CommandExecutor struct {
	dir       string
	timeout   time.Duration
	env       []string
	waitDelay time.Duration
}

// NewCommandExecutor creates a new CommandExecutor.
func NewCommandExecutor(opts ...Option) *CommandExecutor {
	e := &CommandExecutor{waitDelay: defaultWaitDelay}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the given command and returns its result.
//
// A non-zero exit code is not an error. A timeout returns the partial
// result together with an error wrapping ErrTimeout; a start failure returns
// a nil result and an error wrapping ErrLaunch. A child killed by a signal
// reports 128 + the signal number, as a shell would.
func (e *CommandExecutor) Run(ctx context.Context, command string, args ...string) (*ExecutionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("command %s not started: %w", command, err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = e.dir
	if len(e.env) > 0 {
		cmd.Env = append(os.Environ(), e.env...)
	}
	cmd.WaitDelay = e.waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	result := &ExecutionResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = exitCode(cmd.ProcessState)
	}

	if err == nil {
		return result, nil
	}

	if cmd.ProcessState == nil && !errors.Is(err, exec.ErrWaitDelay) {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("command %s not started: %w", command, ctx.Err())
		}
		return nil, fmt.Errorf("%w %s: %w", ErrLaunch, command, err)
	}

	// Once the process has started, a context error means we killed it.
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return result, fmt.Errorf("%w after %s: %s", ErrTimeout, result.Duration.Round(time.Millisecond), command)
	case ctx.Err() != nil:
		return result, fmt.Errorf("command %s interrupted: %w", command, ctx.Err())
	}

	// cmd.Run() returns an error for non-zero exit codes, but we handle
	// the exit code explicitly. ErrWaitDelay means the child exited while
	// a descendant still held its output pipes.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) || errors.Is(err, exec.ErrWaitDelay) {
		return result, nil
	}

	return result, fmt.Errorf("command %s failed: %w", command, err)
}
