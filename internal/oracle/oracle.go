package oracle

import (
	"fmt"
	"strings"
)

// Result represents the execution result that needs to be analyzed.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Verdict is the outcome of analyzing a Result.
type Verdict struct {
	Passed      bool
	Oracle      string
	Description string
	Result      Result
	// ExitCodeIgnored is set when the process exited non-zero but the
	// oracle was configured not to let that affect the decision.
	ExitCodeIgnored bool
}

// Oracle decides whether an external process run passed.
type Oracle interface {
	// Analyze returns a Verdict for the result. An error means the
	// oracle itself could not decide, not that the run failed.
	Analyze(res Result) (*Verdict, error)
}

// Contains reports whether substr occurs in output. The match is exact and
// case-sensitive.
func Contains(output, substr string) bool {
	return strings.Contains(output, substr)
}

// IsCrashExit determines if an exit code indicates a crash.
// Common crash signals: SIGSEGV (11), SIGBUS (7), SIGABRT (6), SIGFPE (8), SIGILL (4)
// Signal deaths are reported as 128 + signal number, both by shells and by
// internal/exec.
func IsCrashExit(exitCode int) bool {
	crashSignals := map[int]bool{
		128 + 4:  true, // SIGILL
		128 + 6:  true, // SIGABRT
		128 + 7:  true, // SIGBUS
		128 + 8:  true, // SIGFPE
		128 + 11: true, // SIGSEGV
	}
	return crashSignals[exitCode]
}

// DescribeOutput renders the captured output for a failure diagnostic.
func DescribeOutput(res Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "exit code: %d\n", res.ExitCode)
	b.WriteString("--- stdout ---\n")
	b.WriteString(res.Stdout)
	if !strings.HasSuffix(res.Stdout, "\n") {
		b.WriteString("\n")
	}
	if res.Stderr != "" {
		b.WriteString("--- stderr ---\n")
		b.WriteString(res.Stderr)
		if !strings.HasSuffix(res.Stderr, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Chain runs oracles in order and returns the first failing verdict.
// If every oracle passes, the last verdict is returned with
// ExitCodeIgnored merged across the chain.
type Chain []Oracle

// Analyze implements Oracle.
func (c Chain) Analyze(res Result) (*Verdict, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("empty oracle chain")
	}

	var last *Verdict
	ignored := false
	for _, o := range c {
		v, err := o.Analyze(res)
		if err != nil {
			return nil, err
		}
		if !v.Passed {
			return v, nil
		}
		ignored = ignored || v.ExitCodeIgnored
		last = v
	}
	last.ExitCodeIgnored = ignored
	return last, nil
}
