package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/pretrain-smoke/internal/exec"
	"github.com/zjy-dev/pretrain-smoke/internal/oracle"
	"github.com/zjy-dev/pretrain-smoke/internal/smoke"
)

func passingOutcome() *smoke.Outcome {
	stdout := "Epoch 1\nMaximum GPU memory allocated: 512 MB\n"
	return &smoke.Outcome{
		CorpusPath: "gutenberg/data/repeated_sequence.txt",
		WorkDir:    "/work",
		Command:    []string{"python", "pretraining_simple.py", "--debug", "true"},
		Result:     &exec.ExecutionResult{Stdout: stdout, ExitCode: 0, Duration: time.Second},
		Verdict: &oracle.Verdict{
			Passed:      true,
			Oracle:      "contains",
			Description: `found "Maximum GPU memory allocated" in stdout`,
			Result:      oracle.Result{Stdout: stdout},
		},
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
	}
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "PASS", Status(passingOutcome(), nil))

	failed := passingOutcome()
	failed.Verdict.Passed = false
	assert.Equal(t, "FAIL", Status(failed, nil))

	launchErr := &smoke.StageError{Stage: smoke.StageLaunch, Err: exec.ErrLaunch}
	assert.Equal(t, "ERROR (launch)", Status(&smoke.Outcome{}, launchErr))
	assert.Equal(t, "ERROR", Status(&smoke.Outcome{}, fmt.Errorf("plain")))
}

func TestRender(t *testing.T) {
	md := Render(passingOutcome(), nil)

	assert.True(t, strings.HasPrefix(md, "# Smoke Run: PASS\n"))
	assert.Contains(t, md, "`python pretraining_simple.py --debug true`")
	assert.Contains(t, md, "2026-01-02T03:04:05Z")
	assert.Contains(t, md, "**Oracle:** contains")
	assert.Contains(t, md, "Maximum GPU memory allocated: 512 MB")
	assert.NotContains(t, md, "## Error")
}

func TestRender_Error(t *testing.T) {
	out := &smoke.Outcome{Command: []string{"missing"}}
	md := Render(out, &smoke.StageError{Stage: smoke.StageLaunch, Err: fmt.Errorf("not found")})

	assert.Contains(t, md, "# Smoke Run: ERROR (launch)")
	assert.Contains(t, md, "launch failed: not found")
	assert.NotContains(t, md, "## Verdict")
	assert.NotContains(t, md, "## Execution Result")
}

func TestMarkdownReporter_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	reporter := NewMarkdownReporter(dir)

	path, err := reporter.Save(passingOutcome(), nil)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "smoke_"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Smoke Run: PASS")
}
