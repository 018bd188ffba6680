package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContains(t *testing.T) {
	const want = "Maximum GPU memory allocated"

	tests := []struct {
		name     string
		output   string
		expected bool
	}{
		{name: "at start", output: "Maximum GPU memory allocated: 512 MB", expected: true},
		{name: "in middle", output: "Epoch 1\nMaximum GPU memory allocated: 512 MB\n", expected: true},
		{name: "at end", output: "done. Maximum GPU memory allocated", expected: true},
		{name: "full match", output: want, expected: true},
		{name: "empty", output: "", expected: false},
		{name: "unrelated", output: "Epoch 1\nTraining complete\n", expected: false},
		{name: "different casing", output: "maximum gpu memory allocated: 512 MB", expected: false},
		{name: "truncated", output: "Maximum GPU memory alloc", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Contains(tt.output, want))
		})
	}
}

func TestIsCrashExit(t *testing.T) {
	assert.True(t, IsCrashExit(139))
	assert.True(t, IsCrashExit(134))
	assert.False(t, IsCrashExit(0))
	assert.False(t, IsCrashExit(1))
	assert.False(t, IsCrashExit(137)) // SIGKILL is not a crash
}

func TestDescribeOutput(t *testing.T) {
	t.Run("stdout only", func(t *testing.T) {
		got := DescribeOutput(Result{Stdout: "Epoch 1\nTraining complete\n", ExitCode: 0})
		assert.Contains(t, got, "Epoch 1\nTraining complete\n")
		assert.Contains(t, got, "exit code: 0")
		assert.NotContains(t, got, "--- stderr ---")
	})

	t.Run("with stderr and no trailing newline", func(t *testing.T) {
		got := DescribeOutput(Result{Stdout: "out", Stderr: "Traceback", ExitCode: 1})
		assert.Contains(t, got, "--- stdout ---\nout\n")
		assert.Contains(t, got, "--- stderr ---\nTraceback\n")
	})
}

type fixedOracle struct {
	v   Verdict
	err error
}

func (f fixedOracle) Analyze(res Result) (*Verdict, error) {
	if f.err != nil {
		return nil, f.err
	}
	v := f.v
	v.Result = res
	return &v, nil
}

func TestChain(t *testing.T) {
	pass := fixedOracle{v: Verdict{Passed: true, Oracle: "a"}}
	passIgnored := fixedOracle{v: Verdict{Passed: true, Oracle: "b", ExitCodeIgnored: true}}
	fail := fixedOracle{v: Verdict{Passed: false, Oracle: "c", Description: "nope"}}

	t.Run("all pass merges exit flag", func(t *testing.T) {
		v, err := Chain{passIgnored, pass}.Analyze(Result{})
		require.NoError(t, err)
		assert.True(t, v.Passed)
		assert.True(t, v.ExitCodeIgnored)
		assert.Equal(t, "a", v.Oracle)
	})

	t.Run("first failure wins", func(t *testing.T) {
		v, err := Chain{pass, fail, passIgnored}.Analyze(Result{})
		require.NoError(t, err)
		assert.False(t, v.Passed)
		assert.Equal(t, "c", v.Oracle)
	})

	t.Run("oracle error propagates", func(t *testing.T) {
		_, err := Chain{pass, fixedOracle{err: assert.AnError}}.Analyze(Result{})
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("empty chain is an error", func(t *testing.T) {
		_, err := Chain{}.Analyze(Result{})
		assert.Error(t, err)
	})
}
