package plugins

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/zjy-dev/pretrain-smoke/internal/oracle"
)

const (
	// OptionExpected is the literal substring required in stdout.
	OptionExpected = "expected"
	// OptionRequireZeroExit makes a non-zero exit fail the run even when
	// the substring is present.
	OptionRequireZeroExit = "require_zero_exit"

	// DefaultExpected is the line the pretraining script prints on success.
	DefaultExpected = "Maximum GPU memory allocated"
)

func init() {
	oracle.Register("contains", NewContainsOracle)
}

// NewContainsOracle creates a stdout substring oracle.
func NewContainsOracle(options map[string]interface{}) (oracle.Oracle, error) {
	o := &ContainsOracle{Expected: DefaultExpected}

	if v, ok := options[OptionExpected]; ok {
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s option: %w", OptionExpected, err)
		}
		o.Expected = s
	}
	if o.Expected == "" {
		return nil, fmt.Errorf("%s option must not be empty", OptionExpected)
	}

	if v, ok := options[OptionRequireZeroExit]; ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s option: %w", OptionRequireZeroExit, err)
		}
		o.RequireZeroExit = b
	}

	return o, nil
}

// ContainsOracle passes when stdout contains Expected.
type ContainsOracle struct {
	Expected        string
	RequireZeroExit bool
}

// Analyze checks stdout for the expected substring.
func (o *ContainsOracle) Analyze(res oracle.Result) (*oracle.Verdict, error) {
	v := &oracle.Verdict{Oracle: "contains", Result: res}

	found := oracle.Contains(res.Stdout, o.Expected)
	switch {
	case !found:
		v.Description = fmt.Sprintf("expected %q in stdout, not found\n%s", o.Expected, oracle.DescribeOutput(res))
	case res.ExitCode != 0 && o.RequireZeroExit:
		v.Description = fmt.Sprintf("found %q but process exited with code %d\n%s", o.Expected, res.ExitCode, oracle.DescribeOutput(res))
	default:
		v.Passed = true
		v.ExitCodeIgnored = res.ExitCode != 0
		v.Description = fmt.Sprintf("found %q in stdout", o.Expected)
	}
	return v, nil
}
