package plugins

import (
	"fmt"

	"github.com/zjy-dev/pretrain-smoke/internal/oracle"
)

func init() {
	oracle.Register("crash", NewCrashOracle)
}

// NewCrashOracle creates a new crash-detection oracle.
func NewCrashOracle(options map[string]interface{}) (oracle.Oracle, error) {
	return &CrashOracle{}, nil
}

// CrashOracle fails a run whose exit code indicates a crash signal.
type CrashOracle struct{}

// Analyze checks if the execution resulted in a crash.
func (o *CrashOracle) Analyze(res oracle.Result) (*oracle.Verdict, error) {
	if oracle.IsCrashExit(res.ExitCode) {
		return &oracle.Verdict{
			Oracle:      "crash",
			Result:      res,
			Description: fmt.Sprintf("crash detected via exit code %d\n%s", res.ExitCode, oracle.DescribeOutput(res)),
		}, nil
	}
	return &oracle.Verdict{
		Passed:      true,
		Oracle:      "crash",
		Result:      res,
		Description: "no crash detected",
	}, nil
}
