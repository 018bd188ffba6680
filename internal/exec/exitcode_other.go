//go:build !unix

package exec

import "os"

func exitCode(ps *os.ProcessState) int {
	return ps.ExitCode()
}
