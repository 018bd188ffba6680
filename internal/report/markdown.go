package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjy-dev/pretrain-smoke/internal/smoke"
)

// MarkdownReporter implements the Reporter interface by saving reports as markdown files.
type MarkdownReporter struct {
	outputDir string
}

// NewMarkdownReporter creates a new MarkdownReporter.
func NewMarkdownReporter(outputDir string) *MarkdownReporter {
	return &MarkdownReporter{
		outputDir: outputDir,
	}
}

// Status summarizes a run as PASS, FAIL or ERROR(<stage>).
func Status(out *smoke.Outcome, runErr error) string {
	if runErr != nil {
		if stage, ok := smoke.StageOf(runErr); ok {
			return fmt.Sprintf("ERROR (%s)", stage)
		}
		return "ERROR"
	}
	if out.Passed() {
		return "PASS"
	}
	return "FAIL"
}

// Render produces the markdown body for a run.
func Render(out *smoke.Outcome, runErr error) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Smoke Run: %s\n\n", Status(out, runErr))
	fmt.Fprintf(&b, "- **Started:** %s\n", out.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Duration:** %s\n", out.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "- **Command:** `%s`\n", strings.Join(out.Command, " "))
	fmt.Fprintf(&b, "- **Working directory:** `%s`\n", out.WorkDir)
	fmt.Fprintf(&b, "- **Corpus:** `%s`\n\n", out.CorpusPath)

	if runErr != nil {
		fmt.Fprintf(&b, "## Error\n\n```\n%v\n```\n\n", runErr)
	}

	if out.Verdict != nil {
		b.WriteString("## Verdict\n\n")
		fmt.Fprintf(&b, "**Oracle:** %s\n\n", out.Verdict.Oracle)
		if out.Verdict.ExitCodeIgnored {
			b.WriteString("**Note:** non-zero exit code did not affect the verdict.\n\n")
		}
		fmt.Fprintf(&b, "```\n%s\n```\n\n", strings.TrimRight(out.Verdict.Description, "\n"))
	}

	if res := out.Result; res != nil {
		b.WriteString("## Execution Result\n\n")
		fmt.Fprintf(&b, "**Exit Code:** %d\n\n", res.ExitCode)
		fmt.Fprintf(&b, "**Stdout:**\n\n```\n%s\n```\n\n", res.Stdout)
		fmt.Fprintf(&b, "**Stderr:**\n\n```\n%s\n```\n\n", res.Stderr)
	}

	return b.String()
}

// Save writes the report to smoke_<unix-nanos>.md in the output directory.
func (r *MarkdownReporter) Save(out *smoke.Outcome, runErr error) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	reportPath := filepath.Join(r.outputDir, fmt.Sprintf("smoke_%d.md", time.Now().UnixNano()))
	if err := os.WriteFile(reportPath, []byte(Render(out, runErr)), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return reportPath, nil
}
