package report

import "github.com/zjy-dev/pretrain-smoke/internal/smoke"

// Reporter defines the interface for saving smoke run reports.
type Reporter interface {
	// Save writes the outcome of a run and returns where it was saved.
	Save(out *smoke.Outcome, runErr error) (string, error)
}
