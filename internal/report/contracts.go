package report

import (
	"context"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
)

// Sink opens one Report per processed folder.
type Sink interface {
	Init(ctx context.Context, folder string) (Report, error)
}

// Report records the outcome of every file in a folder. FinalizeSummary is the last call made on a
// Report and releases it.
type Report interface {
	AppendProcessed(ctx context.Context, rec certificate.Record, original, renamed string) error
	AppendDuplicate(ctx context.Context, rec certificate.Record, original, owner, reason string) error
	AppendError(ctx context.Context, original, kind, detail string, partial *certificate.Record) error
	FinalizeSummary(ctx context.Context, c Counters) error
}

// Counters are the per-folder summary statistics.
type Counters struct {
	TotalFiles       int `json:"total_files"`
	Processed        int `json:"processed"`
	Duplicates       int `json:"duplicates"`
	Errors           int `json:"errors"`
	AlreadyProcessed int `json:"already_processed"`
}

// Add counts one resolved file under cat.
func (c *Counters) Add(cat constants.Category) {
	c.TotalFiles++
	switch cat {
	case constants.CategoryProcessed:
		c.Processed++
	case constants.CategoryDuplicates:
		c.Duplicates++
	case constants.CategoryErrors:
		c.Errors++
	case constants.CategoryAlreadyProcessed:
		c.AlreadyProcessed++
	}
}

// Merge accumulates o into c, for run-level totals across folders.
func (c *Counters) Merge(o Counters) {
	c.TotalFiles += o.TotalFiles
	c.Processed += o.Processed
	c.Duplicates += o.Duplicates
	c.Errors += o.Errors
	c.AlreadyProcessed += o.AlreadyProcessed
}

func (c Counters) Resolved() int {
	return c.Processed + c.Duplicates + c.Errors + c.AlreadyProcessed
}

// Percent returns n as a percentage of TotalFiles, 0 when nothing was counted.
func (c Counters) Percent(n int) float64 {
	if c.TotalFiles == 0 {
		return 0
	}
	return float64(n) * 100 / float64(c.TotalFiles)
}
