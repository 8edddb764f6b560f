package batch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/certificates-processor/internal/common"
	"github.com/joseph-ayodele/certificates-processor/internal/ingest"
	"github.com/joseph-ayodele/certificates-processor/internal/report"
)

// FolderProcessor is what Runner drives for every folder under the root.
type FolderProcessor interface {
	ProcessFolder(ctx context.Context, folder string) (FolderResult, error)
}

// RunSummary aggregates one walk of the certificates root.
type RunSummary struct {
	RunID   string
	Root    string
	Folders int
	// Skipped counts folders whose report could not be opened or whose listing failed.
	Skipped int
	Totals  report.Counters
	Elapsed time.Duration
}

type Runner struct {
	proc       FolderProcessor
	logger     *slog.Logger
	skipHidden bool
}

func NewRunner(proc FolderProcessor, skipHidden bool, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{proc: proc, logger: logger, skipHidden: skipHidden}
}

// Run processes root and every folder below it. A missing root is fatal; a failing folder is
// logged and skipped.
func (r *Runner) Run(ctx context.Context, root string) (RunSummary, error) {
	start := time.Now()
	sum := RunSummary{RunID: uuid.NewString(), Root: root}
	ctx = common.WithRunID(ctx, sum.RunID)
	r.logger.Info("batch.run.start", "run_id", sum.RunID, "root", root)

	err := ingest.WalkFolders(ctx, root, r.skipHidden, func(ctx context.Context, folder string) error {
		res, err := r.proc.ProcessFolder(ctx, folder)
		if res.Counters.TotalFiles > 0 {
			sum.Folders++
			sum.Totals.Merge(res.Counters)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sum.Skipped++
			r.logger.Error("batch.folder.skipped", "run_id", sum.RunID, "folder", folder, "error", err)
		}
		return nil
	})
	sum.Elapsed = time.Since(start)

	if err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error("batch.run.failed", "run_id", sum.RunID, "root", root, "error", err)
		return sum, err
	}
	t := sum.Totals
	r.logger.Info("batch.run.done",
		"run_id", sum.RunID,
		"folders", sum.Folders,
		"skipped", sum.Skipped,
		"total_files", t.TotalFiles,
		"processed", t.Processed,
		"duplicates", t.Duplicates,
		"errors", t.Errors,
		"already_processed", t.AlreadyProcessed,
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return sum, err
}

// RunFolder processes a single folder, as the watcher does when files arrive.
func (r *Runner) RunFolder(ctx context.Context, folder string) (FolderResult, error) {
	ctx = common.WithRunID(ctx, uuid.NewString())
	return r.proc.ProcessFolder(ctx, folder)
}
