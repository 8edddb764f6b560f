package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/repository"
)

// HistorySink persists every folder pass as a run with its outcomes.
type HistorySink struct {
	runs   repository.RunRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewHistorySink(runs repository.RunRepository, logger *slog.Logger) *HistorySink {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistorySink{runs: runs, logger: logger, now: time.Now}
}

func (s *HistorySink) Init(ctx context.Context, folder string) (Report, error) {
	id := uuid.New()
	if err := s.runs.StartRun(ctx, id, folder, s.now()); err != nil {
		return nil, err
	}
	s.logger.Debug("report.history.run_started", "run_id", id, "folder", folder)
	return &historyReport{sink: s, runID: id}, nil
}

type historyReport struct {
	sink  *HistorySink
	runID uuid.UUID
	seq   int
}

func (r *historyReport) add(ctx context.Context, o repository.Outcome, rec *certificate.Record) error {
	r.seq++
	o.RunID = r.runID
	o.Seq = r.seq
	o.CreatedAt = r.sink.now()
	if rec != nil {
		o.Identification = certificate.Str(rec.Identification)
		o.IssueDate = certificate.Str(rec.IssueDate)
		o.ExpirationDate = certificate.Str(rec.ExpirationDate)
	}
	return r.sink.runs.AddOutcome(ctx, o)
}

func (r *historyReport) AppendProcessed(ctx context.Context, rec certificate.Record, original, renamed string) error {
	return r.add(ctx, repository.Outcome{
		File:      original,
		Category:  string(constants.CategoryProcessed),
		FinalName: renamed,
	}, &rec)
}

func (r *historyReport) AppendDuplicate(ctx context.Context, rec certificate.Record, original, owner, reason string) error {
	return r.add(ctx, repository.Outcome{
		File:     original,
		Category: string(constants.CategoryDuplicates),
		Owner:    owner,
		Detail:   reason,
	}, &rec)
}

func (r *historyReport) AppendError(ctx context.Context, original, kind, detail string, partial *certificate.Record) error {
	return r.add(ctx, repository.Outcome{
		File:     original,
		Category: string(constants.CategoryErrors),
		Kind:     kind,
		Detail:   detail,
	}, partial)
}

func (r *historyReport) FinalizeSummary(ctx context.Context, c Counters) error {
	return r.sink.runs.FinishRun(ctx, r.runID, r.sink.now(), repository.RunTotals{
		TotalFiles:       c.TotalFiles,
		Processed:        c.Processed,
		Duplicates:       c.Duplicates,
		Errors:           c.Errors,
		AlreadyProcessed: c.AlreadyProcessed,
	})
}
