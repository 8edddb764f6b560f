package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

// RunTotals are the per-folder counters stored when a run finishes.
type RunTotals struct {
	TotalFiles       int
	Processed        int
	Duplicates       int
	Errors           int
	AlreadyProcessed int
}

type Run struct {
	ID         uuid.UUID
	Folder     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Totals     RunTotals
}

// Outcome is one resolved file of a run.
type Outcome struct {
	RunID          uuid.UUID
	Seq            int
	File           string
	Category       string
	FinalName      string
	Owner          string
	Kind           string
	Detail         string
	Identification string
	IssueDate      string
	ExpirationDate string
	CreatedAt      time.Time
}

type RunRepository interface {
	StartRun(ctx context.Context, id uuid.UUID, folder string, startedAt time.Time) error
	AddOutcome(ctx context.Context, o Outcome) error
	FinishRun(ctx context.Context, id uuid.UUID, finishedAt time.Time, totals RunTotals) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	ListOutcomes(ctx context.Context, runID uuid.UUID) ([]Outcome, error)
}

type runRepository struct {
	db *DB
}

func NewRunRepository(db *DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) StartRun(ctx context.Context, id uuid.UUID, folder string, startedAt time.Time) error {
	_, err := r.db.SQL.ExecContext(ctx,
		r.db.rebind(`INSERT INTO runs (id, folder, started_at) VALUES (?, ?, ?)`),
		id.String(), folder, formatTime(startedAt))
	if err != nil {
		r.db.logger.Error("repository.run.start_failed", "run_id", id, "error", err)
		return fmt.Errorf("%w: start run: %w", common.ErrDatabase, err)
	}
	return nil
}

func (r *runRepository) AddOutcome(ctx context.Context, o Outcome) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	_, err := r.db.SQL.ExecContext(ctx, r.db.rebind(`INSERT INTO outcomes
		(run_id, seq, file, category, final_name, owner, kind, detail, identification, issue_date, expiration_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		o.RunID.String(), o.Seq, o.File, o.Category,
		nullable(o.FinalName), nullable(o.Owner), nullable(o.Kind), nullable(o.Detail),
		nullable(o.Identification), nullable(o.IssueDate), nullable(o.ExpirationDate),
		formatTime(o.CreatedAt))
	if err != nil {
		r.db.logger.Error("repository.outcome.insert_failed", "run_id", o.RunID, "file", o.File, "error", err)
		return fmt.Errorf("%w: add outcome: %w", common.ErrDatabase, err)
	}
	return nil
}

func (r *runRepository) FinishRun(ctx context.Context, id uuid.UUID, finishedAt time.Time, t RunTotals) error {
	res, err := r.db.SQL.ExecContext(ctx, r.db.rebind(`UPDATE runs SET finished_at = ?,
		total_files = ?, processed = ?, duplicates = ?, errors = ?, already_processed = ?
		WHERE id = ?`),
		formatTime(finishedAt), t.TotalFiles, t.Processed, t.Duplicates, t.Errors, t.AlreadyProcessed, id.String())
	if err != nil {
		return fmt.Errorf("%w: finish run: %w", common.ErrDatabase, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: run %s not found", common.ErrDatabase, id)
	}
	return nil
}

func (r *runRepository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(`SELECT id, folder, started_at, finished_at,
		total_files, processed, duplicates, errors, already_processed
		FROM runs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list runs: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run         Run
			id, started string
			finished    sql.NullString
		)
		t := &run.Totals
		if err := rows.Scan(&id, &run.Folder, &started, &finished,
			&t.TotalFiles, &t.Processed, &t.Duplicates, &t.Errors, &t.AlreadyProcessed); err != nil {
			return nil, fmt.Errorf("%w: scan run: %w", common.ErrDatabase, err)
		}
		run.ID, _ = uuid.Parse(id)
		run.StartedAt = parseTime(started)
		if finished.Valid {
			ft := parseTime(finished.String)
			run.FinishedAt = &ft
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *runRepository) ListOutcomes(ctx context.Context, runID uuid.UUID) ([]Outcome, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(`SELECT seq, file, category,
		final_name, owner, kind, detail, identification, issue_date, expiration_date, created_at
		FROM outcomes WHERE run_id = ? ORDER BY seq`), runID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: list outcomes: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		o := Outcome{RunID: runID}
		var finalName, owner, kind, detail, ident, issue, exp sql.NullString
		var created string
		if err := rows.Scan(&o.Seq, &o.File, &o.Category,
			&finalName, &owner, &kind, &detail, &ident, &issue, &exp, &created); err != nil {
			return nil, fmt.Errorf("%w: scan outcome: %w", common.ErrDatabase, err)
		}
		o.FinalName, o.Owner, o.Kind, o.Detail = finalName.String, owner.String, kind.String, detail.String
		o.Identification, o.IssueDate, o.ExpirationDate = ident.String, issue.String, exp.String
		o.CreatedAt = parseTime(created)
		out = append(out, o)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
