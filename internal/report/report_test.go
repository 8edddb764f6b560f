package report

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/repository"
)

func TestCounters(t *testing.T) {
	var c Counters
	for _, cat := range []constants.Category{
		constants.CategoryProcessed,
		constants.CategoryProcessed,
		constants.CategoryDuplicates,
		constants.CategoryErrors,
		constants.CategoryAlreadyProcessed,
	} {
		c.Add(cat)
	}
	assert.Equal(t, Counters{TotalFiles: 5, Processed: 2, Duplicates: 1, Errors: 1, AlreadyProcessed: 1}, c)
	assert.Equal(t, c.TotalFiles, c.Resolved())
	assert.InDelta(t, 40.0, c.Percent(c.Processed), 0.001)

	var total Counters
	total.Merge(c)
	total.Merge(c)
	assert.Equal(t, 10, total.TotalFiles)
	assert.Equal(t, 0.0, Counters{}.Percent(3))
}

type recordingSink struct {
	initErr error
	calls   []string
}

func (s *recordingSink) Init(context.Context, string) (Report, error) {
	if s.initErr != nil {
		return nil, s.initErr
	}
	return &recordingReport{sink: s}, nil
}

type recordingReport struct{ sink *recordingSink }

func (r *recordingReport) AppendProcessed(_ context.Context, _ certificate.Record, original, _ string) error {
	r.sink.calls = append(r.sink.calls, "processed:"+original)
	return nil
}

func (r *recordingReport) AppendDuplicate(_ context.Context, _ certificate.Record, original, _, _ string) error {
	r.sink.calls = append(r.sink.calls, "duplicate:"+original)
	return nil
}

func (r *recordingReport) AppendError(_ context.Context, original, _, _ string, _ *certificate.Record) error {
	r.sink.calls = append(r.sink.calls, "error:"+original)
	return errors.New("sink down")
}

func (r *recordingReport) FinalizeSummary(context.Context, Counters) error {
	r.sink.calls = append(r.sink.calls, "finalize")
	return nil
}

func TestMulti_FansOut(t *testing.T) {
	ctx := context.Background()
	a, b := &recordingSink{}, &recordingSink{}
	r, err := Multi(nil, a, b).Init(ctx, "/tmp/x")
	require.NoError(t, err)

	require.NoError(t, r.AppendProcessed(ctx, certificate.Record{}, "a.pdf", "a1.pdf"))
	err = r.AppendError(ctx, "b.pdf", "KIND", "detail", nil)
	require.Error(t, err)
	require.NoError(t, r.FinalizeSummary(ctx, Counters{}))

	want := []string{"processed:a.pdf", "error:b.pdf", "finalize"}
	assert.Equal(t, want, a.calls)
	assert.Equal(t, want, b.calls)
}

func TestMulti_InitFailures(t *testing.T) {
	ctx := context.Background()

	_, err := Multi(nil, &recordingSink{initErr: errors.New("boom")}, &recordingSink{}).Init(ctx, "x")
	require.Error(t, err)

	primary := &recordingSink{}
	r, err := Multi(nil, primary, &recordingSink{initErr: errors.New("db down")}).Init(ctx, "x")
	require.NoError(t, err)
	require.NoError(t, r.AppendProcessed(ctx, certificate.Record{}, "a.pdf", "a1.pdf"))
	assert.Equal(t, []string{"processed:a.pdf"}, primary.calls)
}

func TestHistorySink_RecordsRun(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: filepath.Join(t.TempDir(), "h.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	runs := repository.NewRunRepository(db)

	r, err := NewHistorySink(runs, nil).Init(ctx, "/certs/ana")
	require.NoError(t, err)
	rec := sampleRecord()
	require.NoError(t, r.AppendProcessed(ctx, rec, "a.pdf", "a_issueddate2018-07-28.pdf"))
	require.NoError(t, r.AppendDuplicate(ctx, rec, "b.pdf", "a_issueddate2018-07-28.pdf", "same certificate"))
	require.NoError(t, r.AppendError(ctx, "c.pdf", "INFERENCE_ERROR", "bad json", nil))
	require.NoError(t, r.FinalizeSummary(ctx, Counters{TotalFiles: 3, Processed: 1, Duplicates: 1, Errors: 1}))

	list, err := runs.ListRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "/certs/ana", list[0].Folder)
	assert.Equal(t, 3, list[0].Totals.TotalFiles)

	outcomes, err := runs.ListOutcomes(ctx, list[0].ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.Equal(t, "processed", outcomes[0].Category)
	assert.Equal(t, "52030365", outcomes[0].Identification)
	assert.Equal(t, "a_issueddate2018-07-28.pdf", outcomes[1].Owner)
	assert.Equal(t, "INFERENCE_ERROR", outcomes[2].Kind)
	assert.Equal(t, "", outcomes[2].Identification)
}
