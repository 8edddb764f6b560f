package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
	"github.com/joseph-ayodele/certificates-processor/internal/llm"
	"github.com/joseph-ayodele/certificates-processor/internal/ocr"
	"github.com/joseph-ayodele/certificates-processor/internal/report"
	"github.com/joseph-ayodele/certificates-processor/internal/split"
)

type fakeExtractor struct {
	errs map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (ocr.ExtractionResult, error) {
	name := filepath.Base(path)
	if err, ok := f.errs[name]; ok {
		return ocr.ExtractionResult{}, err
	}
	return ocr.ExtractionResult{Text: "texto de " + name}, nil
}

type fakeInference struct {
	records map[string]certificate.Record
	errs    map[string]error
	calls   []string
	onInfer func(req llm.ExtractRequest)
}

func (f *fakeInference) Infer(_ context.Context, req llm.ExtractRequest) (certificate.Record, []byte, error) {
	f.calls = append(f.calls, req.FilenameHint)
	if f.onInfer != nil {
		f.onInfer(req)
	}
	if err, ok := f.errs[req.FilenameHint]; ok {
		return certificate.Record{}, nil, err
	}
	return f.records[req.FilenameHint], nil, nil
}

type row struct {
	kind, file, other, detail string
}

type memorySink struct {
	initErr   error
	rows      []row
	finalized []report.Counters
}

func (s *memorySink) Init(context.Context, string) (report.Report, error) {
	if s.initErr != nil {
		return nil, s.initErr
	}
	return s, nil
}

func (s *memorySink) AppendProcessed(_ context.Context, _ certificate.Record, original, renamed string) error {
	s.rows = append(s.rows, row{"processed", original, renamed, ""})
	return nil
}

func (s *memorySink) AppendDuplicate(_ context.Context, _ certificate.Record, original, owner, reason string) error {
	s.rows = append(s.rows, row{"duplicate", original, owner, reason})
	return nil
}

func (s *memorySink) AppendError(_ context.Context, original, kind, detail string, _ *certificate.Record) error {
	s.rows = append(s.rows, row{"error", original, kind, detail})
	return nil
}

func (s *memorySink) FinalizeSummary(_ context.Context, c report.Counters) error {
	s.finalized = append(s.finalized, c)
	return nil
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func cert(id, issue string) certificate.Record {
	return certificate.Record{Identification: certificate.Ptr(id), IssueDate: certificate.Ptr(issue)}
}

func outcomeByFile(res FolderResult) map[string]FileOutcome {
	m := map[string]FileOutcome{}
	for _, o := range res.Outcomes {
		m[o.File] = o
	}
	return m
}

func TestProcessFolder_StateMachine(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf", "f_issueddate2019-01-01.pdf", "g.pdf", "notes.tmp"} {
		write(t, dir, n, "contenido "+n)
	}

	failed := cert("9", "2020-01-01")
	failed.MessageError = certificate.Ptr("documento ilegible")
	inf := &fakeInference{
		records: map[string]certificate.Record{
			"a.pdf": cert("123", "2020-01-01T00:00:00Z"),
			"b.pdf": cert("123", "2020-01-01T00:00:00Z"),
			"c.pdf": {IssueDate: certificate.Ptr("2020-01-01")},
			"g.pdf": failed,
		},
		errs: map[string]error{"e.pdf": errors.New("model timeout")},
	}
	ext := &fakeExtractor{errs: map[string]error{"d.pdf": errors.New("tesseract missing")}}
	sink := &memorySink{}

	res, err := NewProcessor(ext, inf, sink, nil).ProcessFolder(context.Background(), dir)
	require.NoError(t, err)

	got := outcomeByFile(res)
	assert.Equal(t, Renamed, got["a.pdf"].State)
	assert.Equal(t, "a_issueddate2020-01-01.pdf", got["a.pdf"].Final)
	assert.Equal(t, DuplicateByLedger, got["b.pdf"].State)
	assert.Equal(t, "a.pdf", got["b.pdf"].Owner)
	assert.Equal(t, NoIdentification, got["c.pdf"].State)
	assert.Equal(t, common.CodeMissingIdentification, got["c.pdf"].Kind)
	assert.Equal(t, InferenceError, got["d.pdf"].State)
	assert.Equal(t, common.CodeExtraction, got["d.pdf"].Kind)
	assert.Equal(t, InferenceError, got["e.pdf"].State)
	assert.Equal(t, common.CodeInference, got["e.pdf"].Kind)
	assert.Equal(t, AlreadyProcessed, got["f_issueddate2019-01-01.pdf"].State)
	assert.Equal(t, InferenceError, got["g.pdf"].State)
	assert.NotContains(t, got, "notes.tmp")

	c := res.Counters
	assert.Equal(t, report.Counters{TotalFiles: 7, Processed: 1, Duplicates: 1, Errors: 4, AlreadyProcessed: 1}, c)
	assert.Equal(t, c.TotalFiles, c.Resolved())
	require.Len(t, sink.finalized, 1)
	assert.Equal(t, c, sink.finalized[0])

	// Files on disk.
	assert.FileExists(t, filepath.Join(dir, "a_issueddate2020-01-01.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "a.pdf"))
	assert.FileExists(t, filepath.Join(dir, constants.VaultDirName, "b.pdf"))
	data, err := os.ReadFile(filepath.Join(dir, "c.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "contenido c.pdf", string(data))
	assert.FileExists(t, filepath.Join(dir, "d.pdf"))
	assert.FileExists(t, filepath.Join(dir, "e.pdf"))

	// Already processed files never reach inference.
	assert.NotContains(t, inf.calls, "f_issueddate2019-01-01.pdf")
	assert.NotContains(t, inf.calls, "d.pdf")

	// One report row per resolved file except the already processed one.
	assert.Len(t, sink.rows, 6)
	assert.Equal(t, row{"processed", "a.pdf", "a_issueddate2020-01-01.pdf", ""}, sink.rows[0])
	assert.Equal(t, "duplicate", sink.rows[1].kind)
	assert.Equal(t, "a.pdf", sink.rows[1].other)
}

func TestProcessFolder_LedgerFirstOwnerWins(t *testing.T) {
	for _, order := range [][2]string{{"x1.pdf", "x2.pdf"}, {"x2.pdf", "x1.pdf"}} {
		dir := t.TempDir()
		write(t, dir, order[0], "1")
		write(t, dir, order[1], "2")
		inf := &fakeInference{records: map[string]certificate.Record{
			"x1.pdf": cert("77", "2021-05-05"),
			"x2.pdf": cert("77", "2021-05-05"),
		}}

		res, err := NewProcessor(&fakeExtractor{}, inf, &memorySink{}, nil).ProcessFolder(context.Background(), dir)
		require.NoError(t, err)
		require.Len(t, res.Outcomes, 2)
		// Listing is lexical, so x1 always arrives first.
		assert.Equal(t, Renamed, res.Outcomes[0].State)
		assert.Equal(t, "x1.pdf", res.Outcomes[0].File)
		assert.Equal(t, DuplicateByLedger, res.Outcomes[1].State)
		assert.Equal(t, "x1.pdf", res.Outcomes[1].Owner)
	}
}

func TestProcessFolder_ExistingDatedNameGoesToVault(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "h.pdf", "nuevo")
	write(t, dir, "h_issueddate2020-02-02.pdf", "previo")
	inf := &fakeInference{records: map[string]certificate.Record{"h.pdf": cert("5", "2020-02-02")}}
	sink := &memorySink{}

	res, err := NewProcessor(&fakeExtractor{}, inf, sink, nil).ProcessFolder(context.Background(), dir)
	require.NoError(t, err)

	got := outcomeByFile(res)
	assert.Equal(t, MovedToDuplicateVault, got["h.pdf"].State)
	assert.Equal(t, "h_issueddate2020-02-02.pdf", got["h.pdf"].Owner)
	assert.Equal(t, AlreadyProcessed, got["h_issueddate2020-02-02.pdf"].State)

	data, err := os.ReadFile(filepath.Join(dir, "h_issueddate2020-02-02.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "previo", string(data))
	data, err = os.ReadFile(filepath.Join(dir, constants.VaultDirName, "h_issueddate2020-02-02.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "nuevo", string(data))
	assert.Equal(t, report.Counters{TotalFiles: 2, Duplicates: 1, AlreadyProcessed: 1}, res.Counters)
}

func TestProcessFolder_VaultNameCollision(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, constants.VaultDirName), 0o755))
	write(t, filepath.Join(dir, constants.VaultDirName), "b.pdf", "older")
	write(t, dir, "a.pdf", "1")
	write(t, dir, "b.pdf", "2")
	inf := &fakeInference{records: map[string]certificate.Record{
		"a.pdf": cert("1", "2020-01-01"),
		"b.pdf": cert("1", "2020-01-01"),
	}}

	res, err := NewProcessor(&fakeExtractor{}, inf, &memorySink{}, nil).ProcessFolder(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "b_dup1.pdf", outcomeByFile(res)["b.pdf"].Final)
	assert.FileExists(t, filepath.Join(dir, constants.VaultDirName, "b.pdf"))
	assert.FileExists(t, filepath.Join(dir, constants.VaultDirName, "b_dup1.pdf"))
}

type fakeSplitter struct{ exclude map[string]struct{} }

func (f fakeSplitter) SplitFolder(context.Context, []string) (map[string]struct{}, []split.Result) {
	return f.exclude, nil
}

func TestProcessFolder_SplitOriginalsLeaveQueue(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "multi.pdf", "m")
	write(t, dir, "single.pdf", "s")
	inf := &fakeInference{records: map[string]certificate.Record{"single.pdf": cert("3", "2022-03-03")}}

	p := NewProcessor(&fakeExtractor{}, inf, &memorySink{}, nil,
		WithSplitter(fakeSplitter{exclude: map[string]struct{}{"multi.pdf": {}}}))
	res, err := p.ProcessFolder(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Counters.TotalFiles)
	assert.FileExists(t, filepath.Join(dir, "multi.pdf"))
	assert.Equal(t, []string{"single.pdf"}, inf.calls)
}

func TestProcessFolder_ReportInitFailure(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.pdf", "1")
	inf := &fakeInference{records: map[string]certificate.Record{"a.pdf": cert("1", "2020-01-01")}}

	_, err := NewProcessor(&fakeExtractor{}, inf, &memorySink{initErr: errors.New("locked")}, nil).
		ProcessFolder(context.Background(), dir)
	require.Error(t, err)
	assert.FileExists(t, filepath.Join(dir, "a.pdf"))
	assert.Empty(t, inf.calls)
}

func TestProcessFolder_CancelledBetweenFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.pdf", "1")
	write(t, dir, "b.pdf", "2")
	inf := &fakeInference{records: map[string]certificate.Record{
		"a.pdf": cert("1", "2020-01-01"),
		"b.pdf": cert("2", "2020-01-01"),
	}}
	sink := &memorySink{}
	ctx, cancel := context.WithCancel(context.Background())

	p := NewProcessor(&fakeExtractor{}, inf, sink, nil, WithOutcomeHook(func(string, FileOutcome) { cancel() }))
	res, err := p.ProcessFolder(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Counters.TotalFiles)
	assert.FileExists(t, filepath.Join(dir, "b.pdf"))
	require.Len(t, sink.finalized, 1)
	assert.Equal(t, 1, sink.finalized[0].Processed)
}

func TestState_Category(t *testing.T) {
	tests := []struct {
		state State
		want  constants.Category
	}{
		{AlreadyProcessed, constants.CategoryAlreadyProcessed},
		{InferenceError, constants.CategoryErrors},
		{DuplicateByLedger, constants.CategoryDuplicates},
		{NoIdentification, constants.CategoryErrors},
		{Renamed, constants.CategoryProcessed},
		{MovedToDuplicateVault, constants.CategoryDuplicates},
		{FileSystemError, constants.CategoryErrors},
		{Pending, ""},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Category())
			assert.Equal(t, tt.want != "", tt.state.Terminal())
		})
	}
}

func listTree(t *testing.T, dir string) []string {
	t.Helper()
	var names []string
	require.NoError(t, filepath.WalkDir(dir, func(path string, _ os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		names = append(names, rel)
		return nil
	}))
	return names
}

func TestProcessFolder_SecondRunOnlySeesProcessedFiles(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		write(t, dir, n, n)
	}
	records := map[string]certificate.Record{
		"a.pdf": cert("1", "2020-01-01"),
		"b.pdf": cert("1", "2020-01-01"),
		"c.pdf": cert("2", "2021-03-04"),
	}

	first, err := NewProcessor(&fakeExtractor{}, &fakeInference{records: records}, &memorySink{}, nil).
		ProcessFolder(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, report.Counters{TotalFiles: 3, Processed: 2, Duplicates: 1}, first.Counters)
	before := listTree(t, dir)

	inf := &fakeInference{records: records}
	sink := &memorySink{}
	second, err := NewProcessor(&fakeExtractor{}, inf, sink, nil).ProcessFolder(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, report.Counters{TotalFiles: 2, AlreadyProcessed: 2}, second.Counters)
	assert.Equal(t, first.Counters.Processed, second.Counters.AlreadyProcessed)
	assert.Empty(t, inf.calls)
	assert.Empty(t, sink.rows)
	assert.Equal(t, before, listTree(t, dir), "no renames or vault moves on the second run")
}

func TestProcessFolder_VaultMoveFailureIsFileSystemError(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.pdf", "1")
	write(t, dir, "b.pdf", "2")
	inf := &fakeInference{
		records: map[string]certificate.Record{
			"a.pdf": cert("1", "2020-01-01"),
			"b.pdf": cert("1", "2020-01-01"),
		},
		onInfer: func(req llm.ExtractRequest) {
			// duplicate vanishes before it can be moved
			if req.FilenameHint == "b.pdf" {
				require.NoError(t, os.Remove(req.FilePath))
			}
		},
	}
	sink := &memorySink{}

	res, err := NewProcessor(&fakeExtractor{}, inf, sink, nil).ProcessFolder(context.Background(), dir)
	require.NoError(t, err)

	got := outcomeByFile(res)
	assert.Equal(t, Renamed, got["a.pdf"].State)
	assert.Equal(t, FileSystemError, got["b.pdf"].State)
	assert.Equal(t, common.CodeFileSystem, got["b.pdf"].Kind)
	assert.Equal(t, "a.pdf", got["b.pdf"].Owner)
	assert.Equal(t, report.Counters{TotalFiles: 2, Processed: 1, Errors: 1}, res.Counters)
	require.Len(t, sink.rows, 2)
	assert.Equal(t, "error", sink.rows[1].kind)
	assert.Equal(t, common.CodeFileSystem, sink.rows[1].other)
}

func TestProcessFolder_CollisionWithBrokenVaultIsFileSystemError(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "h.pdf", "nuevo")
	write(t, dir, "h_issueddate2020-02-02.pdf", "previo")
	// a plain file where the vault directory should go
	write(t, dir, constants.VaultDirName, "")
	inf := &fakeInference{records: map[string]certificate.Record{"h.pdf": cert("5", "2020-02-02")}}

	p := NewProcessor(&fakeExtractor{}, inf, &memorySink{}, nil)
	res, err := p.ProcessFolder(context.Background(), dir)
	require.NoError(t, err)

	got := outcomeByFile(res)
	assert.Equal(t, FileSystemError, got["h.pdf"].State)
	assert.Equal(t, common.CodeFileSystem, got["h.pdf"].Kind)
	assert.FileExists(t, filepath.Join(dir, "h.pdf"))
}

func TestProcessFolder_RenameFailureKeepsLedgerEntry(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.pdf", "1")
	write(t, dir, "b.pdf", "2")
	inf := &fakeInference{
		records: map[string]certificate.Record{
			"a.pdf": cert("1", "2020-01-01"),
			"b.pdf": cert("1", "2020-01-01"),
		},
		onInfer: func(req llm.ExtractRequest) {
			// source disappears before it can be renamed
			if req.FilenameHint == "a.pdf" {
				require.NoError(t, os.Remove(req.FilePath))
			}
		},
	}

	res, err := NewProcessor(&fakeExtractor{}, inf, &memorySink{}, nil).ProcessFolder(context.Background(), dir)
	require.NoError(t, err)

	got := outcomeByFile(res)
	assert.Equal(t, FileSystemError, got["a.pdf"].State)
	assert.Equal(t, common.CodeFileSystem, got["a.pdf"].Kind)
	assert.Equal(t, DuplicateByLedger, got["b.pdf"].State)
	assert.Equal(t, "a.pdf", got["b.pdf"].Owner)
	assert.FileExists(t, filepath.Join(dir, constants.VaultDirName, "b.pdf"))
	assert.Equal(t, report.Counters{TotalFiles: 2, Duplicates: 1, Errors: 1}, res.Counters)
}
