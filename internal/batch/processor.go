package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
	"github.com/joseph-ayodele/certificates-processor/internal/ingest"
	"github.com/joseph-ayodele/certificates-processor/internal/llm"
	"github.com/joseph-ayodele/certificates-processor/internal/naming"
	"github.com/joseph-ayodele/certificates-processor/internal/ocr"
	"github.com/joseph-ayodele/certificates-processor/internal/report"
	"github.com/joseph-ayodele/certificates-processor/internal/split"
	"github.com/joseph-ayodele/certificates-processor/internal/vault"
)

// TextExtractor reads the text of one certificate file.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// Splitter breaks multipage PDFs out of a folder's queue before it is processed.
type Splitter interface {
	SplitFolder(ctx context.Context, candidates []string) (map[string]struct{}, []split.Result)
}

// FileOutcome is the terminal result of one file.
type FileOutcome struct {
	File  string
	State State
	// Final is the file's resulting name: the dated name when renamed, the vault entry when moved.
	Final  string
	Owner  string
	Kind   string
	Detail string
	Record *certificate.Record
}

func (o FileOutcome) Category() constants.Category {
	return o.State.Category()
}

// FolderResult summarizes one folder pass.
type FolderResult struct {
	Folder   string
	Counters report.Counters
	Outcomes []FileOutcome
	Splits   []split.Result
	Elapsed  time.Duration
}

// Processor runs the reconciliation state machine over the files of one folder at a time.
type Processor struct {
	extractor TextExtractor
	inference llm.CertificateInference
	sink      report.Sink
	namer     *naming.Namer
	splitter  Splitter
	logger    *slog.Logger

	skipHidden bool
	attach     bool
	onOutcome  func(folder string, o FileOutcome)
}

type Option func(*Processor)

// WithSplitter enables the multipage split pre-pass.
func WithSplitter(s Splitter) Option {
	return func(p *Processor) { p.splitter = s }
}

func WithSkipHidden(skip bool) Option {
	return func(p *Processor) { p.skipHidden = skip }
}

// WithAttachDocuments asks inference providers to receive the file itself next to its text.
func WithAttachDocuments(attach bool) Option {
	return func(p *Processor) { p.attach = attach }
}

// WithOutcomeHook is called after every file resolves.
func WithOutcomeHook(fn func(folder string, o FileOutcome)) Option {
	return func(p *Processor) { p.onOutcome = fn }
}

func NewProcessor(extractor TextExtractor, inference llm.CertificateInference, sink report.Sink, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		extractor:  extractor,
		inference:  inference,
		sink:       sink,
		namer:      naming.NewNamer(logger),
		logger:     logger,
		skipHidden: true,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessFolder resolves every candidate file of folder in listing order. Per-file failures become
// report rows; an error is returned only when the folder could not be listed, its report could not
// be opened, or ctx was cancelled (in which case the partial result is still returned).
func (p *Processor) ProcessFolder(ctx context.Context, folder string) (FolderResult, error) {
	start := time.Now()
	res := FolderResult{Folder: folder}
	ctx = common.WithFolder(ctx, folder)

	files, _, err := ingest.ListCandidates(folder, ingest.ListOptions{SkipHidden: p.skipHidden})
	if err != nil {
		return res, err
	}
	if p.splitter != nil {
		exclude, splits := p.splitter.SplitFolder(ctx, files)
		res.Splits = splits
		if len(exclude) > 0 {
			files = withoutNames(files, exclude)
		}
	}
	if len(files) == 0 {
		p.logger.Debug("batch.folder.empty", "folder", folder)
		res.Elapsed = time.Since(start)
		return res, nil
	}

	rep, err := p.sink.Init(ctx, folder)
	if err != nil {
		p.logger.Error("batch.report.init_failed", "folder", folder, "error", err)
		return res, fmt.Errorf("open report for %s: %w", folder, err)
	}

	p.logger.Info("batch.folder.start", "folder", folder, "files", len(files), "run_id", common.RunIDFromContext(ctx))
	ledger := certificate.NewLedger()
	v := vault.New(folder, p.logger)

	for i, path := range files {
		if ctx.Err() != nil {
			p.logger.Warn("batch.folder.cancelled", "folder", folder, "remaining", len(files)-i)
			break
		}
		out := p.processFile(ctx, path, ledger, v, rep)
		res.Counters.Add(out.Category())
		res.Outcomes = append(res.Outcomes, out)

		p.logger.Info("batch.file.outcome",
			"folder", filepath.Base(folder),
			"file", out.File,
			"state", out.State.String(),
			"category", out.Category(),
			"final", out.Final,
			"kind", out.Kind,
			"progress", fmt.Sprintf("%d/%d", i+1, len(files)),
		)
		if p.onOutcome != nil {
			p.onOutcome(folder, out)
		}
	}

	// The summary is written even when the pass was interrupted.
	if err := rep.FinalizeSummary(context.WithoutCancel(ctx), res.Counters); err != nil {
		p.logger.Warn("batch.report.finalize_failed", "folder", folder, "error", err)
	}
	res.Elapsed = time.Since(start)
	c := res.Counters
	p.logger.Info("batch.folder.done",
		"folder", folder,
		"total_files", c.TotalFiles,
		"processed", c.Processed,
		"duplicates", c.Duplicates,
		"errors", c.Errors,
		"already_processed", c.AlreadyProcessed,
		"ledger_keys", ledger.Len(),
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
	return res, ctx.Err()
}

func (p *Processor) processFile(ctx context.Context, path string, ledger *certificate.Ledger, v *vault.Vault, rep report.Report) FileOutcome {
	name := filepath.Base(path)
	out := FileOutcome{File: name, State: Pending}

	if naming.IsAlreadyProcessed(name) {
		out.State = AlreadyProcessed
		out.Final = name
		return out
	}

	extracted, err := p.extractor.Extract(ctx, path)
	if err != nil {
		if !errors.Is(err, common.ErrExtraction) {
			err = common.ExtractionError("extract text", err)
		}
		return p.fail(ctx, rep, out, InferenceError, err, nil)
	}
	out.State = Extracted

	rec, _, err := p.inference.Infer(ctx, llm.ExtractRequest{
		Text:           extracted.Text,
		FilenameHint:   name,
		FolderHint:     filepath.Base(filepath.Dir(path)),
		FilePath:       path,
		AttachDocument: p.attach,
	})
	if err != nil {
		if !errors.Is(err, common.ErrInference) {
			err = common.InferenceError("infer certificate", err)
		}
		return p.fail(ctx, rep, out, InferenceError, err, nil)
	}
	rec.Transcription = extracted.Text
	out.Record = &rec
	if rec.Failed() {
		return p.fail(ctx, rep, out, InferenceError,
			common.InferenceError(certificate.Str(rec.MessageError), nil), &rec)
	}

	key, ok := certificate.NewIdentityKey(rec)
	if !ok {
		return p.fail(ctx, rep, out, NoIdentification,
			common.NewAppError(common.CodeMissingIdentification, "identification is empty", common.ErrMissingIdentification), &rec)
	}

	if owner, seen := ledger.Lookup(key); seen {
		out.Owner = owner
		reason := fmt.Sprintf("mismo certificado que %s en esta ejecución", owner)
		moved, err := v.MoveIn(path, reason)
		if err != nil {
			return p.fail(ctx, rep, out, FileSystemError, err, &rec)
		}
		out.State = DuplicateByLedger
		out.Final = moved
		out.Detail = fmt.Sprintf("%s; movido a %s/%s", reason, constants.VaultDirName, moved)
		p.appendLogged(name, rep.AppendDuplicate(ctx, rec, name, owner, out.Detail))
		return out
	}

	ledger.Record(key, name)
	out.State = Identified

	renamed, err := p.namer.Rename(path, key.Identification, rec.IssueDate, rec.ExpirationDate, v)
	if err != nil {
		return p.fail(ctx, rep, out, FileSystemError, err, &rec)
	}
	out.Final = renamed.Final
	switch renamed.Kind {
	case naming.MovedToDuplicateVault:
		out.State = MovedToDuplicateVault
		out.Owner = renamed.Target
		out.Detail = fmt.Sprintf("%s ya existe de una ejecución anterior; movido a %s/%s",
			renamed.Target, constants.VaultDirName, renamed.Final)
		p.appendLogged(name, rep.AppendDuplicate(ctx, rec, name, renamed.Target, out.Detail))
	default:
		out.State = Renamed
		p.appendLogged(name, rep.AppendProcessed(ctx, rec, name, renamed.Final))
	}
	return out
}

// fail resolves out into an error state and writes its report row.
func (p *Processor) fail(ctx context.Context, rep report.Report, out FileOutcome, state State, err error, partial *certificate.Record) FileOutcome {
	out.State = state
	out.Kind = common.ErrorCode(err)
	out.Detail = err.Error()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		p.logger.Warn("batch.file.interrupted", "file", out.File, "error", err)
	}
	p.appendLogged(out.File, rep.AppendError(ctx, out.File, out.Kind, out.Detail, partial))
	return out
}

func (p *Processor) appendLogged(file string, err error) {
	if err != nil {
		p.logger.Warn("batch.report.append_failed", "file", file, "error", err)
	}
}

func withoutNames(files []string, exclude map[string]struct{}) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if _, skip := exclude[filepath.Base(f)]; !skip {
			out = append(out, f)
		}
	}
	return out
}
