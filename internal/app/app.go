package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/certificates-processor/internal/async"
	"github.com/joseph-ayodele/certificates-processor/internal/batch"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
	"github.com/joseph-ayodele/certificates-processor/internal/ingest"
	"github.com/joseph-ayodele/certificates-processor/internal/llm/provider"
	"github.com/joseph-ayodele/certificates-processor/internal/ocr"
	"github.com/joseph-ayodele/certificates-processor/internal/report"
	"github.com/joseph-ayodele/certificates-processor/internal/repository"
	"github.com/joseph-ayodele/certificates-processor/internal/split"
)

// App holds the wired processing stack shared by the CLI and the daemon.
type App struct {
	Config    *common.Config
	Extractor *ocr.Extractor
	Inference *provider.Stack
	Processor *batch.Processor
	Runner    *batch.Runner
	History   *repository.DB

	logger *slog.Logger
}

// Build wires extraction, inference, reporting and, when a history DSN is set, the run-history
// store. Close releases everything it opened.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, logger: logger}

	a.Extractor = ocr.NewExtractor(cfg.OCR, logger)

	stack, err := provider.Build(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	a.Inference = stack

	var sink report.Sink = report.NewXLSXSink(logger)
	if cfg.History.DSN != "" {
		db, err := repository.Open(ctx, repository.Config{
			DSN:         cfg.History.DSN,
			MaxConns:    cfg.History.MaxConns,
			DialTimeout: cfg.History.DialTimeout,
		}, logger)
		if err != nil {
			_ = stack.Close()
			return nil, err
		}
		a.History = db
		sink = report.Multi(logger, sink, report.NewHistorySink(repository.NewRunRepository(db), logger))
	}

	opts := []batch.Option{
		batch.WithSkipHidden(cfg.Batch.SkipHidden),
		batch.WithAttachDocuments(cfg.LLM.AttachDocuments),
	}
	if cfg.Batch.SplitMultipage {
		opts = append(opts, batch.WithSplitter(split.New(logger)))
	}
	a.Processor = batch.NewProcessor(a.Extractor, stack, sink, logger, opts...)
	a.Runner = batch.NewRunner(a.Processor, cfg.Batch.SkipHidden, logger)
	return a, nil
}

// Close releases inference clients and the history database.
func (a *App) Close() {
	if a.Inference != nil {
		if err := a.Inference.Close(); err != nil {
			a.logger.Warn("app.close.inference_failed", "error", err)
		}
	}
	if a.History != nil {
		a.History.Close()
	}
}

// Watch processes folders under the root as files arrive, until ctx is done. Folder passes run
// on a FolderQueue so a burst of events on one folder collapses into a single pass.
func (a *App) Watch(ctx context.Context) error {
	cfg := a.Config
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Root:       cfg.Batch.Root,
		SkipHidden: cfg.Batch.SkipHidden,
		Debounce:   cfg.Daemon.Debounce,
		Logger:     a.logger,
	})
	if err != nil {
		return common.NewAppError(common.CodeRootNotFound, "watch root", errors.Join(common.ErrRootNotFound, err))
	}

	q := async.NewFolderQueue(a.Runner, a.logger, async.WithWorkers(cfg.Daemon.Workers))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		q.Shutdown(shutdownCtx)
	}()

	a.logger.Info("app.watch.start", "root", cfg.Batch.Root, "debounce", cfg.Daemon.Debounce.String())
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("app.watch.stop")
			return nil
		case folder, ok := <-events:
			if !ok {
				return nil
			}
			if err := q.Enqueue(ctx, async.Job{Folder: folder, TraceID: uuid.NewString()}); err != nil {
				a.logger.Warn("app.watch.enqueue_failed", "folder", folder, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			a.logger.Warn("app.watch.error", "error", err)
		}
	}
}
