package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/certificates-processor/internal/batch"
)

// FolderRunner processes one folder.
type FolderRunner interface {
	RunFolder(ctx context.Context, folder string) (batch.FolderResult, error)
}

// FolderQueue feeds folders to a pool of workers. A folder already waiting in the queue is not
// queued twice, and a folder is never processed by two workers at once.
type FolderQueue struct {
	runner  FolderRunner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// sendMu keeps Shutdown from closing ch under a blocked Enqueue.
	sendMu  sync.RWMutex
	mu      sync.Mutex
	closed  bool
	pending map[string]struct{}
	locks   map[string]*sync.Mutex

	onDone func(Job, batch.FolderResult, error)
}

type Option func(*FolderQueue)

func WithWorkers(n int) Option {
	return func(q *FolderQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *FolderQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *FolderQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithDoneHook is called by the worker after each job.
func WithDoneHook(fn func(Job, batch.FolderResult, error)) Option {
	return func(q *FolderQueue) { q.onDone = fn }
}

func NewFolderQueue(runner FolderRunner, logger *slog.Logger, opts ...Option) *FolderQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &FolderQueue{
		runner:  runner,
		logger:  logger,
		workers: 2,
		timeout: 30 * time.Minute,
		ch:      make(chan Job, 256),
		pending: make(map[string]struct{}),
		locks:   make(map[string]*sync.Mutex),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *FolderQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *FolderQueue) run(workerID int, job Job) {
	q.mu.Lock()
	// Events arriving from here on queue the folder again.
	delete(q.pending, job.Folder)
	lock, ok := q.locks[job.Folder]
	if !ok {
		lock = &sync.Mutex{}
		q.locks[job.Folder] = lock
	}
	q.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	res, err := q.runner.RunFolder(ctx, job.Folder)
	cancel()

	c := res.Counters
	if err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "folder", job.Folder, "trace_id", job.TraceID, "error", err)
	} else {
		q.logger.Info("queue.job.done",
			"worker_id", workerID,
			"folder", job.Folder,
			"trace_id", job.TraceID,
			"total_files", c.TotalFiles,
			"processed", c.Processed,
			"duplicates", c.Duplicates,
			"errors", c.Errors,
			"elapsed_ms", res.Elapsed.Milliseconds(),
		)
	}
	if q.onDone != nil {
		q.onDone(job, res, err)
	}
}

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Enqueue adds job unless the same folder is already waiting. It blocks while the queue is full
// until ctx is done.
func (q *FolderQueue) Enqueue(ctx context.Context, job Job) error {
	q.sendMu.RLock()
	defer q.sendMu.RUnlock()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("queue.enqueue.closed", "folder", job.Folder)
		return ErrQueueClosed
	}
	if _, waiting := q.pending[job.Folder]; waiting {
		q.mu.Unlock()
		q.logger.Debug("queue.enqueue.coalesced", "folder", job.Folder)
		return nil
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	q.pending[job.Folder] = struct{}{}

	select {
	case q.ch <- job:
		q.mu.Unlock()
		q.logger.Info("queue.enqueued", "folder", job.Folder, "trace_id", job.TraceID)
		return nil
	default:
	}
	q.mu.Unlock()

	q.logger.Warn("queue.full", "folder", job.Folder)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		q.mu.Lock()
		delete(q.pending, job.Folder)
		q.mu.Unlock()
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain or ctx to end.
func (q *FolderQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.sendMu.Lock()
	close(q.ch)
	q.sendMu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}
