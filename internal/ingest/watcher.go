package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/naming"
)

type WatchConfig struct {
	Root       string // watched recursively
	SkipHidden bool
	Debounce   time.Duration // coalesce bursts of copies into one folder event
	Logger     *slog.Logger
}

// StartWatcher watches cfg.Root and emits the folder of every new candidate file once the folder
// has been quiet for cfg.Debounce. Vault directories, reports, already renamed files and files
// moved away never trigger an event. Both channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	if cfg.Root == "" {
		return nil, nil, errors.New("no root provided")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("ingest.watch.create_failed", "error", err)
		return nil, nil, err
	}
	addTree := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && (IsVault(path) || (cfg.SkipHidden && IsHidden(path))) {
				return filepath.SkipDir
			}
			return w.Add(path)
		})
	}
	if err := addTree(cfg.Root); err != nil {
		logger.Error("ingest.watch.add_failed", "root", cfg.Root, "error", err)
		_ = w.Close()
		return nil, nil, err
	}

	evCh := make(chan string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("ingest.watch.close_failed", "error", err)
			}
		}()

		pending := map[string]struct{}{}
		timer := time.NewTimer(time.Hour)
		timer.Stop()

		flush := func() {
			for folder := range pending {
				select {
				case evCh <- folder:
				case <-ctx.Done():
					return
				}
				delete(pending, folder)
			}
		}

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) == 0 {
					continue
				}
				if e.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
						if IsVault(e.Name) || (cfg.SkipHidden && IsHidden(e.Name)) {
							continue
						}
						if err := addTree(e.Name); err != nil {
							logger.Warn("ingest.watch.add_failed", "path", e.Name, "error", err)
						}
						pending[e.Name] = struct{}{}
						timer.Reset(cfg.Debounce)
						continue
					}
				}
				if e.Op&fsnotify.Rename != 0 {
					// fsnotify reports a rename under the old name; the new name arrives as Create
					if _, err := os.Lstat(e.Name); errors.Is(err, fs.ErrNotExist) {
						continue
					}
				}
				if !Triggers(e.Name, cfg.SkipHidden) {
					continue
				}
				pending[filepath.Dir(e.Name)] = struct{}{}
				if cfg.Debounce <= 0 {
					flush()
					continue
				}
				timer.Reset(cfg.Debounce)
			case <-timer.C:
				flush()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// Triggers reports whether a change to path should schedule its folder for processing.
func Triggers(path string, skipHidden bool) bool {
	name := filepath.Base(path)
	dir := filepath.Dir(path)
	switch {
	case IsVault(dir),
		skipHidden && IsHidden(name),
		!Allowed(name),
		name == constants.ReportFileName(dir),
		naming.IsAlreadyProcessed(name):
		return false
	}
	return true
}
