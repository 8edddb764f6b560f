package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

// ListOptions controls which files of a folder become candidates.
type ListOptions struct {
	SkipHidden bool
	// Exclude holds base names removed from the listing, e.g. multipage originals that were split.
	Exclude map[string]struct{}
}

// DirStats summarizes one listing.
type DirStats struct {
	Scanned  uint32
	Matched  uint32
	Excluded uint32
}

// ListCandidates returns the regular files directly inside folder, in lexical order, minus
// forbidden extensions, hidden files, the folder's own report and any name in opts.Exclude.
func ListCandidates(folder string, opts ListOptions) ([]string, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(folder) == "" {
		return nil, stats, errors.New("folder is required")
	}
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, stats, common.FileSystemError(fmt.Sprintf("list folder %s", folder), err)
	}
	report := constants.ReportFileName(folder)

	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		stats.Scanned++
		name := e.Name()
		switch {
		case opts.SkipHidden && IsHidden(name),
			!Allowed(name),
			name == report:
			stats.Excluded++
			continue
		}
		if _, skip := opts.Exclude[name]; skip {
			stats.Excluded++
			continue
		}
		out = append(out, filepath.Join(folder, name))
		stats.Matched++
	}
	return out, stats, nil
}

// WalkFolders calls fn for root and for every directory below it, parents before children.
// Vault directories are never visited, and hidden directories are skipped when skipHidden is set.
// fn runs before the directory's entries are read, so folders created by fn (split output) are
// visited too. An error from fn stops the walk.
func WalkFolders(ctx context.Context, root string, skipHidden bool, fn func(ctx context.Context, folder string) error) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", root)
		}
		return common.NewAppError(common.CodeRootNotFound, fmt.Sprintf("root folder %s not found", root), fmt.Errorf("%w: %w", common.ErrRootNotFound, err))
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			slog.Warn("ingest.walk.error", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (IsVault(path) || (skipHidden && IsHidden(path))) {
			return filepath.SkipDir
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(ctx, path)
	})
}
