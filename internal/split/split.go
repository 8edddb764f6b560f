// Package split breaks multipage PDFs into one file per page so that each page, usually one
// certificate, goes through the batch state machine on its own.
package split

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

// Result describes one split PDF.
type Result struct {
	Source string
	Dir    string
	Pages  []string
	// Existing is set when the split folder was already there and nothing was written.
	Existing bool
}

type Splitter struct {
	conf   *model.Configuration
	logger *slog.Logger
	rename func(from, to string) error
}

func New(logger *slog.Logger) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Splitter{conf: conf, logger: logger, rename: os.Rename}
}

// DirFor returns <folder>/<stem>_paginas_separadas for a PDF path.
func DirFor(pdfPath string) string {
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	return filepath.Join(filepath.Dir(pdfPath), stem+constants.SplitDirSuffix)
}

// PageName returns <stem>_pagina_NN.pdf for a 1-based page number.
func PageName(stem string, page int) string {
	return fmt.Sprintf("%s%s%02d.pdf", stem, constants.SplitPageInfix, page)
}

func (s *Splitter) PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return api.PageCount(f, s.conf)
}

// SplitFolder splits every multipage PDF directly inside candidates and returns the base names
// that must leave the active queue: the originals whose pages now live in a split folder.
// A PDF that cannot be read stays in the queue and will fail extraction on its own.
func (s *Splitter) SplitFolder(ctx context.Context, candidates []string) (map[string]struct{}, []Result) {
	exclude := map[string]struct{}{}
	var results []Result
	for _, path := range candidates {
		if ctx.Err() != nil {
			break
		}
		if constants.MapExtToFormat(filepath.Ext(path)) != constants.PDF {
			continue
		}
		res, err := s.Split(path)
		if err != nil {
			s.logger.Warn("split.failed", "file", filepath.Base(path), "error", err)
			continue
		}
		if res == nil {
			continue
		}
		exclude[filepath.Base(path)] = struct{}{}
		results = append(results, *res)
	}
	return exclude, results
}

// Split writes one PDF per page of path. It returns nil for single-page documents and leaves an
// existing split folder untouched.
func (s *Splitter) Split(path string) (*Result, error) {
	dir := DirFor(path)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		s.logger.Debug("split.exists", "file", filepath.Base(path), "dir", dir)
		return &Result{Source: path, Dir: dir, Existing: true}, nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, common.FileSystemError("inspect split folder", err)
	}

	pages, err := s.PageCount(path)
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if pages <= 1 {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, common.FileSystemError("create split folder", err)
	}
	if err := api.SplitFile(path, dir, 1, s.conf); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("split: %w", err)
	}

	// pdfcpu writes <stem>_<n>.pdf
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	res := &Result{Source: path, Dir: dir}
	for i := 1; i <= pages; i++ {
		from := filepath.Join(dir, fmt.Sprintf("%s_%d.pdf", stem, i))
		to := filepath.Join(dir, PageName(stem, i))
		if err := s.rename(from, to); err != nil {
			// a half-renamed folder would be taken as a finished split on the next run
			_ = os.RemoveAll(dir)
			return nil, common.FileSystemError("name split page", err)
		}
		res.Pages = append(res.Pages, to)
	}
	s.logger.Info("split.ok", "file", filepath.Base(path), "pages", pages, "dir", filepath.Base(dir))
	return res, nil
}
