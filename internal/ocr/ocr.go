package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

type ExtractionResult struct {
	Text     string
	Pages    int
	Format   constants.Format
	Method   string // "pdf-text" | "pdf-ocr" | "image-ocr" | "docx-xml" | "office-pdf-*"
	Language string
	Duration time.Duration
	Warnings []string
}

// Extractor turns a certificate file into plain text using poppler, tesseract and soffice.
type Extractor struct {
	cfg    common.OCRConfig
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg common.OCRConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Soffice == "" {
		cfg.Soffice = "soffice"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "spa"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner, mostly for tests.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Extract picks a strategy based on file extension. Every failure, including an empty result,
// is an EXTRACTION_ERROR.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	e.logger.Debug("ocr.extract.start", "file", filepath.Base(path), "ext", ext, "format", format)

	var (
		res ExtractionResult
		err error
	)
	switch format {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path)
	case constants.DOCX:
		res, err = extractDocx(path)
	case constants.OFFICE:
		res, err = e.extractOffice(ctx, path)
	default:
		e.logger.Warn("ocr.extract.unsupported", "file", filepath.Base(path), "ext", ext)
		return ExtractionResult{Format: format}, common.ExtractionError(fmt.Sprintf("unsupported extension %q", ext), nil)
	}
	res.Format = format
	res.Duration = time.Since(start)
	if err != nil {
		return res, common.ExtractionError(fmt.Sprintf("extract %s", filepath.Base(path)), err)
	}

	res.Text = Normalize(res.Text)
	if strings.TrimSpace(res.Text) == "" {
		return res, common.ExtractionError(fmt.Sprintf("no text found in %s", filepath.Base(path)), nil)
	}
	e.logger.Info("ocr.extract.ok",
		"file", filepath.Base(path),
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
