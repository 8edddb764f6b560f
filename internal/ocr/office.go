package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// extractOffice converts PPTX/PPT/DOC to PDF with LibreOffice and extracts the PDF.
func (e *Extractor) extractOffice(ctx context.Context, path string) (ExtractionResult, error) {
	tmpDir, err := os.MkdirTemp(e.cfg.TempDir, "cert-office-*")
	if err != nil {
		return ExtractionResult{}, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr.tmp.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	// soffice --headless --convert-to pdf --outdir <tmp> <file>
	_, errb, err := e.runner.Run(ctx, e.cfg.Soffice, "--headless", "--convert-to", "pdf", "--outdir", tmpDir, path)
	if err != nil {
		return ExtractionResult{Warnings: []string{string(errb)}}, fmt.Errorf("soffice: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	pdf := filepath.Join(tmpDir, stem+".pdf")
	if _, err := os.Stat(pdf); err != nil {
		return ExtractionResult{}, fmt.Errorf("soffice produced no pdf: %w", err)
	}

	res, err := e.extractPDF(ctx, pdf)
	res.Method = "office-" + res.Method
	return res, err
}
