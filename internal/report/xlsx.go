package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

const (
	SheetCertificates = "Certificaciones"
	SheetSummary      = "Resumen"

	headerRow         = 2
	maxTranscription  = 1000
	statusColumn      = 9
	generatedAtLayout = "02/01/2006 15:04:05"
	generatedAtPrefix = "REPORTE GENERADO EL: "
)

var headers = []string{
	"Nombre del Archivo",
	"Nombre del Certificado",
	"Nombre Completo",
	"Identificación",
	"Institución",
	"Ciudad",
	"Fecha Emisión",
	"Fecha Expiración",
	"Estado",
	"Intensidad (hrs)",
	"Dirigido a",
	"Área",
	"Nivel",
	"Lineamientos",
	"Instructor",
	"NIT Institución",
	"Transcripción",
	"Mensaje Error",
	"Resultado",
	"Archivo Final",
	"Detalle",
}

var columnWidths = []float64{20, 25, 30, 15, 30, 15, 15, 15, 12, 12, 15, 15, 12, 20, 25, 15, 50, 30, 14, 40, 50}

var statusFills = map[constants.ValidityStatus]string{
	constants.ValidityExpired:      "FFCDD2",
	constants.ValidityExpiringSoon: "FFF9C4",
	constants.ValidityValid:        "C8E6C9",
}

// XLSXSink writes reporte_<folder>.xlsx inside each processed folder.
type XLSXSink struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewXLSXSink(logger *slog.Logger) *XLSXSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXSink{logger: logger, now: time.Now}
}

// WithClock overrides the clock used for the generation stamp and validity status.
func (s *XLSXSink) WithClock(now func() time.Time) *XLSXSink {
	s.now = now
	return s
}

// Init opens the folder's workbook, creating it with a header when it does not exist yet.
func (s *XLSXSink) Init(_ context.Context, folder string) (Report, error) {
	path := filepath.Join(folder, constants.ReportFileName(folder))

	var (
		f   *excelize.File
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open report %s: %w", path, err)
		}
		s.logger.Info("report.xlsx.reopened", "path", path)
	} else {
		f = excelize.NewFile()
		if err := f.SetSheetName("Sheet1", SheetCertificates); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	if idx, _ := f.GetSheetIndex(SheetCertificates); idx == -1 {
		if _, err := f.NewSheet(SheetCertificates); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	r := &xlsxReport{f: f, path: path, sink: s}
	rows, err := f.GetRows(SheetCertificates)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read report rows: %w", err)
	}
	if len(rows) < headerRow {
		if err := r.writeHeader(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write report header: %w", err)
		}
		r.next = headerRow + 1
	} else {
		r.next = len(rows) + 1
	}
	if err := f.SaveAs(path); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("save report %s: %w", path, err)
	}
	return r, nil
}

type xlsxReport struct {
	f    *excelize.File
	path string
	next int
	sink *XLSXSink
}

func (r *xlsxReport) writeHeader() error {
	f := r.f
	const sheet = SheetCertificates

	stamp := generatedAtPrefix + r.sink.now().Format(generatedAtLayout)
	if err := f.SetCellValue(sheet, "A1", stamp); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", "D1"); err != nil {
		return err
	}
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1565C0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "D1", titleStyle); err != nil {
		return err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2E86AB"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	if err := f.SetCellStyle(sheet, first, last, headerStyle); err != nil {
		return err
	}

	for i, w := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, w)
	}
	return f.AutoFilter(sheet, first+":"+last, nil)
}

func (r *xlsxReport) AppendProcessed(_ context.Context, rec certificate.Record, original, renamed string) error {
	return r.appendRow(rec, original, constants.CategoryProcessed, renamed, "")
}

func (r *xlsxReport) AppendDuplicate(_ context.Context, rec certificate.Record, original, owner, reason string) error {
	return r.appendRow(rec, original, constants.CategoryDuplicates, owner, reason)
}

func (r *xlsxReport) AppendError(_ context.Context, original, kind, detail string, partial *certificate.Record) error {
	var rec certificate.Record
	if partial != nil {
		rec = *partial
	}
	if !rec.Failed() && detail != "" {
		rec.MessageError = &detail
	}
	return r.appendRow(rec, original, constants.CategoryErrors, "", kind)
}

func (r *xlsxReport) appendRow(rec certificate.Record, original string, cat constants.Category, final, detail string) error {
	status := certificate.Validity(rec.ExpirationDate, r.sink.now())

	var hours any = ""
	if rec.Hours != nil {
		hours = *rec.Hours
	}
	row := []any{
		original,
		certificate.Str(rec.CertificateName),
		certificate.Str(rec.ParticipantName),
		certificate.Str(rec.Identification),
		certificate.Str(rec.Institution),
		certificate.Str(rec.City),
		certificate.DisplayDate(rec.IssueDate),
		certificate.DisplayDate(rec.ExpirationDate),
		string(status),
		hours,
		certificate.Str(rec.TargetAudience),
		certificate.Str(rec.SpecializationArea),
		certificate.Str(rec.Level),
		certificate.Str(rec.Guidelines),
		certificate.Str(rec.Instructor),
		certificate.Str(rec.InstitutionNIT),
		common.Truncate(rec.Transcription, maxTranscription),
		certificate.Str(rec.MessageError),
		cat.Label(),
		final,
		detail,
	}

	cell, _ := excelize.CoordinatesToCellName(1, r.next)
	if err := r.f.SetSheetRow(SheetCertificates, cell, &row); err != nil {
		return fmt.Errorf("write report row: %w", err)
	}
	if fill, ok := statusFills[status]; ok {
		style, err := r.f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		})
		if err == nil {
			statusCell, _ := excelize.CoordinatesToCellName(statusColumn, r.next)
			_ = r.f.SetCellStyle(SheetCertificates, statusCell, statusCell, style)
		}
	}
	if err := r.f.Save(); err != nil {
		return fmt.Errorf("save report %s: %w", r.path, err)
	}
	r.sink.logger.Debug("report.xlsx.saved", "path", r.path, "row", r.next, "file", original, "category", cat)
	r.next++
	return nil
}

func (r *xlsxReport) FinalizeSummary(_ context.Context, c Counters) error {
	defer func() { _ = r.f.Close() }()

	idx, _ := r.f.GetSheetIndex(SheetSummary)
	if idx == -1 {
		if _, err := r.f.NewSheet(SheetSummary); err != nil {
			return err
		}
	}
	rows := [][]any{
		{"Métrica", "Cantidad", "Porcentaje"},
		{"Total archivos", c.TotalFiles, percent(c, c.TotalFiles)},
		{"Procesados", c.Processed, percent(c, c.Processed)},
		{"Duplicados", c.Duplicates, percent(c, c.Duplicates)},
		{"Errores", c.Errors, percent(c, c.Errors)},
		{"Ya procesados", c.AlreadyProcessed, percent(c, c.AlreadyProcessed)},
		{"Actualizado", r.sink.now().Format(generatedAtLayout), ""},
	}
	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := r.f.SetSheetRow(SheetSummary, cell, &rows[i]); err != nil {
			return err
		}
	}
	_ = r.f.SetColWidth(SheetSummary, "A", "A", 18)
	_ = r.f.SetColWidth(SheetSummary, "B", "C", 12)

	if certIdx, _ := r.f.GetSheetIndex(SheetCertificates); certIdx >= 0 {
		r.f.SetActiveSheet(certIdx)
	}
	if err := r.f.Save(); err != nil {
		return fmt.Errorf("save report %s: %w", r.path, err)
	}
	r.sink.logger.Info("report.xlsx.finalized", "path", r.path, "rows", r.next-headerRow-1, "total_files", c.TotalFiles)
	return nil
}

func percent(c Counters, n int) string {
	return fmt.Sprintf("%.1f%%", c.Percent(n))
}
