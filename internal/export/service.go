package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"huoltokirja/constants"
	"huoltokirja/internal/repository"
	"huoltokirja/internal/verify"
)

// Service produces XLSX bytes from the reconciled records, resolved
// against the verified data so exports always reflect corrections.
type Service struct {
	store  *repository.Store
	verify *verify.Store
	logger *slog.Logger
}

func NewService(store *repository.Store, verifyStore *verify.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, verify: verifyStore, logger: logger}
}

// ExportRecordsXLSX returns an XLSX workbook with one row per parsed
// document. If only from is provided -> from..today (inclusive).
// If neither bound is provided -> all documents.
func (s *Service) ExportRecordsXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Records"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// drop the default sheet so the workbook opens on Records
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Document",
		"Date",
		"Company",
		"Amount (EUR)",
		"VAT (EUR)",
		"Invoice Number",
		"Odometer (km)",
		"Work Description",
		"Source",
		"File Path",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	exported := 0
	for _, doc := range docs {
		if doc.Status != constants.DocStatusParsed {
			continue
		}

		rec, err := s.store.GetRecord(ctx, doc.ID)
		if err != nil {
			s.logger.Warn("export.record.missing", "doc_id", doc.ID, "err", err)
			continue
		}
		gt, _ := s.verify.GroundTruth(doc.ID)
		ov, _ := s.verify.Override(doc.ID)
		final := verify.Resolve(rec, gt, ov)

		recDate, hasDate := recordDate(final.Fields)
		if hasDate {
			if fromDate != nil && recDate.Before(*fromDate) {
				continue
			}
			if toDate != nil && recDate.After(*toDate) {
				continue
			}
		} else if fromDate != nil || toDate != nil {
			continue
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, doc.ID)
		write(2, stringField(final.Fields, constants.FieldDate))
		write(3, stringField(final.Fields, constants.FieldCompany))
		write(4, final.Fields[constants.FieldAmount])
		write(5, final.Fields[constants.FieldVATAmount])
		write(6, stringField(final.Fields, constants.FieldInvoiceNumber))
		write(7, final.Fields[constants.FieldOdometerKM])
		write(8, joinWork(final.Fields[constants.FieldWorkDescription]))
		write(9, final.Source)
		write(10, doc.SourcePath)

		row++
		exported++
	}

	_ = f.SetColWidth(sheet, "A", "A", 36) // document
	_ = f.SetColWidth(sheet, "B", "B", 12) // date
	_ = f.SetColWidth(sheet, "C", "C", 28) // company
	_ = f.SetColWidth(sheet, "D", "E", 12) // amounts
	_ = f.SetColWidth(sheet, "F", "F", 16) // invoice
	_ = f.SetColWidth(sheet, "G", "G", 14) // odometer
	_ = f.SetColWidth(sheet, "H", "H", 48) // work
	_ = f.SetColWidth(sheet, "I", "I", 12) // source
	_ = f.SetColWidth(sheet, "J", "J", 60) // path

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", exported,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func recordDate(fields map[string]any) (time.Time, bool) {
	s, ok := fields[constants.FieldDate].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func stringField(fields map[string]any, name string) string {
	if v, ok := fields[name]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

func joinWork(v any) string {
	switch list := v.(type) {
	case []string:
		return strings.Join(list, "; ")
	case []any:
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, "; ")
	case string:
		return list
	}
	return ""
}
