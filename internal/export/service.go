// Package export renders a processed document as an XLSX workbook: one row
// per page with the canonical extracted fields and classification.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/karimbenali/docpipe/internal/core/domain"
	"github.com/karimbenali/docpipe/internal/core/ports"
)

type Service struct {
	repo   ports.DocumentRepository
	logger *slog.Logger
}

func NewService(repo ports.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportDocumentXLSX returns the workbook bytes for one document. Pages that
// failed still get a row so the reader can see the gap.
func (s *Service) ExportDocumentXLSX(ctx context.Context, documentID string) ([]byte, error) {
	start := time.Now()

	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Extracted Fields"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet excelize creates.
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Page",
		"Status",
		"Document Number",
		"Date",
		"Document Type",
		"Issuing Authority",
		"Primary Name",
		"Responsible Party",
		"Subject",
		"Category",
		"Confidence",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, page := range doc.Pages {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		status := "ok"
		if !page.Success {
			status = "failed"
		}
		write(1, page.PageNumber)
		write(2, status)

		fields := page.Fields
		if fields == nil {
			fields = domain.FieldSet{}
		}
		for i, key := range domain.CanonicalFields {
			if value, ok := fields[key]; ok {
				write(3+i, value.Wire())
			} else {
				write(3+i, "")
			}
		}

		write(10, page.Classification.Category)
		write(11, page.Classification.Confidence)
		write(12, truncate(page.Error, 140))
		row++
	}

	_ = f.SetColWidth(sheet, "A", "B", 8)
	_ = f.SetColWidth(sheet, "C", "I", 26)
	_ = f.SetColWidth(sheet, "J", "K", 16)
	_ = f.SetColWidth(sheet, "L", "L", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export_xlsx",
		"document_id", documentID,
		"rows", len(doc.Pages),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
