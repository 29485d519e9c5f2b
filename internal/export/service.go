// Package export renders laborer W-9 review queues as spreadsheets.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/entity"
	"github.com/joseph-ayodele/docintel/internal/repository"
)

const reviewSheet = "Review Queue"

var reviewHeaders = []string{
	"Laborer ID",
	"Display Name",
	"W-9 Status",
	"Error",
	"Legal Name",
	"Business Name",
	"TIN Type",
	"TIN Last 4",
	"OCR Confidence",
	"Source File",
	"Status Updated",
}

// Service produces XLSX bytes from the laborer record store.
type Service struct {
	laborers repository.Laborers
	logger   *slog.Logger
}

func NewService(laborers repository.Laborers, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{laborers: laborers, logger: logger}
}

// ReviewQueueXLSX returns a workbook of the user's laborers whose W-9 needs a human:
// status needs_review or failed.
func (s *Service) ReviewQueueXLSX(ctx context.Context, userID string) ([]byte, error) {
	start := time.Now()

	recs, err := s.laborers.List(ctx, userID, string(constants.OcrStatusNeedsReview), string(constants.OcrStatusFailed))
	if err != nil {
		return nil, fmt.Errorf("query laborers: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", reviewSheet); err != nil {
		return nil, err
	}

	for i, h := range reviewHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(reviewSheet, cell, h)
	}

	for i, r := range recs {
		row := i + 2
		for col, v := range reviewRow(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(reviewSheet, cell, v)
		}
	}

	_ = f.SetColWidth(reviewSheet, "A", "B", 24)
	_ = f.SetColWidth(reviewSheet, "C", "C", 14)
	_ = f.SetColWidth(reviewSheet, "D", "D", 48)
	_ = f.SetColWidth(reviewSheet, "E", "F", 28)
	_ = f.SetColWidth(reviewSheet, "G", "I", 14)
	_ = f.SetColWidth(reviewSheet, "J", "J", 60)
	_ = f.SetColWidth(reviewSheet, "K", "K", 22)
	_ = f.SetPanes(reviewSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.review.ok",
		"user_id", userID,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func reviewRow(r *entity.LaborerRecord) []any {
	info := r.W9Info
	if info == nil {
		info = &entity.W9Info{}
	}
	updated := ""
	if r.OcrUpdatedAt != nil {
		updated = r.OcrUpdatedAt.UTC().Format(time.RFC3339)
	}
	return []any{
		r.LaborerID,
		r.DisplayName,
		r.OcrStatus,
		truncate(r.OcrError, 140),
		info.LegalName,
		info.BusinessName,
		info.TinType,
		info.TinLast4,
		info.OcrConfidence,
		r.SourceFilePath,
		updated,
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
