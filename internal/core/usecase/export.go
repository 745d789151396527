package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vportnov/pod-extractor/internal/core/domain"
	"github.com/vportnov/pod-extractor/internal/core/ports"
)

const (
	exportPagesSheet = "Pages"
	exportUsageSheet = "Usage"
)

// ExportDocumentUseCase renders a document's extraction results as an XLSX
// workbook: one container line item per row on the Pages sheet, one model
// invocation per row on the Usage sheet.
type ExportDocumentUseCase struct {
	repo  ports.DocumentRepository
	pages ports.PageRepository
	usage ports.UsageRepository
}

func NewExportDocumentUseCase(
	repo ports.DocumentRepository,
	pages ports.PageRepository,
	usage ports.UsageRepository,
) *ExportDocumentUseCase {
	return &ExportDocumentUseCase{
		repo:  repo,
		pages: pages,
		usage: usage,
	}
}

func (uc *ExportDocumentUseCase) ExportXLSX(ctx context.Context, documentID string) ([]byte, error) {
	if _, err := uc.repo.GetByID(ctx, documentID); err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	pages, err := uc.pages.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list page records: %w", err)
	}
	usage, err := uc.usage.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list usage records: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportPagesSheet); err != nil {
		return nil, fmt.Errorf("name pages sheet: %w", err)
	}
	if _, err := f.NewSheet(exportUsageSheet); err != nil {
		return nil, fmt.Errorf("create usage sheet: %w", err)
	}

	if err := writePagesSheet(f, pages); err != nil {
		return nil, err
	}
	if err := writeUsageSheet(f, usage); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writePagesSheet(f *excelize.File, pages []domain.PageRecord) error {
	headers := []string{
		"Page",
		"Container Number",
		"Container Size",
		"Full/Empty",
		"Page Date",
		"Instruction No",
		"Vehicle No",
		"Collected From",
		"Delivered To",
		"Unsure Fields",
	}
	if err := writeRow(f, exportPagesSheet, 1, headers); err != nil {
		return err
	}

	row := 2
	for _, page := range pages {
		lines := containerLines(page)
		if lines == 0 {
			// Placeholder or container-free page: keep one row so the page
			// and its unsure markers stay visible.
			if err := writeRow(f, exportPagesSheet, row, []any{
				page.PageNumber, "", "", "",
				deref(page.PageDate),
				deref(page.InstructionNumber),
				deref(page.VehicleNumber),
				deref(page.CollectedFrom),
				deref(page.DeliveredTo),
				strings.Join(page.UnsureFields, ", "),
			}); err != nil {
				return err
			}
			row++
			continue
		}
		for i := 0; i < lines; i++ {
			if err := writeRow(f, exportPagesSheet, row, []any{
				page.PageNumber,
				derefAt(page.ContainerNumbers, i),
				derefAt(page.ContainerSizes, i),
				derefAt(page.FullEmptyStatuses, i),
				deref(page.PageDate),
				deref(page.InstructionNumber),
				deref(page.VehicleNumber),
				deref(page.CollectedFrom),
				deref(page.DeliveredTo),
				strings.Join(page.UnsureFields, ", "),
			}); err != nil {
				return err
			}
			row++
		}
	}

	return nil
}

func writeUsageSheet(f *excelize.File, usage []domain.UsageRecord) error {
	headers := []string{
		"Page",
		"Request ID",
		"Model",
		"Input Tokens",
		"Output Tokens",
		"Tool Use Tokens",
		"Cached Tokens",
		"Thinking Tokens",
		"Total Tokens",
		"Duration (ms)",
		"Created At",
	}
	if err := writeRow(f, exportUsageSheet, 1, headers); err != nil {
		return err
	}

	var totals domain.TokenUsage
	var totalDuration int64
	row := 2
	for _, rec := range usage {
		if err := writeRow(f, exportUsageSheet, row, []any{
			rec.PageNumber,
			rec.ID,
			rec.Model,
			rec.InputTokens,
			rec.OutputTokens,
			rec.ToolUseTokens,
			rec.CachedTokens,
			rec.ThinkingTokens,
			rec.TotalTokens,
			rec.DurationMS,
			rec.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}); err != nil {
			return err
		}
		totals.InputTokens += rec.InputTokens
		totals.OutputTokens += rec.OutputTokens
		totals.ToolUseTokens += rec.ToolUseTokens
		totals.CachedTokens += rec.CachedTokens
		totals.ThinkingTokens += rec.ThinkingTokens
		totals.TotalTokens += rec.TotalTokens
		totalDuration += rec.DurationMS
		row++
	}

	return writeRow(f, exportUsageSheet, row, []any{
		"", "Total", "",
		totals.InputTokens,
		totals.OutputTokens,
		totals.ToolUseTokens,
		totals.CachedTokens,
		totals.ThinkingTokens,
		totals.TotalTokens,
		totalDuration,
		"",
	})
}

func writeRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("cell name for column %d: %w", i+1, err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write cell %s: %w", cell, err)
		}
	}
	return nil
}

func containerLines(page domain.PageRecord) int {
	lines := len(page.ContainerNumbers)
	if n := len(page.ContainerSizes); n > lines {
		lines = n
	}
	if n := len(page.FullEmptyStatuses); n > lines {
		lines = n
	}
	return lines
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefAt(arr []*string, i int) string {
	if i >= len(arr) {
		return ""
	}
	return deref(arr[i])
}
