package usecase

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vportnov/pod-extractor/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func TestExportXLSXWritesPagesAndUsage(t *testing.T) {
	repo := &queryRepoFake{docs: []domain.Document{{ID: "doc-1", Filename: "pod.pdf"}}}
	pages := &queryPagesFake{records: []domain.PageRecord{
		{
			DocumentID:        "doc-1",
			PageNumber:        1,
			ContainerNumbers:  []*string{strPtr("ABCD1234567"), nil},
			ContainerSizes:    []*string{strPtr("40ft"), strPtr("20ft")},
			FullEmptyStatuses: []*string{strPtr(domain.FullEmptyFull), strPtr(domain.FullEmptyEmpty)},
			PageDate:          strPtr("2025-06-01"),
			UnsureFields:      []string{"containerNumbers"},
		},
		{
			DocumentID:        "doc-1",
			PageNumber:        2,
			ContainerNumbers:  []*string{},
			ContainerSizes:    []*string{},
			FullEmptyStatuses: []*string{},
			UnsureFields:      []string{domain.UnsureAllFields},
		},
	}}
	usage := &queryUsageFake{records: []domain.UsageRecord{
		{
			ID:         "req-1",
			DocumentID: "doc-1",
			PageNumber: 1,
			Model:      "stub-extractor",
			TokenUsage: domain.TokenUsage{InputTokens: 60, OutputTokens: 40, TotalTokens: 100},
			DurationMS: 1200,
			CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:         "req-2",
			DocumentID: "doc-1",
			PageNumber: 2,
			Model:      "stub-extractor",
			TokenUsage: domain.TokenUsage{InputTokens: 90, OutputTokens: 60, TotalTokens: 150},
			DurationMS: 900,
			CreatedAt:  time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC),
		},
	}}
	uc := NewExportDocumentUseCase(repo, pages, usage)

	data, err := uc.ExportXLSX(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	pageRows, err := f.GetRows("Pages")
	if err != nil {
		t.Fatalf("read Pages sheet: %v", err)
	}
	// Header, two container lines for page 1, one placeholder line for page 2.
	if len(pageRows) != 4 {
		t.Fatalf("expected 4 rows on Pages sheet, got %d", len(pageRows))
	}
	if pageRows[1][1] != "ABCD1234567" || pageRows[1][2] != "40ft" || pageRows[1][3] != "FULL" {
		t.Fatalf("unexpected first container line: %v", pageRows[1])
	}
	if pageRows[2][1] != "" || pageRows[2][2] != "20ft" {
		t.Fatalf("null container number must export as blank: %v", pageRows[2])
	}
	if pageRows[3][0] != "2" {
		t.Fatalf("placeholder page must keep its page number: %v", pageRows[3])
	}
	if pageRows[3][len(pageRows[3])-1] != domain.UnsureAllFields {
		t.Fatalf("placeholder page must carry the unsure marker: %v", pageRows[3])
	}

	usageRows, err := f.GetRows("Usage")
	if err != nil {
		t.Fatalf("read Usage sheet: %v", err)
	}
	// Header, two records, totals.
	if len(usageRows) != 4 {
		t.Fatalf("expected 4 rows on Usage sheet, got %d", len(usageRows))
	}
	if usageRows[1][1] != "req-1" || usageRows[2][1] != "req-2" {
		t.Fatalf("usage request ids missing: %v", usageRows)
	}
	totals := usageRows[3]
	if totals[1] != "Total" || totals[8] != "250" {
		t.Fatalf("unexpected totals row: %v", totals)
	}
}

func TestExportXLSXUnknownDocument(t *testing.T) {
	uc := NewExportDocumentUseCase(&queryRepoFake{}, &queryPagesFake{}, &queryUsageFake{})

	_, err := uc.ExportXLSX(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
