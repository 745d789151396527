package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vportnov/pod-extractor/internal/core/domain"
)

func newPageRepoWithMock(t *testing.T) (*PageRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &PageRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestPageCreateMarshalsArrays(t *testing.T) {
	repo, mock, done := newPageRepoWithMock(t)
	defer done()

	num := "ABCD1234567"
	size := "40ft"
	state := domain.FullEmptyFull
	page := &domain.PageRecord{
		ID:                "page-1",
		DocumentID:        "doc-1",
		PageNumber:        1,
		ContainerNumbers:  []*string{&num, nil},
		ContainerSizes:    []*string{&size},
		FullEmptyStatuses: []*string{&state},
		UnsureFields:      []string{"containerNumbers"},
		CreatedAt:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO pages").
		WithArgs(
			"page-1", "doc-1", 1,
			[]byte(`["ABCD1234567",null]`), []byte(`["40ft"]`), []byte(`["FULL"]`),
			nil, nil, nil, nil, nil,
			[]byte(`["containerNumbers"]`), page.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), page); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPageListRoundTripsJSONColumns(t *testing.T) {
	repo, mock, done := newPageRepoWithMock(t)
	defer done()

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{
		"id", "document_id", "page_number", "container_numbers", "container_sizes", "full_empty_statuses",
		"page_date", "instruction_number", "vehicle_number", "collected_from", "delivered_to", "unsure_fields", "created_at",
	}
	rows := sqlmock.NewRows(cols).
		AddRow("page-1", "doc-1", 1,
			[]byte(`["ABCD1234567",null]`), []byte(`["40ft",null]`), []byte(`["FULL","EMPTY"]`),
			"2025-06-01", nil, "KA01AB1234", nil, nil, []byte(`["containerSizes"]`), created).
		AddRow("page-2", "doc-1", 2,
			[]byte(`[]`), []byte(`[]`), []byte(`[]`),
			nil, nil, nil, nil, nil, []byte(`["*all*"]`), created)
	mock.ExpectQuery("FROM pages").
		WithArgs("doc-1").
		WillReturnRows(rows)

	pages, err := repo.ListByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}

	first := pages[0]
	if len(first.ContainerNumbers) != 2 || first.ContainerNumbers[1] != nil || *first.ContainerNumbers[0] != "ABCD1234567" {
		t.Fatalf("container numbers did not round-trip: %+v", first.ContainerNumbers)
	}
	if first.PageDate == nil || *first.PageDate != "2025-06-01" {
		t.Fatalf("page date did not round-trip: %v", first.PageDate)
	}
	if first.InstructionNumber != nil {
		t.Fatalf("null scalar must stay nil, got %v", *first.InstructionNumber)
	}

	second := pages[1]
	if len(second.ContainerNumbers) != 0 {
		t.Fatalf("placeholder arrays must stay empty: %+v", second.ContainerNumbers)
	}
	if len(second.UnsureFields) != 1 || second.UnsureFields[0] != domain.UnsureAllFields {
		t.Fatalf("placeholder unsure marker lost: %+v", second.UnsureFields)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
