package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vportnov/pod-extractor/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

var documentColumnNames = []string{
	"id", "filename", "file_size", "content_hash", "reference_no", "uploaded_by", "org_ref",
	"storage_path", "status", "extraction_run_id", "page_count", "error_message", "created_at", "updated_at",
}

func documentRow(id string, status domain.DocumentStatus, createdAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(documentColumnNames).AddRow(
		id, "pod.pdf", int64(2048), "hash", "TRX-1", "user-7", "org-1",
		"docs/"+id+"_pod.pdf", string(status), "run-1", 3, "", createdAt, createdAt,
	)
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, file_size").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDScansFullRow(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, filename, file_size").
		WithArgs("doc-1").
		WillReturnRows(documentRow("doc-1", domain.StatusCompleted, created))

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want COMPLETED", doc.Status)
	}
	if doc.UploadedBy != "user-7" || doc.PageCount != 3 || doc.ExtractionRunID != "run-1" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListPassesWindowToQuery(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := documentRow("doc-2", domain.StatusIdeal, created.Add(time.Hour)).AddRow(
		"doc-1", "pod.pdf", int64(2048), "hash", "TRX-1", "user-7", "org-1",
		"docs/doc-1_pod.pdf", string(domain.StatusCompleted), "", 0, "", created, created,
	)
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(20, 40).
		WillReturnRows(rows)

	docs, err := repo.List(context.Background(), 20, 40)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "doc-2" {
		t.Fatalf("unexpected listing: %+v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkProcessingClaimsDocument(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", string(domain.StatusProcessing), "run-9", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkProcessing(context.Background(), "doc-1", "run-9"); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkProcessingAlreadyInFlight(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", string(domain.StatusProcessing), "run-9", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM documents").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))

	err := repo.MarkProcessing(context.Background(), "doc-1", "run-9")
	if !domain.IsKind(err, domain.ErrExtractionInFlight) {
		t.Fatalf("expected ErrExtractionInFlight, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkProcessingUnknownDocument(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusProcessing), "run-9", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM documents").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	err := repo.MarkProcessing(context.Background(), "missing", "run-9")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkFailedSkipsWhenNewerRunOwnsDocument(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", string(domain.StatusFailed), "boom", sqlmock.AnyArg(), "run-old").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM documents").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))

	// Row exists but carries a different run id, so the stale failure is a no-op.
	if err := repo.MarkFailed(context.Background(), "doc-1", "run-old", "boom"); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkCompletedUnknownDocument(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusCompleted), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkCompleted(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSetPageCountUpdatesRow(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", 7, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetPageCount(context.Background(), "doc-1", 7); err != nil {
		t.Fatalf("SetPageCount() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
