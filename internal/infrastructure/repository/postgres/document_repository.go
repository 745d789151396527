package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vportnov/pod-extractor/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026052101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	file_size BIGINT NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL DEFAULT '',
	reference_no TEXT NOT NULL DEFAULT '',
	uploaded_by TEXT NOT NULL DEFAULT '',
	org_ref TEXT NOT NULL DEFAULT '',
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	extraction_run_id TEXT NOT NULL DEFAULT '',
	page_count INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS pages (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	page_number INTEGER NOT NULL,
	container_numbers JSONB NOT NULL DEFAULT '[]'::jsonb,
	container_sizes JSONB NOT NULL DEFAULT '[]'::jsonb,
	full_empty_statuses JSONB NOT NULL DEFAULT '[]'::jsonb,
	page_date TEXT,
	instruction_number TEXT,
	vehicle_number TEXT,
	collected_from TEXT,
	delivered_to TEXT,
	unsure_fields JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_pages_document_page ON pages(document_id, page_number);

CREATE TABLE IF NOT EXISTS usage_records (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	run_id TEXT NOT NULL DEFAULT '',
	page_number INTEGER NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	input_tokens BIGINT NOT NULL DEFAULT 0,
	output_tokens BIGINT NOT NULL DEFAULT 0,
	tool_use_tokens BIGINT NOT NULL DEFAULT 0,
	cached_tokens BIGINT NOT NULL DEFAULT 0,
	thinking_tokens BIGINT NOT NULL DEFAULT 0,
	total_tokens BIGINT NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_records_document ON usage_records(document_id, created_at);

CREATE TABLE IF NOT EXISTS extraction_runs (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	attempt INTEGER NOT NULL,
	status TEXT NOT NULL,
	pages_total INTEGER NOT NULL DEFAULT 0,
	pages_done INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	heartbeat_at TIMESTAMPTZ NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_extraction_runs_heartbeat ON extraction_runs(status, heartbeat_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, file_size, content_hash, reference_no, uploaded_by, org_ref, storage_path, status, extraction_run_id, page_count, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`,
		doc.ID, doc.Filename, doc.FileSize, doc.ContentHash, doc.ReferenceNo, doc.UploadedBy, doc.OrgRef,
		doc.StoragePath, string(doc.Status), doc.ExtractionRunID, doc.PageCount, doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

const documentColumns = `id, filename, file_size, content_hash, reference_no, uploaded_by, org_ref, storage_path, status, extraction_run_id, page_count, error_message, created_at, updated_at`

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", err)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) List(ctx context.Context, limit, offset int) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// MarkProcessing claims the document for one run. The status guard makes the
// transition atomic: two concurrent triggers race on the UPDATE and exactly
// one wins.
func (r *DocumentRepository) MarkProcessing(ctx context.Context, id, runID string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, extraction_run_id = $3, error_message = '', updated_at = $4
WHERE id = $1 AND status <> $2
`, id, string(domain.StatusProcessing), runID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark document processing: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark processing rows affected: %w", err)
	}
	if rows == 0 {
		if err := r.exists(ctx, id); err != nil {
			return err
		}
		return domain.WrapError(domain.ErrExtractionInFlight, "mark document processing", fmt.Errorf("document %s already processing", id))
	}
	return nil
}

func (r *DocumentRepository) MarkCompleted(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = '', updated_at = $3
WHERE id = $1
`, id, string(domain.StatusCompleted), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark document completed: %w", err)
	}
	return requireRowAffected(result, "mark document completed", id)
}

// MarkFailed is a no-op when runID is non-empty and a newer run already owns
// the document, so a late sweeper cannot clobber a fresh attempt.
func (r *DocumentRepository) MarkFailed(ctx context.Context, id, runID, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1 AND ($5 = '' OR extraction_run_id = $5)
`, id, string(domain.StatusFailed), errMessage, time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("mark document failed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark failed rows affected: %w", err)
	}
	if rows == 0 {
		return r.exists(ctx, id)
	}
	return nil
}

func (r *DocumentRepository) SetPageCount(ctx context.Context, id string, pageCount int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET page_count = $2, updated_at = $3
WHERE id = $1
`, id, pageCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set page count: %w", err)
	}
	return requireRowAffected(result, "set page count", id)
}

func (r *DocumentRepository) exists(ctx context.Context, id string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(domain.ErrDocumentNotFound, "get document", err)
	}
	if err != nil {
		return fmt.Errorf("probe document: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.FileSize, &doc.ContentHash, &doc.ReferenceNo, &doc.UploadedBy, &doc.OrgRef,
		&doc.StoragePath, &status, &doc.ExtractionRunID, &doc.PageCount, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func requireRowAffected(result sql.Result, operation, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("document %s has no row", id))
	}
	return nil
}
