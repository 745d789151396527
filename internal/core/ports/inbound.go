package ports

import (
	"context"
	"io"

	"github.com/vportnov/pod-extractor/internal/core/domain"
)

// UploadRequest carries one incoming document upload.
type UploadRequest struct {
	Filename    string
	Size        int64
	UploadedBy  string
	ReferenceNo string
	OrgRef      string
	Body        io.Reader
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, req UploadRequest) (*domain.Document, error)
	RequestExtraction(ctx context.Context, documentID string) (*domain.Document, error)
}

// ExtractionRunner is the inbound contract for asynchronous extraction runs.
type ExtractionRunner interface {
	Run(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for documents, pages and usage.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, limit, offset int) ([]domain.Document, error)
	ListPages(ctx context.Context, documentID string) ([]domain.PageRecord, error)
	ListUsage(ctx context.Context, documentID string) ([]domain.UsageRecord, error)
}

// DocumentExporter renders a document's extraction results as a workbook.
type DocumentExporter interface {
	ExportXLSX(ctx context.Context, documentID string) ([]byte, error)
}
