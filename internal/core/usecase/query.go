package usecase

import (
	"context"
	"fmt"

	"github.com/vportnov/pod-extractor/internal/core/domain"
	"github.com/vportnov/pod-extractor/internal/core/ports"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type QueryDocumentsUseCase struct {
	repo  ports.DocumentRepository
	pages ports.PageRepository
	usage ports.UsageRepository
}

func NewQueryDocumentsUseCase(
	repo ports.DocumentRepository,
	pages ports.PageRepository,
	usage ports.UsageRepository,
) *QueryDocumentsUseCase {
	return &QueryDocumentsUseCase{
		repo:  repo,
		pages: pages,
		usage: usage,
	}
}

func (uc *QueryDocumentsUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

// List clamps limit to 1..100 (default 20) and floors offset at zero, so
// handlers can pass user input straight through. Results are ordered by
// creation time descending.
func (uc *QueryDocumentsUseCase) List(ctx context.Context, limit, offset int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// ListPages returns the document's page records in page-number order. Readers
// may observe a partial prefix while a run is still in flight.
func (uc *QueryDocumentsUseCase) ListPages(ctx context.Context, documentID string) ([]domain.PageRecord, error) {
	if _, err := uc.repo.GetByID(ctx, documentID); err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	records, err := uc.pages.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list page records: %w", err)
	}
	return records, nil
}

// ListUsage returns the document's usage records newest first.
func (uc *QueryDocumentsUseCase) ListUsage(ctx context.Context, documentID string) ([]domain.UsageRecord, error) {
	if _, err := uc.repo.GetByID(ctx, documentID); err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	records, err := uc.usage.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list usage records: %w", err)
	}
	return records, nil
}
