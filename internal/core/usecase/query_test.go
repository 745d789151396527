package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vportnov/pod-extractor/internal/core/domain"
)

type queryRepoFake struct {
	docs       []domain.Document
	lastLimit  int
	lastOffset int
	getErr     error
}

func (f *queryRepoFake) Create(context.Context, *domain.Document) error {
	return errors.New("not implemented")
}

func (f *queryRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i := range f.docs {
		if f.docs[i].ID == id {
			copyDoc := f.docs[i]
			return &copyDoc, nil
		}
	}
	return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("no rows"))
}

// List mimics the store contract: created-at descending, then window.
func (f *queryRepoFake) List(_ context.Context, limit, offset int) ([]domain.Document, error) {
	f.lastLimit = limit
	f.lastOffset = offset
	sorted := append([]domain.Document(nil), f.docs...)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].CreatedAt.After(sorted[i].CreatedAt) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	if offset >= len(sorted) {
		return nil, nil
	}
	sorted = sorted[offset:]
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (f *queryRepoFake) MarkProcessing(context.Context, string, string) error {
	return errors.New("not implemented")
}
func (f *queryRepoFake) MarkCompleted(context.Context, string) error {
	return errors.New("not implemented")
}
func (f *queryRepoFake) MarkFailed(context.Context, string, string, string) error {
	return errors.New("not implemented")
}
func (f *queryRepoFake) SetPageCount(context.Context, string, int) error {
	return errors.New("not implemented")
}

type queryPagesFake struct {
	records []domain.PageRecord
	err     error
}

func (f *queryPagesFake) Create(context.Context, *domain.PageRecord) error {
	return errors.New("not implemented")
}

func (f *queryPagesFake) ListByDocument(context.Context, string) ([]domain.PageRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.PageRecord(nil), f.records...), nil
}

type queryUsageFake struct {
	records []domain.UsageRecord
}

func (f *queryUsageFake) Create(context.Context, *domain.UsageRecord) error {
	return errors.New("not implemented")
}

func (f *queryUsageFake) ListByDocument(context.Context, string) ([]domain.UsageRecord, error) {
	return append([]domain.UsageRecord(nil), f.records...), nil
}

func fiveDocuments() []domain.Document {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docs := make([]domain.Document, 0, 5)
	for i := 0; i < 5; i++ {
		docs = append(docs, domain.Document{
			ID:        string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return docs
}

func TestListReturnsNewestWindowFirst(t *testing.T) {
	repo := &queryRepoFake{docs: fiveDocuments()}
	uc := NewQueryDocumentsUseCase(repo, &queryPagesFake{}, &queryUsageFake{})

	first, err := uc.List(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(first) != 2 || first[0].ID != "e" || first[1].ID != "d" {
		t.Fatalf("expected the two most recent documents, got %+v", first)
	}

	second, err := uc.List(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(second) != 2 || second[0].ID != "c" || second[1].ID != "b" {
		t.Fatalf("expected the next window, got %+v", second)
	}
}

func TestListClampsLimitAndOffset(t *testing.T) {
	repo := &queryRepoFake{docs: fiveDocuments()}
	uc := NewQueryDocumentsUseCase(repo, &queryPagesFake{}, &queryUsageFake{})

	if _, err := uc.List(context.Background(), 0, -3); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if repo.lastLimit != 20 || repo.lastOffset != 0 {
		t.Fatalf("expected defaults limit=20 offset=0, got %d/%d", repo.lastLimit, repo.lastOffset)
	}

	if _, err := uc.List(context.Background(), 500, 4); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if repo.lastLimit != 100 || repo.lastOffset != 4 {
		t.Fatalf("expected limit capped at 100, got %d/%d", repo.lastLimit, repo.lastOffset)
	}
}

func TestListPagesUnknownDocument(t *testing.T) {
	uc := NewQueryDocumentsUseCase(&queryRepoFake{}, &queryPagesFake{}, &queryUsageFake{})

	_, err := uc.ListPages(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListPagesReturnsRecords(t *testing.T) {
	repo := &queryRepoFake{docs: []domain.Document{{ID: "doc-1"}}}
	pages := &queryPagesFake{records: []domain.PageRecord{
		{DocumentID: "doc-1", PageNumber: 1},
		{DocumentID: "doc-1", PageNumber: 2},
	}}
	uc := NewQueryDocumentsUseCase(repo, pages, &queryUsageFake{})

	records, err := uc.ListPages(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ListPages() error = %v", err)
	}
	if len(records) != 2 || records[0].PageNumber != 1 || records[1].PageNumber != 2 {
		t.Fatalf("unexpected page records: %+v", records)
	}
}

func TestListUsageUnknownDocument(t *testing.T) {
	uc := NewQueryDocumentsUseCase(&queryRepoFake{}, &queryPagesFake{}, &queryUsageFake{})

	_, err := uc.ListUsage(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetByIDPassesThrough(t *testing.T) {
	repo := &queryRepoFake{docs: []domain.Document{{ID: "doc-1", Status: domain.StatusProcessing, ExtractionRunID: "run-3"}}}
	uc := NewQueryDocumentsUseCase(repo, &queryPagesFake{}, &queryUsageFake{})

	doc, err := uc.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Status != domain.StatusProcessing || doc.ExtractionRunID != "run-3" {
		t.Fatalf("status surface lost fields: %+v", doc)
	}
}
