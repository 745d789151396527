package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vportnov/pod-extractor/internal/core/domain"
	"github.com/vportnov/pod-extractor/internal/core/ports"
)

// RunObserver receives page-level outcomes. The worker feeds these into its
// metrics; a nil observer is fine.
type RunObserver interface {
	PageExtracted()
	PlaceholderWritten()
}

type ExtractDocumentUseCase struct {
	repo     ports.DocumentRepository
	pages    ports.PageRepository
	runs     ports.RunRepository
	storage  ports.ObjectStorage
	counter  ports.PageCounter
	pageUnit *PageExtractor
	logger   *slog.Logger
	observer RunObserver
}

// SetObserver installs the page outcome observer. Call before Run.
func (uc *ExtractDocumentUseCase) SetObserver(observer RunObserver) {
	uc.observer = observer
}

func NewExtractDocumentUseCase(
	repo ports.DocumentRepository,
	pages ports.PageRepository,
	runs ports.RunRepository,
	storage ports.ObjectStorage,
	counter ports.PageCounter,
	pageUnit *PageExtractor,
	logger *slog.Logger,
) *ExtractDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractDocumentUseCase{
		repo:     repo,
		pages:    pages,
		runs:     runs,
		storage:  storage,
		counter:  counter,
		pageUnit: pageUnit,
		logger:   logger,
	}
}

// Run drives one extraction attempt end to end. The document enters
// PROCESSING before any page work so status polls are never stale. Page-level
// failures become placeholder records and never abort the run; anything
// escaping the per-page guard flips the document to FAILED.
func (uc *ExtractDocumentUseCase) Run(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	runID := uuid.NewString()
	if err := uc.repo.MarkProcessing(ctx, doc.ID, runID); err != nil {
		if domain.IsKind(err, domain.ErrExtractionInFlight) {
			uc.logger.Warn("extraction already in flight, dropping request",
				"document_id", doc.ID)
			return err
		}
		return fmt.Errorf("set status=processing: %w", err)
	}

	now := time.Now().UTC()
	run := &domain.ExtractionRun{
		ID:          runID,
		DocumentID:  doc.ID,
		Status:      domain.RunStatusRunning,
		HeartbeatAt: now,
		StartedAt:   now,
	}
	if err := uc.runs.Create(ctx, run); err != nil {
		return uc.failRun(ctx, doc.ID, runID, fmt.Errorf("create extraction run: %w", err))
	}

	if err := uc.processPages(ctx, doc, run); err != nil {
		return uc.failRun(ctx, doc.ID, runID, err)
	}

	if err := uc.repo.MarkCompleted(ctx, doc.ID); err != nil {
		return uc.failRun(ctx, doc.ID, runID, fmt.Errorf("set status=completed: %w", err))
	}
	if err := uc.runs.Finish(ctx, runID, domain.RunStatusCompleted, ""); err != nil {
		return fmt.Errorf("finish extraction run: %w", err)
	}

	return nil
}

func (uc *ExtractDocumentUseCase) processPages(ctx context.Context, doc *domain.Document, run *domain.ExtractionRun) error {
	fileBytes, err := uc.loadPayload(ctx, doc)
	if err != nil {
		return err
	}

	pageCount, err := uc.counter.Count(fileBytes)
	if err != nil {
		return fmt.Errorf("count pdf pages: %w", err)
	}
	if pageCount < 1 {
		return domain.WrapError(domain.ErrInvalidInput, "count pdf pages", fmt.Errorf("document has %d pages", pageCount))
	}
	if err := uc.repo.SetPageCount(ctx, doc.ID, pageCount); err != nil {
		return fmt.Errorf("record page count: %w", err)
	}
	if err := uc.runs.SetPagesTotal(ctx, run.ID, pageCount); err != nil {
		return fmt.Errorf("record run page total: %w", err)
	}

	// Pages run strictly sequentially; a failed page becomes a placeholder
	// record and the run moves on to the next page.
	for page := 1; page <= pageCount; page++ {
		if _, err := uc.pageUnit.ExtractPage(ctx, fileBytes, page, doc.ID, run.ID); err != nil {
			uc.logger.Warn("page extraction failed",
				"document_id", doc.ID,
				"run_id", run.ID,
				"page", page,
				"error", err)
			if phErr := uc.persistPlaceholder(ctx, doc.ID, page); phErr != nil {
				uc.logger.Error("persist placeholder page",
					"document_id", doc.ID,
					"page", page,
					"error", phErr)
			}
			if uc.observer != nil {
				uc.observer.PlaceholderWritten()
			}
		} else if uc.observer != nil {
			uc.observer.PageExtracted()
		}
		// The heartbeat is advisory; losing one must not fail the run.
		if err := uc.runs.Heartbeat(ctx, run.ID, page); err != nil {
			uc.logger.Warn("heartbeat extraction run", "run_id", run.ID, "error", err)
		}
	}

	return nil
}

func (uc *ExtractDocumentUseCase) loadPayload(ctx context.Context, doc *domain.Document) ([]byte, error) {
	reader, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open stored document: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read stored document: %w", err)
	}
	return data, nil
}

func (uc *ExtractDocumentUseCase) persistPlaceholder(ctx context.Context, documentID string, pageNumber int) error {
	record := domain.NewPlaceholderPage(documentID, pageNumber)
	record.ID = uuid.NewString()
	record.CreatedAt = time.Now().UTC()
	return uc.pages.Create(ctx, record)
}

func (uc *ExtractDocumentUseCase) failRun(ctx context.Context, documentID, runID string, runErr error) error {
	if finishErr := uc.runs.Finish(ctx, runID, domain.RunStatusFailed, runErr.Error()); finishErr != nil {
		uc.logger.Error("finish failed run", "run_id", runID, "error", finishErr)
	}
	if failErr := uc.repo.MarkFailed(ctx, documentID, runID, runErr.Error()); failErr != nil {
		return fmt.Errorf("%w; mark failed status: %v", runErr, failErr)
	}
	return runErr
}
