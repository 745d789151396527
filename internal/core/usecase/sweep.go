package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vportnov/pod-extractor/internal/core/domain"
	"github.com/vportnov/pod-extractor/internal/core/ports"
)

// SweepStalledRunsUseCase recovers documents abandoned in PROCESSING by a
// worker that died mid-run: runs whose heartbeat exceeded the lease are
// marked STALLED, their document is failed, and the document is republished
// for a fresh attempt until the attempt cap.
type SweepStalledRunsUseCase struct {
	runs        ports.RunRepository
	repo        ports.DocumentRepository
	queue       ports.MessageQueue
	lease       time.Duration
	maxAttempts int
	logger      *slog.Logger
}

func NewSweepStalledRunsUseCase(
	runs ports.RunRepository,
	repo ports.DocumentRepository,
	queue ports.MessageQueue,
	lease time.Duration,
	maxAttempts int,
	logger *slog.Logger,
) *SweepStalledRunsUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepStalledRunsUseCase{
		runs:        runs,
		repo:        repo,
		queue:       queue,
		lease:       lease,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// SweepResult reports what one sweep pass found and did.
type SweepResult struct {
	Stalled     int
	Republished int
}

func (uc *SweepStalledRunsUseCase) Sweep(ctx context.Context) (SweepResult, error) {
	cutoff := time.Now().UTC().Add(-uc.lease)
	stalled, err := uc.runs.ListStalled(ctx, cutoff)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list stalled runs: %w", err)
	}

	result := SweepResult{Stalled: len(stalled)}
	for _, run := range stalled {
		requeued, err := uc.recoverRun(ctx, run)
		if err != nil {
			uc.logger.Error("recover stalled run",
				"run_id", run.ID,
				"document_id", run.DocumentID,
				"error", err)
			continue
		}
		if requeued {
			result.Republished++
		}
	}
	return result, nil
}

func (uc *SweepStalledRunsUseCase) recoverRun(ctx context.Context, run domain.ExtractionRun) (bool, error) {
	if err := uc.runs.MarkStalled(ctx, run.ID); err != nil {
		return false, fmt.Errorf("mark run stalled: %w", err)
	}

	doc, err := uc.repo.GetByID(ctx, run.DocumentID)
	if err != nil {
		return false, fmt.Errorf("fetch document by id: %w", err)
	}
	// A newer run owns the document already; nothing left to recover here.
	if doc.ExtractionRunID != run.ID {
		return false, nil
	}

	if err := uc.repo.MarkFailed(ctx, doc.ID, run.ID, "extraction run stalled"); err != nil {
		return false, fmt.Errorf("fail stalled document: %w", err)
	}

	if run.Attempt >= uc.maxAttempts {
		uc.logger.Warn("stalled run reached attempt cap, leaving document failed",
			"document_id", doc.ID,
			"attempt", run.Attempt)
		return false, nil
	}
	if err := uc.queue.PublishExtractionRequested(ctx, doc.ID); err != nil {
		return false, fmt.Errorf("republish document: %w", err)
	}
	uc.logger.Info("republished stalled document",
		"document_id", doc.ID,
		"stalled_run_id", run.ID,
		"attempt", run.Attempt)
	return true, nil
}
