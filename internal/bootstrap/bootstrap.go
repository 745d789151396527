package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vportnov/pod-extractor/internal/config"
	"github.com/vportnov/pod-extractor/internal/core/ports"
	"github.com/vportnov/pod-extractor/internal/core/usecase"
	"github.com/vportnov/pod-extractor/internal/infrastructure/llm/gemini"
	"github.com/vportnov/pod-extractor/internal/infrastructure/pdfinfo"
	"github.com/vportnov/pod-extractor/internal/infrastructure/queue/nats"
	"github.com/vportnov/pod-extractor/internal/infrastructure/repository/postgres"
	"github.com/vportnov/pod-extractor/internal/infrastructure/resilience"
	"github.com/vportnov/pod-extractor/internal/infrastructure/storage/localfs"
	"github.com/vportnov/pod-extractor/internal/observability/logging"
)

// App owns the wired object graph shared by the api and worker binaries.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.MessageQueue

	IngestUC  ports.DocumentIngestor
	ExtractUC ports.ExtractionRunner
	ReaderUC  ports.DocumentReader
	ExportUC  ports.DocumentExporter
	SweepUC   *usecase.SweepStalledRunsUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	docRepo := postgres.NewDocumentRepository(db)
	if err := docRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	pageRepo := postgres.NewPageRepository(db)
	usageRepo := postgres.NewUsageRepository(db)
	runRepo := postgres.NewRunRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	model := gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout())
	counter := pdfinfo.NewCounter()

	pageUnit, err := usecase.NewPageExtractor(model, pageRepo, usageRepo)
	if err != nil {
		return nil, fmt.Errorf("init page extractor: %w", err)
	}

	ingestUC := usecase.NewUploadDocumentUseCase(docRepo, storage, queue)
	extractUC := usecase.NewExtractDocumentUseCase(docRepo, pageRepo, runRepo, storage, counter, pageUnit, logger)
	readerUC := usecase.NewQueryDocumentsUseCase(docRepo, pageRepo, usageRepo)
	exportUC := usecase.NewExportDocumentUseCase(docRepo, pageRepo, usageRepo)
	sweepUC := usecase.NewSweepStalledRunsUseCase(runRepo, docRepo, queue, cfg.RunLease(), cfg.RunMaxAttempts, logger)

	return &App{
		Config: cfg,
		Logger: logger,
		Queue:  queue,

		IngestUC:  ingestUC,
		ExtractUC: extractUC,
		ReaderUC:  readerUC,
		ExportUC:  exportUC,
		SweepUC:   sweepUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
