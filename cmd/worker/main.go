package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vportnov/pod-extractor/internal/bootstrap"
	"github.com/vportnov/pod-extractor/internal/config"
	"github.com/vportnov/pod-extractor/internal/core/usecase"
	"github.com/vportnov/pod-extractor/internal/observability/metrics"
)

const service = "worker"

type pageObserver struct {
	metrics *metrics.WorkerMetrics
}

func (o pageObserver) PageExtracted()      { o.metrics.PageExtracted(service) }
func (o pageObserver) PlaceholderWritten() { o.metrics.PlaceholderWritten(service) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, service)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(service)
	if extractUC, ok := app.ExtractUC.(*usecase.ExtractDocumentUseCase); ok {
		extractUC.SetObserver(pageObserver{metrics: workerMetrics})
	}

	metricsServer := startMetricsServer(cfg.WorkerMetricsPort, workerMetrics)
	defer shutdownMetricsServer(metricsServer, cfg.ShutdownGrace())

	go runSweeper(ctx, app, workerMetrics)

	app.Logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeExtractionRequested(ctx, func(handlerCtx context.Context, documentID string) error {
		observeQueueLag(handlerCtx, app, workerMetrics, documentID)

		workerMetrics.StartRun()
		started := time.Now()
		runErr := app.ExtractUC.Run(handlerCtx, documentID)
		workerMetrics.FinishRun(service, time.Since(started), runErr)
		return runErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

// observeQueueLag measures the delay between a document entering the queue
// and a worker picking it up. Best effort; a read failure only loses a sample.
func observeQueueLag(ctx context.Context, app *bootstrap.App, workerMetrics *metrics.WorkerMetrics, documentID string) {
	doc, err := app.ReaderUC.GetByID(ctx, documentID)
	if err != nil {
		return
	}
	workerMetrics.ObserveQueueLag(service, time.Since(doc.CreatedAt))
}

func runSweeper(ctx context.Context, app *bootstrap.App, workerMetrics *metrics.WorkerMetrics) {
	ticker := time.NewTicker(app.Config.SweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := app.SweepUC.Sweep(ctx)
			if err != nil {
				app.Logger.Error("sweep stalled runs", "error", err)
				continue
			}
			workerMetrics.SweepObserved(service, result.Stalled, result.Republished)
			if result.Stalled > 0 {
				app.Logger.Info("sweep pass finished",
					"stalled", result.Stalled,
					"republished", result.Republished)
			}
		}
	}
}

func startMetricsServer(port string, workerMetrics *metrics.WorkerMetrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("worker metrics server error: %v", err)
		}
	}()
	return server
}

func shutdownMetricsServer(server *http.Server, grace time.Duration) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
