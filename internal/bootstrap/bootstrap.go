// Package bootstrap wires configuration, infrastructure adapters and use
// cases into a runnable application graph shared by the api and worker.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/karimbenali/docpipe/internal/config"
	"github.com/karimbenali/docpipe/internal/core/ports"
	"github.com/karimbenali/docpipe/internal/core/usecase"
	"github.com/karimbenali/docpipe/internal/export"
	"github.com/karimbenali/docpipe/internal/infrastructure/llm/groq"
	"github.com/karimbenali/docpipe/internal/infrastructure/ocr/googlevision"
	"github.com/karimbenali/docpipe/internal/infrastructure/ocr/qari"
	"github.com/karimbenali/docpipe/internal/infrastructure/pagesplit"
	"github.com/karimbenali/docpipe/internal/infrastructure/queue/nats"
	"github.com/karimbenali/docpipe/internal/infrastructure/rasterizer/httpraster"
	"github.com/karimbenali/docpipe/internal/infrastructure/repository/postgres"
	"github.com/karimbenali/docpipe/internal/infrastructure/resilience"
	"github.com/karimbenali/docpipe/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	IngestUC  ports.DocumentIngestor
	ProcessUC *usecase.ProcessDocumentUseCase
	AnalyzeUC ports.FieldAnalyzer
	HealthUC  ports.HealthChecker
	Exporter  *export.Service

	closeFn func()
}

// Options carries per-binary wiring that is not configuration: the logger and
// the pipeline stage observer backed by that binary's metrics registry.
type Options struct {
	Logger        *slog.Logger
	StageObserver usecase.StageObserver
	PageObserver  usecase.PageObserver
}

func New(ctx context.Context, cfg config.Config, options Options) (*App, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy(), logger)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	llm := groq.New(cfg.GroqURL, cfg.GroqAPIKey, cfg.GroqModel, groq.Options{
		Temperature:        cfg.GroqTemperature,
		MaxTokens:          cfg.GroqMaxTokens,
		RequestsPerSecond:  cfg.GroqRPS,
		ResilienceExecutor: executor,
		Logger:             logger,
	})

	ocr, err := newOCRClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	rasterizer := httpraster.New(cfg.RasterizerURL, cfg.RasterizerDPI, time.Duration(cfg.OCRTimeoutSec)*time.Second, logger)
	splitter := pagesplit.New(rasterizer, logger)

	pipeline := usecase.NewPipeline(llm, logger, options.StageObserver)
	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, storage, splitter, ocr, pipeline, logger, options.PageObserver, cfg.PipelineWorkers)
	analyzeUC := usecase.NewFieldConsistencyAnalyzer()
	healthUC := usecase.NewComponentHealthUseCase(ocr, llm)
	exporter := export.NewService(repo, logger)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		AnalyzeUC: analyzeUC,
		HealthUC:  healthUC,
		Exporter:  exporter,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newOCRClient(cfg config.Config, logger *slog.Logger) (ports.OCRClient, error) {
	timeout := time.Duration(cfg.OCRTimeoutSec) * time.Second
	switch cfg.OCRVendor {
	case "qari", "":
		return qari.New(cfg.QariURL, timeout, logger), nil
	case "googlevision":
		return googlevision.New(cfg.VisionAPIKey, timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown ocr vendor: %q", cfg.OCRVendor)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
