package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/karimbenali/docpipe/internal/adapters/http"
	"github.com/karimbenali/docpipe/internal/bootstrap"
	"github.com/karimbenali/docpipe/internal/config"
	"github.com/karimbenali/docpipe/internal/observability/logging"
	"github.com/karimbenali/docpipe/internal/observability/metrics"
)

const serviceName = "docpipe-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverMetrics := metrics.NewHTTPServerMetrics(serviceName)

	observer := serverMetrics.PipelineObserver(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:        logger,
		StageObserver: observer,
		PageObserver:  observer,
	})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	router := httpadapter.NewRouter(
		app.IngestUC,
		app.Repo,
		app.ProcessUC,
		app.AnalyzeUC,
		app.HealthUC,
		app.Exporter,
		serverMetrics.Handler(),
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      serverMetrics.Middleware(serviceName, router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}
