// Command ingest runs the ingest job worker of spec.md §4.2.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/followup-pipeline/internal/config"
	"github.com/dmitrymomot/followup-pipeline/internal/extractor"
	"github.com/dmitrymomot/followup-pipeline/internal/ingestworker"
	"github.com/dmitrymomot/followup-pipeline/internal/queue"
	"github.com/dmitrymomot/followup-pipeline/internal/store"
	"github.com/dmitrymomot/followup-pipeline/internal/templates"
	"github.com/dmitrymomot/followup-pipeline/pkg/db"
	"github.com/dmitrymomot/followup-pipeline/pkg/health"
	"github.com/dmitrymomot/followup-pipeline/pkg/job"
	"github.com/dmitrymomot/followup-pipeline/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.NewWithSentry(cfg.Sentry)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := store.Open(ctx, cfg.DatabaseURL, log, false)
	if err != nil {
		log.Error("db open failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	inbound := store.NewInboundStore(pool)
	users := store.NewUserStore(pool)
	tasks := store.NewTaskStore(pool)
	outbox := store.NewOutboxStore(pool)
	events := store.NewEventStore(pool, log)

	ext := extractor.New(extractor.Config{
		BaseURL: cfg.ExtractorURL,
		APIKey:  cfg.ExtractorKey,
		Timeout: cfg.ExternalCallTimeout,
	})

	worker := ingestworker.New(inbound, users, tasks, outbox, events, ext, templates.New(cfg.Mailer), log)

	w, err := queue.NewIngestWorker(pool, worker, cfg.IngestConcurrency, log)
	if err != nil {
		log.Error("ingest worker init failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := w.Start(ctx); err != nil {
		log.Error("ingest worker start failed", slog.Any("error", err))
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/health/live", health.LivenessHandler())
	mux.Handle("/health/ready", health.ReadinessHandler(health.Checks{
		"db":   db.Healthcheck(pool),
		"jobs": job.Healthcheck(w.Manager()),
	}))
	server := &http.Server{Addr: ":9091", Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("ingest health server error", slog.Any("error", err))
		}
	}()

	log.Info("ingest worker running")
	<-ctx.Done()

	log.Info("ingest worker shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := w.Stop(stopCtx); err != nil {
		log.Error("ingest worker stop failed", slog.Any("error", err))
	}
	_ = server.Close()
}
