// Command executor runs the execute job worker of spec.md §4.5.
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
	"github.com/dmitrymomot/followup-pipeline/internal/drafter"
	"github.com/dmitrymomot/followup-pipeline/internal/executor"
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

	tasks := store.NewTaskStore(pool)
	users := store.NewUserStore(pool)
	inbound := store.NewInboundStore(pool)
	outbox := store.NewOutboxStore(pool)
	events := store.NewEventStore(pool, log)

	draft := drafter.New(drafter.Config{
		BaseURL: cfg.DrafterURL,
		APIKey:  cfg.DrafterKey,
		Timeout: cfg.ExternalCallTimeout,
	})

	worker := executor.New(tasks, users, inbound, outbox, events, draft, templates.New(cfg.Mailer), log)

	w, err := queue.NewExecuteWorker(pool, worker, cfg.ExecutorConcurrency, log)
	if err != nil {
		log.Error("execute worker init failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := w.Start(ctx); err != nil {
		log.Error("execute worker start failed", slog.Any("error", err))
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/health/live", health.LivenessHandler())
	mux.Handle("/health/ready", health.ReadinessHandler(health.Checks{
		"db":   db.Healthcheck(pool),
		"jobs": job.Healthcheck(w.Manager()),
	}))
	server := &http.Server{Addr: ":9092", Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("executor health server error", slog.Any("error", err))
		}
	}()

	log.Info("execute worker running")
	<-ctx.Done()

	log.Info("execute worker shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := w.Stop(stopCtx); err != nil {
		log.Error("execute worker stop failed", slog.Any("error", err))
	}
	_ = server.Close()
}
