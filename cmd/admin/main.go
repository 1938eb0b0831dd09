// Command admin serves the admin HTTP surface of spec.md §6.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/followup-pipeline/internal/admin"
	"github.com/dmitrymomot/followup-pipeline/internal/config"
	"github.com/dmitrymomot/followup-pipeline/internal/queue"
	"github.com/dmitrymomot/followup-pipeline/internal/store"
	"github.com/dmitrymomot/followup-pipeline/pkg/db"
	"github.com/dmitrymomot/followup-pipeline/pkg/health"
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
	outbox := store.NewOutboxStore(pool)
	events := store.NewEventStore(pool, log)
	inbound := store.NewInboundStore(pool)

	// Admin only dispatches retry jobs; it never processes them.
	enqueuer, err := queue.NewEnqueuer(pool, log)
	if err != nil {
		log.Error("enqueuer init failed", slog.Any("error", err))
		os.Exit(1)
	}

	handler := admin.New(tasks, outbox, events, inbound, enqueuer, cfg.RetentionDays, log)

	mux := http.NewServeMux()
	mux.Handle("/", handler.Router())
	mux.Handle("/health/live", health.LivenessHandler())
	mux.Handle("/health/ready", health.ReadinessHandler(health.Checks{
		"db": db.Healthcheck(pool),
	}))

	server := &http.Server{Addr: ":" + cfg.AdminPort, Handler: mux}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Error("listen failed", slog.Any("error", err))
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("admin starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("admin server error", slog.Any("error", err))
		}
	case <-ctx.Done():
	}

	log.Info("admin shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
}
