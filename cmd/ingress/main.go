// Command ingress serves the webhook HTTP surface (spec.md §4.1, §6).
// It is the one process started with migrations enabled.
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

	"github.com/dmitrymomot/followup-pipeline/internal/config"
	"github.com/dmitrymomot/followup-pipeline/internal/ingress"
	"github.com/dmitrymomot/followup-pipeline/internal/queue"
	"github.com/dmitrymomot/followup-pipeline/internal/store"
	"github.com/dmitrymomot/followup-pipeline/internal/userlookup"
	"github.com/dmitrymomot/followup-pipeline/pkg/cache"
	"github.com/dmitrymomot/followup-pipeline/pkg/db"
	"github.com/dmitrymomot/followup-pipeline/pkg/health"
	"github.com/dmitrymomot/followup-pipeline/pkg/logger"
	redisx "github.com/dmitrymomot/followup-pipeline/pkg/redis"
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

	pool, err := store.Open(ctx, cfg.DatabaseURL, log, true)
	if err != nil {
		log.Error("db open failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	userStore := store.NewUserStore(pool)
	inbound := store.NewInboundStore(pool)

	var users ingress.Users = userStore
	if cfg.RedisURL != "" {
		redisClient, err := redisx.Open(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("redis open failed", slog.Any("error", err))
			os.Exit(1)
		}
		userCache := cache.NewRedis[store.User](redisClient, nil, cache.WithPrefix("ingress:user"))
		users = userlookup.New(userStore, userCache)
	}

	// Ingress only dispatches work; it never claims or processes jobs, so it
	// uses the insert-only enqueuer rather than a full job manager.
	enqueuer, err := queue.NewEnqueuer(pool, log)
	if err != nil {
		log.Error("enqueuer init failed", slog.Any("error", err))
		os.Exit(1)
	}

	handler := ingress.New(users, inbound, enqueuer, cfg.EmailWebhookSecret, cfg.ChatAppSecret, cfg.ChatVerifyToken, log)

	mux := http.NewServeMux()
	mux.Handle("/", handler.Router())
	mux.Handle("/health/live", health.LivenessHandler())
	mux.Handle("/health/ready", health.ReadinessHandler(health.Checks{
		"db": db.Healthcheck(pool),
	}))

	server := &http.Server{Addr: ":" + cfg.IngressPort, Handler: mux}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Error("listen failed", slog.Any("error", err))
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("ingress starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("ingress server error", slog.Any("error", err))
		}
	case <-ctx.Done():
	}

	log.Info("ingress shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
}
