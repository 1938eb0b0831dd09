package store

import (
	"context"
	"embed"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/followup-pipeline/pkg/db"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open connects to the store and, when runMigrations is true, applies
// pending goose migrations before returning. Only one process (cmd/ingress)
// runs with migrations enabled; goose's own migration table makes this
// race-safe even if more than one replica tried.
func Open(ctx context.Context, connString string, log *slog.Logger, runMigrations bool) (*pgxpool.Pool, error) {
	opts := []db.Option{db.WithLogger(log)}
	if runMigrations {
		opts = append(opts, db.WithMigrations(migrations))
	}
	return db.Open(ctx, connString, opts...)
}
