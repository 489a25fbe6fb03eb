package repository

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

func RunMigrations(ctx context.Context, dbpool *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetDialect("pgx")

	return goose.UpContext(ctx, dbpool, "migrations")
}
