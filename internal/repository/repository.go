package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/config"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

// textArray 让 database/sql 能把 TEXT[] 列扫描到 []string 中
func textArray(m *pgtype.Map, dst *[]string) sql.Scanner {
	return m.SQLScanner(dst)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// expectAffected 在 UPDATE / DELETE 没有命中任何行时返回 domain.ErrNotFound
func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
