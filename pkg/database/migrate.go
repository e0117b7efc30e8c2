package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrate applies pending migrations. An empty dir uses the migrations
// compiled into the binary; otherwise the files are read from disk.
func (db *DB) Migrate(ctx context.Context, dir string, log *zap.Logger) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if dir == "" {
		goose.SetBaseFS(embedded)
		defer goose.SetBaseFS(nil)
		dir = "migrations"
	}

	// goose works on database/sql, so borrow a handle from the pool
	sqlDB := stdlib.OpenDBFromPool(db.pool)
	defer sqlDB.Close()

	log.Info("Applying database migrations", zap.String("dir", dir))

	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("get migration version: %w", err)
	}

	log.Info("Migrations applied", zap.Int64("version", version))
	return nil
}
