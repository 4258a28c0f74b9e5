package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Apurer/mikopo/internal/platform/migrations"
)

// ErrNoDSN means no database was configured.
var ErrNoDSN = errors.New("postgres DSN is empty")

// Connect opens a PostgreSQL connection via GORM and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrNoDSN
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Open connects, applies migrations and returns the DB with its cleanup.
// A nil DB with a nil error means no DSN was set and callers should fall back
// to in-memory storage.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*gorm.DB, func(), error) {
	noop := func() {}
	db, err := Connect(ctx, dsn)
	if errors.Is(err, ErrNoDSN) {
		logger.Warn("POSTGRES_DSN not set, using in-memory loan repository")
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, noop, fmt.Errorf("unwrap postgres connection: %w", err)
	}
	if err := migrations.Run(db.WithContext(ctx)); err != nil {
		sqlDB.Close()
		return nil, noop, fmt.Errorf("migrate postgres: %w", err)
	}
	logger.Info("postgres connection established")
	return db, func() { _ = sqlDB.Close() }, nil
}
