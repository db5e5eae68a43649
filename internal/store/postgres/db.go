package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// SlowQuery enables a warning for queries slower than this. Zero disables
	// it. Logger defaults to slog.Default.
	SlowQuery time.Duration
	Logger    *slog.Logger
}

func (p PoolConfig) apply(db *sql.DB) {
	if p.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.MaxOpenConns)
	}
	if p.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.MaxIdleConns)
	}
	if p.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(p.ConnMaxLifetime)
	}
	if p.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(p.ConnMaxIdleTime)
	}
}

// Open connects through the pgx stdlib driver and pings before returning.
func Open(ctx context.Context, databaseURL string, pool PoolConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pool.apply(sqlDB)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := bun.NewDB(sqlDB, pgdialect.New())
	if pool.SlowQuery > 0 {
		db.AddQueryHook(newSlowQueryHook(pool.Logger, pool.SlowQuery))
	}
	return db, nil
}

func Close(db *bun.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// slowQueryHook logs the operation and timing only. Query text is left out
// because bookings carry customer phone numbers.
type slowQueryHook struct {
	log       *slog.Logger
	threshold time.Duration
}

var _ bun.QueryHook = slowQueryHook{}

func newSlowQueryHook(log *slog.Logger, threshold time.Duration) slowQueryHook {
	if log == nil {
		log = slog.Default()
	}
	return slowQueryHook{log: log.With(slog.String("component", "postgres")), threshold: threshold}
}

func (h slowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h slowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	elapsed := time.Since(event.StartTime)
	if elapsed < h.threshold {
		return
	}
	attrs := []any{
		slog.String("operation", event.Operation()),
		slog.Duration("elapsed", elapsed),
	}
	if event.Err != nil {
		attrs = append(attrs, slog.Any("err", event.Err))
	}
	h.log.WarnContext(ctx, "slow query", attrs...)
}
