package main

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/redis/go-redis/v9"

	"slotkeeper/internal/config"
	"slotkeeper/internal/store"
	"slotkeeper/internal/store/memory"
	"slotkeeper/internal/store/postgres"
	redisstore "slotkeeper/internal/store/redis"
	"slotkeeper/migrations"
)

// openStore builds the store selected by cfg.StoreDriver. Failures are logged
// here with connection details redacted.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
		db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
			SlowQuery:       cfg.DBSlowQuery,
			Logger:          log,
		})
		if err != nil {
			args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
			log.Error("database connection failed", args...)
			return nil, nil, err
		}
		if cfg.DBAutoMigrate {
			version, err := postgres.Migrate(ctx, cfg.DatabaseURL, migrations.FS)
			if err != nil {
				log.Error("database migration failed", slog.Any("err", err))
				_ = postgres.Close(db)
				return nil, nil, err
			}
			log.Info("database migrated", slog.Uint64("schema_version", uint64(version)))
		}
		return postgres.NewRepo(db), func() error { return postgres.Close(db) }, nil

	case config.StoreRedis:
		log.Info("connecting to redis", slog.String("redis_addr", cfg.RedisAddr), slog.Int("redis_db", cfg.RedisDB))
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis connection failed", slog.Any("err", err), slog.String("redis_addr", cfg.RedisAddr))
			_ = rdb.Close()
			return nil, nil, err
		}
		return redisstore.NewStore(rdb, cfg.RedisPrefix), rdb.Close, nil
	}

	log.Warn("using in-memory store; bookings are lost on restart")
	return memory.New(), func() error { return nil }, nil
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
