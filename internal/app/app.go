// Package app assembles the storage driver, history and session controller
// from configuration. Both binaries start here.
package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/mind-engage/gradecalc/internal/config"
	"github.com/mind-engage/gradecalc/internal/db"
	"github.com/mind-engage/gradecalc/internal/grading"
	"github.com/mind-engage/gradecalc/internal/history"
	"github.com/mind-engage/gradecalc/internal/session"
	"github.com/mind-engage/gradecalc/internal/storage"
)

type App struct {
	Controller *session.Controller
	History    *history.Store
	closeFn    func() error
}

// Close releases the storage driver.
func (a *App) Close() error {
	if a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}

// OpenKV connects the configured storage driver.
func OpenKV(ctx context.Context, cfg config.Config) (storage.KV, func() error, error) {
	noop := func() error { return nil }
	switch cfg.StoreDriver {
	case config.StoreFS, "":
		s, err := storage.NewFSStore(cfg.StorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("fs store: %w", err)
		}
		return s, noop, nil
	case config.StoreSQLite, config.StorePostgres:
		dbh, err := db.Open(ctx, db.Driver(cfg.StoreDriver), cfg.StoreDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}
		return storage.NewSQLStore(dbh), dbh.Close, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return storage.NewRedisStore(client), client.Close, nil
	case config.StoreMemory:
		return storage.NewMemoryKV(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
}

// Build opens storage, loads the persisted history and returns a ready
// controller. A history that cannot be read is logged; the store retries the
// read before its first write.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger, opts ...session.Option) (*App, error) {
	kv, closeFn, err := OpenKV(ctx, cfg)
	if err != nil {
		return nil, err
	}
	hist := history.New(kv,
		history.WithKey(cfg.HistoryKey),
		history.WithLogger(log.With().Str("component", "history").Logger()),
	)
	if err := hist.Load(ctx); err != nil {
		log.Error().Err(err).Msg("history unreadable; writes are refused until it can be read")
	}

	base := []session.Option{
		session.WithEvaluator(grading.NewEvaluator(grading.WithDateLayout(cfg.DateLayout))),
		session.WithLogger(log.With().Str("component", "session").Logger()),
	}
	ctrl := session.New(hist, append(base, opts...)...)

	log.Info().
		Str("driver", string(cfg.StoreDriver)).
		Str("key", cfg.HistoryKey).
		Int("entries", hist.Len()).
		Msg("history ready")
	return &App{Controller: ctrl, History: hist, closeFn: closeFn}, nil
}
