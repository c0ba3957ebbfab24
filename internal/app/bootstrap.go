package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"order-backoffice/internal/config"
	"order-backoffice/internal/core"
	"order-backoffice/internal/db"
)

// Bootstrap connects to PostgreSQL (and Redis when configured) and wires the services.
// The returned cleanup closes every connection it opened.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (ApplicationService, func(), error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	cleanup := pool.Close

	cacheOpts := []core.CacheOption{core.WithLogger(logger)}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The shared tier is optional; every process can still read through to PostgreSQL.
			logger.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable, reference cache stays process-local")
			_ = rdb.Close()
		} else {
			cacheOpts = append(cacheOpts, core.WithRedis(rdb))
			cleanup = func() {
				_ = rdb.Close()
				pool.Close()
			}
		}
	}

	rates := core.NewRateService(pool, cfg.RefCacheTTL, cacheOpts...)
	settings := core.NewSettingsResolver(pool, cfg.RefCacheTTL, logger, cacheOpts...)
	quotations := core.NewQuotationService(pool, core.DocumentTag(cfg.QuotationTag), rates, core.NewStockReader(pool), settings, logger)
	accounts := core.NewAccountService(pool, logger)

	return NewAppService(pool, quotations, accounts, rates, settings), cleanup, nil
}
