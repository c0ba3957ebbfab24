package main

import (
	"context"
	"time"

	"order-backoffice/internal/config"
	"order-backoffice/internal/db"
	"order-backoffice/internal/logging"
	"order-backoffice/migrations"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		logger.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	ms, err := db.LoadMigrations(migrations.FS)
	if err != nil {
		logger.Fatalf("discover: %v", err)
	}
	if err := db.Migrate(ctx, pool, ms, logger); err != nil {
		logger.Fatalf("migrate: %v", err)
	}
	logger.WithField("count", len(ms)).Info("all migrations processed")
}
