package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"order-backoffice/internal/adapters/cli"
	"order-backoffice/internal/app"
	"order-backoffice/internal/config"
	"order-backoffice/internal/core"
	"order-backoffice/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := cli.NewRootCommand(func(ctx context.Context) (app.ApplicationService, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		// Logs go to stderr so stdout stays machine-readable JSON.
		logger := logging.New(cfg.LogLevel, cfg.LogFormat)
		logger.SetOutput(os.Stderr)
		return app.Bootstrap(ctx, cfg, logger)
	})

	if err := root.ExecuteContext(ctx); err != nil {
		var ee *core.EngineError
		if errors.As(err, &ee) {
			fmt.Fprintf(os.Stderr, "Error (%s): %s\n", ee.Kind, ee.Message)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
