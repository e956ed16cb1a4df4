package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtroode/ayurveda-storefront/internal/cli"
	"github.com/dtroode/ayurveda-storefront/internal/config"
	"github.com/dtroode/ayurveda-storefront/internal/logger"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	args := os.Args[1:]
	if len(args) == 1 && args[0] == "version" {
		logAppVersion()
		return 0
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Printf("failed to parse config: %v", err)
		return 1
	}
	logger := logger.New(cfg.LogLevel)
	logger.Debug("storefront client", "version", buildVersion, "commit", buildCommit)

	backend, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		return 1
	}

	app := cli.NewApp(cfg, backend, nil, os.Stderr, logger)
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	if err := app.Commands().Run(ctx, args, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func logAppVersion() {
	tmpl := `Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
