package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curate/internal/shared"
)

const (
	defaultConfigPath = "config.toml"
	envConfigPath     = "CURATE_CONFIG"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := defaultConfigPath
	if p := os.Getenv(envConfigPath); p != "" {
		configPath = p
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			logger.Fatalf("failed to load config: %v", err)
		}
		config = loaded
	}
	config.ApplyEnv()
	shared.SetLogLevel(logger, config.Log.ParseLevel())

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "curate",
		Usage:    "Build a local catalog of record label releases from Discogs",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented")
		case errors.Is(err, context.Canceled):
			logger.Warn("interrupted")
		default:
			runner.Close()
			logger.Fatalf("application error: %v", err)
		}
	}
}
