package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/snaptunes/internal/services"
	"github.com/desertthunder/snaptunes/internal/shared"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	config.ApplyEnv()
	shared.SetLogLevel(logger, config.Log.Level)

	var spotify SpotifyClient
	if svc, err := services.NewSpotifyServiceFromConfig(config, nil); err == nil {
		spotify = svc
	} else {
		logger.Debug("spotify unavailable", "error", err)
	}

	var completion services.CompletionService
	if svc, err := services.NewCompletionService(config); err == nil {
		completion = svc
	} else {
		logger.Debug("extraction backend unavailable", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotify,
		Completion: completion,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "snaptunes",
		Usage:    "Turn a list of songs in any text into a Spotify playlist",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted")
			return
		}
		runner.Close()
		logger.Fatal("application error", "error", err, "kind", shared.KindOf(err))
	}
}
