package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/snaptunes/internal/shared"
)

// Setup creates the config file when missing, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			r.writePlain("✓ Created %s; add your Spotify and OpenAI credentials to it\n", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}
	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		r.logger.Warn("configuration incomplete", "error", err)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenCacheDatabase(ctx, config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	version, err := shared.SchemaVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.logger.Info("setup complete", "database", config.Database.Path, "schema_version", version)
	return r.writePlain("✓ Database ready at %s (schema version %d)\n", config.Database.Path, version)
}
