package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/notefm/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a config.toml from the bundled template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%w: %s already exists", shared.ErrInvalidArgument, configPath)
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Created %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set vault.folder_path to the folder inside your vault where notes should go\n")
	r.writePlain("2. Set credentials.spotify.client_id (or export NOTEFM_SPOTIFY_CLIENT_ID)\n")
	r.writePlain("3. Run 'notefm setup database', then 'notefm connect'\n")

	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		if config, err := shared.LoadConfig(configPath); err == nil {
			r.config = config
		} else {
			r.logger.Warn("failed to load config, using defaults", "error", err)
		}
	} else {
		r.logger.Info("config file not found, using defaults", "path", configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if _, err := r.database(); err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}
