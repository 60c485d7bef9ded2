package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/shared"
)

// SetupDatabase creates the config file if needed, initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", r.configPath)
			r.writePlain("✓ Config written to %s\n", r.configPath)
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenDatabase(ctx, r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	applied, err := shared.AppliedMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready: %s (%d migrations applied)\n", r.config.Database.Path, len(applied))
}

// SetupTokens saves the given tokens into the store, where they back up the config file and environment.
func (r *Runner) SetupTokens(ctx context.Context, cmd *cli.Command) error {
	tokens := map[string]string{
		models.DiscogsTokenKey: strings.TrimSpace(cmd.String("discogs")),
		models.TodoistTokenKey: strings.TrimSpace(cmd.String("todoist")),
	}

	saved := 0
	for _, key := range []string{models.DiscogsTokenKey, models.TodoistTokenKey} {
		if tokens[key] == "" {
			continue
		}
		if err := r.creds.SetCredential(ctx, key, tokens[key]); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
		r.logger.Info("token saved", "key", key)
		saved++
	}

	if saved == 0 {
		return fmt.Errorf("%w: --discogs or --todoist", shared.ErrMissingArgument)
	}
	return r.writePlain("✓ Saved %d token(s)\n", saved)
}
