package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotify-tools/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the built-in config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", r.configPath)

	r.writePlain("✓ Config written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret (or %sCLIENT_ID / %sCLIENT_SECRET)\n", shared.EnvPrefix, shared.EnvPrefix)
	r.writePlain("2. Register %s as a redirect URI for your Spotify app\n", r.config.Credentials.Spotify.RedirectURI)
	r.writePlain("3. Run 'spotify-tools auth login'\n")
	return nil
}

// SetupDatabase initializes the history database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.config.Database.Path == "" {
		return fmt.Errorf("%w: database.path is not set", shared.ErrInvalidConfig)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenHistoryDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}
