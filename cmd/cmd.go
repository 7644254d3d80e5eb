// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/spotify-tools/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

// App builds the root command. Configuration is loaded and the log level applied before any subcommand runs.
func (r *Runner) App() *cli.Command {
	return &cli.Command{
		Name:    "spotify-tools",
		Usage:   "Create shuffled copies of Spotify playlists",
		Version: version,
		Writer:  r.output,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log verbosity (debug, info, warn, error)",
				Sources: cli.EnvVars(shared.EnvPrefix + "LOG_LEVEL"),
			},
		},
		Before:   r.configure,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		shuffleCommand, authCommand, historyCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// shuffleCommand creates a shuffled copy of a playlist
func shuffleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "shuffle",
		Aliases: []string{"shuffle-playlist"},
		Usage:   "Create a new playlist holding a shuffled copy of a playlist's tracks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "playlist-id",
				Usage: "Source playlist ID (defaults to credentials.spotify.playlist_id)",
			},
			&cli.StringFlag{
				Name:  "new-playlist-name",
				Usage: "Name of the new playlist (defaults to the source name and a timestamp)",
			},
			&cli.BoolFlag{
				Name:  "public-playlist",
				Usage: "Make the new playlist public",
			},
			&cli.BoolFlag{
				Name:  "rollback-on-failure",
				Usage: "Remove the new playlist when adding tracks fails part way",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Write the shuffled track order to a file (.csv, .md or .txt)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the result as JSON",
			},
		},
		Action: r.Shuffle,
	}
}

// authCommand handles the OAuth token cache
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify in the browser and cache the token",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the cached token and the account it belongs to",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete the cached token",
				Action: r.AuthLogout,
			},
		},
	}
}

// historyCommand lists recorded shuffles
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List or prune previously created shuffled playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "playlist-id",
				Usage: "Only show runs of this source playlist",
			},
			&cli.StringFlag{
				Name:  "delete",
				Usage: "Remove the run with this ID from history (the Spotify playlist is kept)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for picking a playlist interactively.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI to pick and shuffle a playlist",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "public-playlist",
				Usage: "Make new playlists public",
			},
			&cli.BoolFlag{
				Name:  "rollback-on-failure",
				Usage: "Remove a new playlist when adding tracks fails part way",
			},
		},
		Action: r.TUI,
	}
}
