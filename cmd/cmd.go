// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// globalFlags are defined on the root command and visible to every subcommand.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
}

// launchCommand runs the sync program inside its project directory and runtime environment.
func launchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "launch",
		Usage: "Enter the project directory, activate the environment and run the sync program, appending its output to the log",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "schedule",
				Usage: "Repeat the launch on a cron schedule (e.g. \"0 * * * *\" or \"@every 30m\"); use \"config\" for launcher.schedule",
			},
		},
		Action: r.Launch,
	}
}

// syncCommand copies new Spotify likes into Yandex Music.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Like newly liked Spotify tracks on Yandex Music",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Show a terminal UI with live progress",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Search only; do not like tracks or update the state file",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record the run in the history database",
			},
		},
		Action: r.Sync,
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify account operations",
		Commands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Authorize ymsync to read your Spotify library (OAuth2)",
				Action: r.SpotifyAuth,
			},
			{
				Name:  "liked",
				Usage: "List liked tracks, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks to return (0 for all)",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: csv, md or txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Export file path (implies --format txt when no format is given)",
					},
				},
				Action: r.SpotifyLiked,
			},
		},
	}
}

// yandexCommand handles Yandex Music operations
func yandexCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "yandex",
		Aliases: []string{"ym"},
		Usage:   "Yandex Music account operations",
		Commands: []*cli.Command{
			{
				Name:  "likes",
				Usage: "Show how many tracks are liked",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the like ids as JSON",
					},
				},
				Action: r.YandexLikes,
			},
			{
				Name:  "search",
				Usage: "Show the track a query would match",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.YandexSearch,
			},
		},
	}
}

// stateCommand inspects or clears the sync state file.
func stateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Inspect or reset the sync state file",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show processed track count and the added_at cursor",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the state document",
					},
				},
				Action: r.StateShow,
			},
			{
				Name:  "reset",
				Usage: "Delete the state file so the next sync starts from scratch",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm the reset",
					},
				},
				Action: r.StateReset,
			},
		},
	}
}

// historyCommand lists recorded sync runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded sync runs, or the tracks of one run",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to list",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only runs with this status: running, completed or failed",
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Print the track outcomes of this run id (\"latest\" for the most recent) as CSV",
			},
			&cli.StringFlag{
				Name:  "outcome",
				Usage: "With --run, only tracks with this outcome (e.g. not_found)",
			},
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
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
