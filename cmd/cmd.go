// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Create a config.toml from the bundled template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:    "database",
				Aliases: []string{"db"},
				Usage:   "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// connectCommand handles the Spotify OAuth2 PKCE flow.
func connectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Connect to Spotify via OAuth2",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "status",
				Usage: "Show connection status without starting a flow",
			},
			&cli.BoolFlag{
				Name:  "forget",
				Usage: "Discard stored tokens",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: defaultConnectTimeout,
			},
		},
		Action: r.Connect,
	}
}

// logCommand opens an interactive logging session for the playing item.
func logCommand(r *Runner) *cli.Command {
	messageFlag := &cli.StringFlag{
		Name:    "message",
		Aliases: []string{"m"},
		Usage:   "Log this text directly, skipping the interactive editor",
	}

	return &cli.Command{
		Name:  "log",
		Usage: "Log an entry about the currently playing item",
		Commands: []*cli.Command{
			{
				Name:    "track",
				Aliases: []string{"t"},
				Usage:   "Log the currently playing track",
				Flags:   []cli.Flag{messageFlag},
				Action:  r.LogTrack,
			},
			{
				Name:    "album",
				Aliases: []string{"a"},
				Usage:   "Log the album of the currently playing track",
				Flags:   []cli.Flag{messageFlag},
				Action:  r.LogAlbum,
			},
		},
	}
}

// nowCommand prints the currently playing item.
func nowCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "now",
		Usage: "Show what is currently playing",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Show the playing track or its album (track, album)",
				Value: "track",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Now,
	}
}

// searchCommand searches Spotify for tracks or albums.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search Spotify for tracks or albums",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "Search for tracks or albums (track, album)",
				Value:   "track",
			},
			&cli.IntFlag{
				Name:  "log",
				Usage: "Open a logging session for the numbered result",
			},
			&cli.StringFlag{
				Name:    "message",
				Aliases: []string{"m"},
				Usage:   "With --log, log this text directly",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// recentCommand lists recently played tracks.
func recentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "List recently played tracks",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of tracks to return",
				Value: 20,
			},
			&cli.IntFlag{
				Name:  "log",
				Usage: "Open a logging session for the numbered track",
			},
			&cli.StringFlag{
				Name:    "message",
				Aliases: []string{"m"},
				Usage:   "With --log, log this text directly",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Recent,
	}
}

// historyCommand surfaces the local log history.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show locally logged entries",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries to show",
				Value: 25,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Export the log history to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, json, markdown)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries to export",
					},
				},
				Action: r.HistoryExport,
			},
		},
	}
}
