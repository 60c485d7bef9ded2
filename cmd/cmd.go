// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles database initialization and token storage.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "tokens",
				Usage: "Save API tokens into the store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "discogs",
						Usage: "Discogs personal access token",
					},
					&cli.StringFlag{
						Name:  "todoist",
						Usage: "Todoist API token",
					},
				},
				Action: r.withDeps(r.SetupTokens),
			},
		},
	}
}

// labelCommand looks labels up in the catalog.
func labelCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "label",
		Usage: "Catalog label lookups",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show a label's profile",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.withDeps(r.LabelShow),
			},
		},
	}
}

// queueCommand manages and processes the label queue.
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "queue",
		Aliases: []string{"q"},
		Usage:   "Manage the label queue",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Verify a label with the catalog and queue it",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.withDeps(r.QueueAdd),
			},
			{
				Name:  "list",
				Usage: "List queued labels",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.withDeps(r.QueueList),
			},
			{
				Name:  "remove",
				Usage: "Remove a label from the queue",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.withDeps(r.QueueRemove),
			},
			{
				Name:   "clear",
				Usage:  "Empty the queue",
				Action: r.withDeps(r.QueueClear),
			},
			{
				Name:  "process",
				Usage: "Fetch every release of every queued label into the cache",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-progress",
						Usage: "Log progress instead of drawing a progress bar",
					},
				},
				Action: r.withDeps(r.QueueProcess),
			},
		},
	}
}

// labelsCommand reports on imported labels.
func labelsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "labels",
		Usage: "Imported label operations",
		Commands: []*cli.Command{
			{
				Name:  "imported",
				Usage: "List labels whose releases have been imported",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.withDeps(r.LabelsImported),
			},
		},
	}
}

// releasesCommand browses the release cache.
func releasesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "releases",
		Aliases: []string{"r"},
		Usage:   "Browse cached releases",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Filter, sort and page through cached releases",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Match title, artist or label",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort key: date, title, artist, status, tracks, type, catno, label or year",
						Value: "date",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Sort direction: asc or desc (default depends on the key)",
					},
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.withDeps(r.ReleasesList),
			},
			{
				Name:  "open",
				Usage: "Open a cached release on discogs.com",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.withDeps(r.ReleasesOpen),
			},
		},
	}
}

// cacheCommand maintains the release cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Release cache maintenance",
		Commands: []*cli.Command{
			{
				Name:  "missing",
				Usage: "Re-fetch cached releases that have no tracklist",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "list",
						Usage: "Only list the incomplete releases",
					},
					&cli.BoolFlag{
						Name:  "no-progress",
						Usage: "Log progress instead of drawing a progress bar",
					},
				},
				Action: r.withDeps(r.CacheMissing),
			},
			{
				Name:  "import",
				Usage: "Merge releases from a JSON export into the cache",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "overwrite-status",
						Usage: "Let imported statuses replace cached ones",
					},
				},
				Action: r.withDeps(r.CacheImport),
			},
			{
				Name:  "export",
				Usage: "Export the cache as json, csv, md or txt (chosen by extension)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.withDeps(r.CacheExport),
			},
			{
				Name:  "stats",
				Usage: "Summarize the cache",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.withDeps(r.CacheStats),
			},
		},
	}
}

// todoistCommand files releases as Todoist tasks.
func todoistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "todoist",
		Usage: "Todoist integration",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a listening task for a cached release",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.withDeps(r.TodoistAdd),
			},
		},
	}
}

// runsCommand reports the run history.
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Processing run history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.withDeps(r.RunsList),
			},
		},
	}
}

// serveCommand starts the HTTP message and event server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the message endpoint and event streams over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default from config)",
			},
		},
		Action: r.withDeps(r.Serve),
	}
}

// tuiCommand launches the interactive terminal UI.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Interactive terminal UI for the label queue",
		Action: r.TUI,
	}
}
