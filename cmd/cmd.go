// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand starts the HTTP server for the web workflow
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the import pipeline over HTTP",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.host and server.port",
			},
		},
		Action: r.Serve,
	}
}

// runCommand processes one folder end to end without the web workflow
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Stage, analyze, resolve and export a folder in one pass",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "folder",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "start",
				Usage:    "Start of the date range (YYYY-MM-DD[ HH:MM:SS])",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "end",
				Usage:    "End of the date range (YYYY-MM-DD[ HH:MM:SS])",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "prefer",
				Usage: "Candidate kinds to apply in order",
				Value: []string{"filename", "pathname", "file_date"},
			},
			&cli.StringFlag{
				Name:  "fallback",
				Usage: "Choice for files no preferred kind resolved: a kind or a date",
			},
			&cli.BoolFlag{
				Name:  "post-process",
				Usage: "Run the post-process script before exporting",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show the resolved files and cancel instead of exporting",
			},
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Pick a date for each file in a terminal UI before exporting",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Summary format (text, json, yaml)",
				Value:   "text",
			},
		},
		Action: r.Run,
	}
}

// foldersCommand lists folders with their processed flags
func foldersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "folders",
		Aliases: []string{"ls"},
		Usage:   "List folders under the originals folder",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "path",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Folders,
	}
}

// flagsCommand handles processed flags
func flagsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "flags",
		Usage: "Processed flag operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded folder paths",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "prefix",
					},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.FlagsList,
			},
			{
				Name:  "toggle",
				Usage: "Flip the processed flag of a recorded path",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.FlagsToggle,
			},
		},
	}
}

// reportsCommand handles stored finish reports
func reportsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reports",
		Usage: "Stored report operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored reports, newest first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "stage",
						Usage: "Only reports ending in this stage (FINISHED, CANCELLED)",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only reports for this source folder",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of reports to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ReportsList,
			},
			{
				Name:  "show",
				Usage: "Print one report",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "task_id",
					},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, json, yaml)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory to write the report to instead of stdout",
					},
				},
				Action: r.ReportsShow,
			},
			{
				Name:  "delete",
				Usage: "Remove a stored report",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "task_id",
					},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.ReportsDelete,
			},
		},
	}
}

// postprocCommand runs the post-process script on the export folder
func postprocCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "postproc",
		Usage: "Run the post-process script on the export folder",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.PostProcess,
	}
}
