// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/readerprint/internal/formatter"
	"github.com/urfave/cli/v3"
)

// syncCommand runs one incremental sync pass.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Print articles saved since the last run",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "printer",
				Aliases: []string{"p"},
				Usage:   "CUPS queue to print to (overrides printer.name and PRINTER_NAME)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "List the articles that would be printed without printing or saving anything",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Use the only available printer without prompting when none is configured",
			},
		},
		Action: r.Sync,
	}
}

// printersCommand lists the print queues known to CUPS.
func printersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "printers",
		Usage: "List available printers",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Printers,
	}
}

// stateCommand inspects and edits the sync checkpoint.
func stateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Inspect or reset the sync state",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the last sync time and identifier counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the raw state file",
					},
				},
				Action: r.StateShow,
			},
			{
				Name:  "reset",
				Usage: "Move the watermark back so older articles are fetched again",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "since",
						Usage: "Set the last sync time to this long ago (e.g. 24h); zero means now",
					},
					&cli.BoolFlag{
						Name:  "forget",
						Usage: "Also forget printed and skipped articles so they can print again",
					},
				},
				Action: r.StateReset,
			},
		},
	}
}

// historyCommand shows the print log.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent print jobs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv, markdown or json",
				Value:   formatter.FormatText,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of jobs to show (0 for all)",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show jobs with this status (printed, failed, skipped)",
			},
			&cli.StringFlag{
				Name:  "identifier",
				Usage: "Show only the latest job for this article URL",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.History,
	}
}

// setupCommand handles first-run setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example configuration file",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the print history database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recently applied migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
