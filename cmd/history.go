package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/histmigrate/internal/history"
	"github.com/masmgr/histmigrate/internal/logging"
	"github.com/masmgr/histmigrate/internal/migrate"
	"github.com/masmgr/histmigrate/internal/output"
)

// HistoryCmd returns the history command.
func HistoryCmd() *cli.Command {
	flags := append(sourceFlags(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, csv, markdown, ci)",
			Value:   "console",
		},
		&cli.IntFlag{
			Name:  "top",
			Usage: "Number of newest commits to show (0 for all)",
		},
		&cli.StringFlag{
			Name:  "output-file",
			Usage: "Output file path (default: stdout)",
		},
	)

	return &cli.Command{
		Name:      "history",
		Aliases:   []string{"log"},
		Usage:     "Print the upstream commits that a migration of the paths would record",
		ArgsUsage: "<path>...",
		Flags:     flags,
		Action:    historyAction,
	}
}

func historyAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("%w; usage: %s history [options] <path>...", migrate.ErrNoPaths, c.App.Name)
	}

	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	h, err := ctx.extractHistory(c)
	if err != nil {
		return err
	}

	format := getOutputFormat(c.String("format"))
	report := output.NewHistoryReport(ctx.Config.Source.URL, ctx.Config.Source.Branch, ctx.Paths, h, time.Now())
	writer := output.NewHistoryReportWriter(format)
	return writer.Write(report, output.OutputOptions{
		Format:     format,
		Top:        c.Int("top"),
		OutputPath: c.String("output-file"),
	})
}

// extractHistory clones the source into a scratch directory, extracts the
// history of the positional paths and removes the clone.
func (ctx *CommandContext) extractHistory(c *cli.Context) (*history.History, error) {
	scratch := migrate.TempScratch{}
	dir, err := scratch.Create()
	if err != nil {
		return nil, &migrate.StepError{Step: migrate.StepClone, Err: err}
	}

	src, err := ctx.Backend.Cloner.Clone(c.Context, ctx.Config.Source.URL, ctx.Config.Source.Branch, dir)
	if err != nil {
		_ = scratch.Remove(dir)
		return nil, &migrate.StepError{Step: migrate.StepClone, Err: err}
	}

	h, err := history.Extract(c.Context, src, ctx.Paths)
	if rmErr := scratch.Remove(dir); rmErr != nil {
		logging.Warn(ctx.Log, rmErr, "history", string(migrate.StepCleanup), "failed to remove clone "+dir)
	}
	if err != nil {
		return nil, &migrate.StepError{Step: migrate.StepHistory, Err: err}
	}
	return h, nil
}
