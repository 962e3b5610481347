package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/histmigrate/internal/git"
	"github.com/masmgr/histmigrate/internal/migrate"
)

// migrateAction copies the positional paths from the source repository into
// the destination repository and commits them with their history.
func migrateAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("%w; usage: %s", migrate.ErrNoPaths, c.App.UsageText)
	}

	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	dest, err := ctx.Backend.OpenDestination(c.Context, c.String("repo"))
	if err != nil {
		return err
	}

	m := migrate.New(ctx.Backend.Cloner, dest, osfs.New(dest.Root()), migrate.TempScratch{}, ctx.Log)
	res, err := m.Run(c.Context, ctx.MigrateOptions(c.Bool("dry-run")))
	if err != nil {
		return err
	}

	if res.CommitSHA == "" {
		printDryRun(c.App.Writer, dest.Root(), res)
		return nil
	}
	if !flagBool(c, "quiet") {
		printMigrated(c.App.Writer, res)
	}
	return nil
}

func printDryRun(w io.Writer, root string, res *migrate.Result) {
	color.New(color.FgYellow).Fprintf(w, "Dry run: nothing copied into %s\n", root)
	fmt.Fprintf(w, "Would copy into %s:\n", res.OutputDir)
	for _, p := range res.Paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, res.Message.String())
}

func printMigrated(w io.Writer, res *migrate.Result) {
	color.New(color.FgGreen).Fprintf(w, "Migrated %d path(s), %d file(s) into %s\n", len(res.Copied), res.Files, res.OutputDir)
	fmt.Fprintf(w, "Commit %s records %d upstream commit(s)\n", git.Abbreviate(res.CommitSHA), len(res.Message.History))
}
