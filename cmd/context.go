package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/histmigrate/config"
	"github.com/masmgr/histmigrate/internal/git"
	"github.com/masmgr/histmigrate/internal/logging"
	"github.com/masmgr/histmigrate/internal/message"
	"github.com/masmgr/histmigrate/internal/migrate"
)

// CommandContext holds common state for command execution.
// It encapsulates the setup shared by the commands that read the source repository.
type CommandContext struct {
	Config  *config.Config
	Log     *logrus.Logger
	Backend git.Backend
	Paths   []string
}

// NewCommandContext creates a context from CLI flags.
// It loads the configuration, builds the logger and selects the git backend.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	level, err := logLevel(c, cfg)
	if err != nil {
		return nil, err
	}

	kind, err := git.ParseBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Config:  cfg,
		Log:     logging.New(c.App.ErrWriter, level),
		Backend: git.NewBackend(kind),
		Paths:   c.Args().Slice(),
	}, nil
}

// logLevel resolves the level from the configuration, then --verbose and --quiet.
func logLevel(c *cli.Context, cfg *config.Config) (logrus.Level, error) {
	verbose, quiet := flagBool(c, "verbose"), flagBool(c, "quiet")
	if verbose || quiet {
		return logging.LevelFor(verbose, quiet), nil
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return 0, fmt.Errorf("invalid configuration: %w", err)
	}
	return level, nil
}

// Templates returns the commit message templates from the configuration.
func (ctx *CommandContext) Templates() message.Templates {
	return message.Templates{
		SourceName: ctx.Config.Source.Name,
		Summary:    ctx.Config.Message.Summary,
		Preamble:   ctx.Config.Message.Preamble,
		Postscript: ctx.Config.Message.Postscript,
	}
}

// MigrateOptions builds the migration request for the positional paths.
func (ctx *CommandContext) MigrateOptions(dryRun bool) migrate.Options {
	return migrate.Options{
		Paths:        ctx.Paths,
		SourceURL:    ctx.Config.Source.URL,
		SourceBranch: ctx.Config.Source.Branch,
		OutputDir:    ctx.Config.OutputDir,
		Exclude:      ctx.Config.Filters.Exclude,
		DryRun:       dryRun,
		Templates:    ctx.Templates(),
	}
}
