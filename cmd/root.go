package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/histmigrate/config"
	"github.com/masmgr/histmigrate/internal/output"
)

// version is overridden at build time with -ldflags "-X".
var version = "dev"

func init() {
	// -v is taken by --verbose.
	cli.VersionFlag = &cli.BoolFlag{
		Name:               "version",
		Usage:              "print the version",
		DisableDefaultText: true,
	}
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:            "histmigrate",
		Usage:           "Copy files out of another git repository and record their upstream history in one commit",
		UsageText:       "histmigrate [options] <path>...",
		Version:         version,
		HideHelpCommand: true,
		Commands: []*cli.Command{
			HistoryCmd(),
			ConfigCmd(),
		},
		Flags:  append(sourceFlags(), migrateFlags()...),
		Action: migrateAction,
		// Exit codes are decided by Run, not by the library.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// sourceFlags are shared by every command that reads the source repository.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "tempest_git_url",
			Aliases: []string{"u"},
			Usage:   "URL of the source repository (env " + config.EnvSourceURL + ")",
			Value:   config.DefaultSourceURL,
		},
		&cli.StringFlag{
			Name:    "branch",
			Aliases: []string{"b"},
			Usage:   "Source branch to clone (default: the remote HEAD)",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Git implementation to use (git, go-git)",
			Value: config.DefaultBackend,
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log every step",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log errors",
		},
	}
}

// migrateFlags are the flags of the default migrate action.
func migrateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output_dir",
			Aliases: []string{"o"},
			Usage:   "Directory of the destination repository the files are copied into",
			Value:   config.DefaultOutputDir,
		},
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Path to the destination Git repository",
			Value:   ".",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns skipped inside copied directories (can be specified multiple times)",
		},
		&cli.BoolFlag{
			Name:    "dry-run",
			Aliases: []string{"n"},
			Usage:   "Print the commit message without copying or committing",
		},
	}
}

// lookupSet returns the context in c's lineage on which name was set.
func lookupSet(c *cli.Context, name string) (*cli.Context, bool) {
	for _, cc := range c.Lineage() {
		if cc != nil && cc.IsSet(name) {
			return cc, true
		}
	}
	return nil, false
}

// loadConfig loads configuration from file, environment and CLI flags, in
// increasing order of precedence.
func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := ""
	if cc, ok := lookupSet(c, "config"); ok {
		configPath = cc.String("config")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cc, ok := lookupSet(c, "tempest_git_url"); ok {
		cfg.Source.URL = cc.String("tempest_git_url")
	}
	if cc, ok := lookupSet(c, "branch"); ok {
		cfg.Source.Branch = cc.String("branch")
	}
	if cc, ok := lookupSet(c, "backend"); ok {
		cfg.Backend = cc.String("backend")
	}
	if cc, ok := lookupSet(c, "output_dir"); ok {
		cfg.OutputDir = cc.String("output_dir")
	}
	if cc, ok := lookupSet(c, "exclude"); ok {
		cfg.Filters.Exclude = cc.StringSlice("exclude")
	}

	return cfg, nil
}

// flagBool reports whether a boolean flag is true anywhere in c's lineage.
func flagBool(c *cli.Context, name string) bool {
	cc, ok := lookupSet(c, name)
	return ok && cc.Bool(name)
}

// getOutputFormat parses the output format flag.
func getOutputFormat(s string) output.OutputFormat {
	return output.ParseFormat(s)
}

// ExitCode returns the exit status for err: the status of a failed git
// subprocess in its chain, otherwise 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}
	return 1
}

// normalizeArgs moves flags, with their values, ahead of the positional
// arguments of each command so options may follow the paths. Everything
// after a literal "--" stays positional. A help flag drops the positionals,
// which the parser would otherwise take as help topics.
func normalizeArgs(app *cli.App, args []string) []string {
	if len(args) == 0 {
		return args
	}
	out := []string{args[0]}
	return append(out, hoistFlags(args[1:], app.Flags, app.Commands)...)
}

func hoistFlags(args []string, flags []cli.Flag, commands []*cli.Command) []string {
	var hoisted, positional []string
	help := false

	for i := 0; i < len(args); i++ {
		a := args[i]

		if a == "--" {
			if help {
				return hoisted
			}
			hoisted = append(hoisted, "--")
			hoisted = append(hoisted, positional...)
			return append(hoisted, args[i+1:]...)
		}

		if !strings.HasPrefix(a, "-") || a == "-" {
			if len(positional) == 0 {
				if cmd := findCommand(commands, a); cmd != nil {
					hoisted = append(hoisted, a)
					return append(hoisted, hoistFlags(args[i+1:], cmd.Flags, cmd.Subcommands)...)
				}
			}
			positional = append(positional, a)
			continue
		}

		hoisted = append(hoisted, a)
		name := strings.TrimLeft(a, "-")
		if isHelpFlag(name) {
			help = true
		}
		if strings.Contains(name, "=") {
			continue
		}
		if takesValue(flags, name) && i+1 < len(args) {
			i++
			hoisted = append(hoisted, args[i])
		}
	}

	if help {
		return hoisted
	}
	return append(hoisted, positional...)
}

func isHelpFlag(name string) bool {
	if cli.HelpFlag == nil {
		return false
	}
	for _, n := range cli.HelpFlag.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func findCommand(commands []*cli.Command, name string) *cli.Command {
	for _, cmd := range commands {
		if cmd.HasName(name) {
			return cmd
		}
	}
	return nil
}

// takesValue reports whether name is a flag that consumes the next argument.
// Unknown flags are left to the parser.
func takesValue(flags []cli.Flag, name string) bool {
	for _, f := range flags {
		for _, n := range f.Names() {
			if n != name {
				continue
			}
			df, ok := f.(cli.DocGenerationFlag)
			return ok && df.TakesValue()
		}
	}
	return false
}

// runArgs runs app with args after moving flags ahead of the paths.
func runArgs(ctx context.Context, app *cli.App, args []string) error {
	return app.RunContext(ctx, normalizeArgs(app, args))
}

// Run executes the CLI application.
func Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := runArgs(ctx, App(), os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitCode(err))
	}
}
