package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/histmigrate/config"
)

// ConfigCmd returns the config command.
func ConfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration after files, environment and flags are applied",
		Flags: append(sourceFlags(), migrateFlags()...),
		Subcommands: []*cli.Command{
			{
				Name:      "write",
				Usage:     "Write the effective configuration to a file (.json, .yml or .yaml)",
				ArgsUsage: "<file>",
				Action:    configWriteAction,
			},
		},
		Action: configShowAction,
	}
}

func configShowAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg, true)
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func configWriteAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument, got %d", c.NArg())
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path := c.Args().First()
	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}
