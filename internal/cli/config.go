package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cardforge/pkg/config"
	"github.com/matzehuels/cardforge/pkg/errors"
)

// defaultConfigFile is written by "config init" when no path is given.
const defaultConfigFile = "config.json"

// configCommand creates the layout document management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write, print and validate layout documents",
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configValidateCommand())

	return cmd
}

// configInitCommand creates the "config init" subcommand.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default layout document (.json or .toml)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			printSuccess("Wrote default layout")
			printFile(path)
			printNextStep("Render a batch", fmt.Sprintf("%s generate data.xlsx -c %s", appName, path))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	var (
		path   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the layout document merged onto the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			data, err := cfg.Encode(config.Format(format))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&path, "config", "c", "", "layout document (.json or .toml)")
	registerLayoutFlag(cmd)
	cmd.Flags().StringVar(&format, "format", string(config.FormatJSON), "output format: json, toml")
	return cmd
}

// configValidateCommand creates the "config validate" subcommand.
func (c *CLI) configValidateCommand() *cobra.Command {
	var baseDir string

	cmd := &cobra.Command{
		Use:               "validate <path>",
		Short:             "Check a layout document for errors",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeLayoutFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			printSuccess("%s is valid", args[0])
			printKeyValue("fields", fmt.Sprint(len(cfg.Fields)))
			printKeyValue("lists", fmt.Sprint(len(cfg.MultilineFields)))
			printKeyValue("photo box", fmt.Sprint(cfg.ImageBox != nil))
			for _, w := range cfg.Warnings() {
				printWarning("%s", w)
			}

			tpl := cfg.ResolveTemplate(baseDir)
			if _, err := os.Stat(tpl); err != nil {
				printWarning("template not found: %s", tpl)
			} else {
				printKeyValue("template", tpl)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", "", "directory for resolving a relative template path")
	return cmd
}
