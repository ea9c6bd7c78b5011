package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cardforge/pkg/pipeline"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	configPath string // layout document (.json or .toml); defaults when empty
	output     string // output directory; the config's output_dir when empty
	baseDir    string // directory a relative template path is resolved against
	workers    int    // rows rendered concurrently
	tui        bool   // show the interactive progress view
	cache      cacheFlags
}

// generateCommand creates the generate command that renders a whole batch.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{workers: pipeline.DefaultWorkers}

	cmd := &cobra.Command{
		Use:               "generate <data>",
		Short:             "Render one card per row of a CSV or Excel file",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "layout document (.json or .toml)")
	registerLayoutFlag(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default: output_dir from the config)")
	cmd.Flags().StringVar(&opts.baseDir, "base-dir", "", "directory for resolving a relative template path")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", opts.workers, "rows rendered concurrently")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show an interactive progress view")
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, data string, opts *generateOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	runner, store, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer store.Close()

	popts := pipeline.Options{
		DataPath:  data,
		Config:    cfg,
		OutputDir: opts.output,
		BaseDir:   opts.baseDir,
		Workers:   opts.workers,
		Logger:    logger,
	}

	if opts.tui {
		result, err := runWithTUI(ctx, runner, popts)
		if result != nil {
			printSummary(result)
		}
		return err
	}

	timer := startTimer(logger)
	result, err := runner.Run(ctx, popts)
	if result == nil {
		return err
	}
	printSummary(result)
	if err != nil {
		return err
	}
	timer.finish(result)
	return nil
}
