package cli

import (
	"context"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cardforge/pkg/compose"
	"github.com/matzehuels/cardforge/pkg/errors"
	"github.com/matzehuels/cardforge/pkg/pipeline"
)

// previewOpts holds the command-line flags for the preview command.
type previewOpts struct {
	configPath string
	output     string // image file; the derived card name in the working directory when empty
	baseDir    string
	row        int // zero-based data row
	cache      cacheFlags
}

// previewCommand creates the preview command that renders a single row.
func (c *CLI) previewCommand() *cobra.Command {
	var opts previewOpts

	cmd := &cobra.Command{
		Use:               "preview <data>",
		Short:             "Render a single row to an image file",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "layout document (.json or .toml)")
	registerLayoutFlag(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output image (format from the extension)")
	cmd.Flags().StringVar(&opts.baseDir, "base-dir", "", "directory for resolving a relative template path")
	cmd.Flags().IntVarP(&opts.row, "row", "r", 0, "zero-based row to render")
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, data string, opts *previewOpts) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	runner, store, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer store.Close()

	outDir := "."
	if opts.output != "" {
		outDir = filepath.Dir(opts.output)
	}
	batch, err := runner.Prepare(ctx, &pipeline.Options{
		DataPath:  data,
		Config:    cfg,
		OutputDir: outDir,
		BaseDir:   opts.baseDir,
		Logger:    loggerFromContext(ctx),
	})
	if err != nil {
		return err
	}

	rows := batch.Table.Rows
	if opts.row < 0 || opts.row >= len(rows) {
		return errors.New(errors.ErrCodeInvalidInput, "row %d out of range (file has %d rows)", opts.row, len(rows))
	}
	card, err := batch.Compositor.Render(ctx, opts.row, rows[opts.row])
	if err != nil {
		return err
	}
	if card.PhotoErr != nil {
		printWarning("photo not placed: %s", errors.UserMessage(card.PhotoErr))
	}

	path := opts.output
	if path == "" {
		if path, err = batch.Compositor.Save(card, outDir); err != nil {
			return err
		}
	} else if err := imaging.Save(card.Image, path, imaging.JPEGQuality(compose.JPEGQuality)); err != nil {
		return errors.Wrap(errors.ErrCodeOutput, err, "save preview %s", path)
	}

	printSuccess("Rendered row %d", opts.row)
	printFile(path)
	return nil
}
