package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cardforge/internal/api"
	"github.com/matzehuels/cardforge/pkg/compose"
	"github.com/matzehuels/cardforge/pkg/errors"
	"github.com/matzehuels/cardforge/pkg/fonts"
)

const (
	defaultAddr     = "127.0.0.1:8080"
	shutdownTimeout = 5 * time.Second
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr       string
	configPath string
	baseDir    string
	cache      cacheFlags
}

// serveCommand creates the serve command that exposes the preview API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: defaultAddr}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve card previews over HTTP",
		Long: `Serve card previews over HTTP.

Endpoints:
  GET  /api/health   server status
  GET  /api/config   the layout document in use
  POST /api/render   {"row": {...}, "index": N} => encoded card`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "layout document (.json or .toml)")
	registerLayoutFlag(cmd)
	cmd.Flags().StringVar(&opts.baseDir, "base-dir", "", "directory for resolving a relative template path")
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	tpl, err := compose.LoadTemplate(cfg.ResolveTemplate(opts.baseDir))
	if err != nil {
		return err
	}
	runner, store, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer store.Close()

	comp, err := compose.New(compose.Options{
		Config:   cfg,
		Template: tpl,
		Photos:   runner.Photos,
		Fonts:    fonts.Load(cfg.Font.TTFPath, logger),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           api.New(comp, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	printSuccess("Serving previews")
	printKeyValue("address", "http://"+opts.addr)
	printKeyValue("template", tpl.Path())

	select {
	case err := <-errCh:
		return errors.Wrap(errors.ErrCodeInternal, err, "listen on %s", opts.addr)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	return ctx.Err()
}
