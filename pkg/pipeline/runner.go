package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/cardforge/pkg/cache"
	"github.com/matzehuels/cardforge/pkg/compose"
	"github.com/matzehuels/cardforge/pkg/errors"
	"github.com/matzehuels/cardforge/pkg/observability"
	"github.com/matzehuels/cardforge/pkg/photo"
	"github.com/matzehuels/cardforge/pkg/table"
)

// Runner executes batch runs.
//
// The Runner is stateless except for the photo source and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Photos photo.Source
	Logger *log.Logger
}

// NewRunner creates a runner downloading photos through photos.
// If photos is nil, an uncached Fetcher is used.
func NewRunner(photos photo.Source, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if photos == nil {
		photos = photo.NewFetcher(cache.NewNullCache(), logger)
	}
	return &Runner{Photos: photos, Logger: logger}
}

// Batch is a prepared run: rows read, template decoded, compositor ready.
type Batch struct {
	Table      *table.Table
	Compositor *compose.Compositor
	OutputDir  string
}

// Prepare reads the data, loads the template and creates the output
// directory. Every error it returns is fatal for the run.
func (r *Runner) Prepare(ctx context.Context, opts *Options) (*Batch, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	for _, w := range opts.Config.Warnings() {
		logger.Warn("layout", "problem", w)
		opts.Sink.Log("warning: " + w)
	}

	tbl, err := table.Open(opts.DataPath)
	if err != nil {
		return nil, err
	}
	if tbl.Len() == 0 {
		return nil, errors.New(errors.ErrCodeDataEmpty, "%s has no data rows", opts.DataPath)
	}
	logger.Debug("read data", "path", opts.DataPath, "rows", tbl.Len(), "columns", len(tbl.Columns))

	tpl, err := compose.LoadTemplate(opts.Config.ResolveTemplate(opts.BaseDir))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	comp, err := compose.New(compose.Options{
		Config:   opts.Config,
		Template: tpl,
		Photos:   r.Photos,
		Fonts:    opts.Fonts,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved font", "source", comp.FontSource())

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeOutput, err, "create output directory %s", opts.OutputDir)
	}
	return &Batch{Table: tbl, Compositor: comp, OutputDir: opts.OutputDir}, nil
}

// Run renders and saves one card per row.
//
// Fatal errors are reported to the sink and returned with a nil Result.
// Row failures do not stop the run: the Result is returned together with a
// ROWS_FAILED error. A cancelled run returns ctx.Err() and the partial
// Result.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	opts.SetDefaults()
	runID := uuid.NewString()
	opts.Logger = opts.Logger.With("run", runID[:8])
	sink := opts.Sink

	sink.Log("reading data...")
	batch, err := r.Prepare(ctx, &opts)
	if err != nil {
		sink.Fatal(errors.UserMessage(err))
		return nil, err
	}

	result := &Result{RunID: runID, Total: batch.Table.Len()}
	observability.Batch().OnBatchStart(ctx, runID, result.Total)
	opts.Logger.Info("starting batch", "rows", result.Total, "workers", opts.Workers, "output", batch.OutputDir)
	sink.Log("generating cards...")

	err = r.process(ctx, batch, &opts, result)
	result.Duration = time.Since(start)
	observability.Batch().OnBatchComplete(ctx, runID, result.Rendered, result.Failed(), result.Duration)
	if err != nil {
		return result, err
	}

	sink.Progress(100)
	sink.Log("done")
	opts.Logger.Info("batch complete",
		"rendered", result.Rendered,
		"failed", result.Failed(),
		"photo_failures", result.PhotoFailures,
		"duration", result.Duration)

	if n := result.Failed(); n > 0 {
		return result, errors.New(errors.ErrCodeRowsFailed, "%d of %d rows failed", n, result.Total)
	}
	return result, nil
}

// =============================================================================
// Row Processing
// =============================================================================

type rowResult struct {
	name     string
	path     string
	photoErr error
	err      error
	skipped  bool
}

// claimNames derives every row's output name up front so that no two rows
// write the same file. Rows whose name cannot be derived get "" and fail
// in Render.
func claimNames(pattern string, rows []table.Row) (names, wanted []string) {
	set := compose.NewNameSet()
	names = make([]string, len(rows))
	wanted = make([]string, len(rows))
	for i, row := range rows {
		name, err := compose.OutputName(pattern, row, i)
		if err != nil {
			continue
		}
		wanted[i] = name
		names[i] = set.Claim(name)
	}
	return names, wanted
}

// process renders rows with up to opts.Workers goroutines and reports them
// in row order as they complete.
func (r *Runner) process(ctx context.Context, batch *Batch, opts *Options, result *Result) error {
	rows := batch.Table.Rows
	names, wanted := claimNames(batch.Compositor.Config().FilenamePattern, rows)
	results := make([]rowResult, len(rows))
	done := make([]chan struct{}, len(rows))
	for i := range done {
		done[i] = make(chan struct{})
	}

	runID := result.RunID
	var g errgroup.Group
	g.SetLimit(opts.Workers)
	scheduled := make(chan struct{})
	go func() {
		defer close(scheduled)
		for i := range rows {
			g.Go(func() error {
				defer close(done[i])
				if ctx.Err() != nil {
					results[i].skipped = true
					return nil
				}
				results[i] = r.processRow(ctx, batch, runID, i, rows[i], names[i])
				return nil
			})
		}
	}()

	cancelled := false
	for i := range rows {
		<-done[i]
		res := results[i]
		if res.skipped {
			cancelled = true
			break
		}
		if res.err == nil && names[i] != wanted[i] {
			opts.Logger.Warn("duplicate output name", "row", i, "name", wanted[i], "saved_as", names[i])
			opts.Sink.Log(fmt.Sprintf("row %d: %s already used, saving as %s", i, wanted[i], names[i]))
		}
		r.report(opts, result, i, res)
		opts.Sink.Progress(float64(i+1) * 100 / float64(len(rows)))
	}

	<-scheduled
	_ = g.Wait()
	if cancelled {
		return ctx.Err()
	}
	return nil
}

func (r *Runner) processRow(ctx context.Context, batch *Batch, runID string, index int, row table.Row, name string) rowResult {
	start := time.Now()
	var res rowResult

	card, err := batch.Compositor.Render(ctx, index, row)
	if err == nil {
		if name != "" {
			card.Name = name
		}
		res.name = card.Name
		res.photoErr = card.PhotoErr
		res.path, err = batch.Compositor.Save(card, batch.OutputDir)
	}
	res.err = err

	observability.Batch().OnRowComplete(ctx, runID, index, time.Since(start), err)
	return res
}

func (r *Runner) report(opts *Options, result *Result, index int, res rowResult) {
	logger := opts.Logger.With("row", index)

	if res.photoErr != nil {
		result.PhotoFailures++
		logger.Warn("photo not placed", "err", res.photoErr)
		opts.Sink.Log(fmt.Sprintf("row %d: photo not placed: %s", index, errors.UserMessage(res.photoErr)))
	}
	if res.err != nil {
		result.Failures = append(result.Failures, RowFailure{Index: index, Err: res.err})
		logger.Error("row failed", "name", res.name, "err", res.err)
		opts.Sink.Log(fmt.Sprintf("row %d failed: %s", index, errors.UserMessage(res.err)))
		return
	}

	result.Rendered++
	result.Outputs = append(result.Outputs, res.path)
	logger.Debug("saved card", "path", res.path)
	opts.Sink.Log("saved " + res.name)
}
