// Package pipeline runs a whole batch: one card per row of a data table.
//
// This package implements the read → compose → save loop that is shared by
// the generate command, the TUI and the preview server. By centralizing it,
// fatal conditions, per-row isolation and progress reporting behave the
// same for every entry point.
//
// # Usage
//
//	runner := pipeline.NewRunner(fetcher, logger)
//	result, err := runner.Run(ctx, pipeline.Options{
//	    DataPath:  "products.xlsx",
//	    Config:    cfg,
//	    OutputDir: "out",
//	    Workers:   4,
//	})
//	if errors.Is(err, errors.ErrCodeRowsFailed) {
//	    // some rows were skipped, the rest were saved
//	}
//
// Fatal conditions (unreadable or empty data, missing or undecodable
// template, unusable output directory) abort the run before any card is
// written. Everything else is local to one row.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cardforge/pkg/config"
	"github.com/matzehuels/cardforge/pkg/errors"
	"github.com/matzehuels/cardforge/pkg/fonts"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultWorkers is the number of rows rendered at once.
const DefaultWorkers = 1

// MaxWorkers bounds Options.Workers.
const MaxWorkers = 64

// =============================================================================
// Options - Batch Configuration
// =============================================================================

// Options contains all configuration for one batch run.
type Options struct {
	// DataPath is the CSV or spreadsheet to read rows from.
	DataPath string `json:"data_path"`

	// OutputDir receives the cards. Empty uses the config's output_dir.
	OutputDir string `json:"output_dir,omitempty"`

	// BaseDir resolves a relative template path. Empty uses the config
	// file's directory, then the executable's.
	BaseDir string `json:"base_dir,omitempty"`

	// Workers is the number of rows rendered concurrently.
	Workers int `json:"workers,omitempty"`

	// Runtime options (not serialized)
	Config *config.Config `json:"-"`
	Fonts  *fonts.Library `json:"-"`
	Sink   Sink           `json:"-"`
	Logger *log.Logger    `json:"-"`
}

// SetDefaults fills in unset fields.
func (o *Options) SetDefaults() {
	if o.Config == nil {
		o.Config = config.Default()
	}
	if o.OutputDir == "" {
		o.OutputDir = o.Config.OutputDir
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Sink == nil {
		o.Sink = NewLogSink(o.Logger)
	}
}

// Validate checks required fields and the layout document.
func (o *Options) Validate() error {
	if o.DataPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "data file is required")
	}
	if o.OutputDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "output directory is required")
	}
	if o.Workers > MaxWorkers {
		return errors.New(errors.ErrCodeInvalidInput, "workers must be at most %d, got %d", MaxWorkers, o.Workers)
	}
	if o.Config != nil {
		return o.Config.Validate()
	}
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result summarizes a batch run.
type Result struct {
	// RunID identifies the run in logs and hooks.
	RunID string `json:"run_id"`

	// Total is the number of data rows.
	Total int `json:"total"`

	// Rendered is the number of cards saved.
	Rendered int `json:"rendered"`

	// Outputs holds the saved paths in row order.
	Outputs []string `json:"outputs"`

	// PhotoFailures counts rows whose photo could not be placed. Those
	// rows are still saved.
	PhotoFailures int `json:"photo_failures"`

	// Failures lists the rows that were not saved.
	Failures []RowFailure `json:"failures,omitempty"`

	Duration time.Duration `json:"duration"`
}

// RowFailure is a row that could not be saved.
type RowFailure struct {
	Index int   `json:"index"`
	Err   error `json:"-"`
}

// Failed returns the number of rows that were not saved.
func (r *Result) Failed() int { return len(r.Failures) }
