// Package cli implements the cardforge command-line interface.
//
// This package provides commands for generating card batches, previewing a
// single row, inspecting data files and layout documents, serving an HTTP
// preview API and managing the photo cache. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - generate: Render one card per data row into an output directory
//   - preview: Render a single row to a file
//   - columns: List the column names of a data file
//   - config: Write, print and validate layout documents
//   - serve: HTTP preview API
//   - cache: Manage the photo cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so every command reaches the same one.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cardforge/pkg/pipeline"
)

// newLogger creates the CLI logger. Timestamps read "15:04:05.00" so rows
// rendered within the same second stay distinguishable.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// quietLogger drops everything. The TUI owns the terminal while it runs and
// shows sink lines instead.
func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// batchTimer measures a command end to end. Result.Duration covers only the
// run; this also counts config loading and cache setup.
type batchTimer struct {
	logger *log.Logger
	start  time.Time
}

func startTimer(l *log.Logger) *batchTimer {
	return &batchTimer{logger: l, start: time.Now()}
}

// finish logs the card count and the elapsed time in milliseconds.
func (t *batchTimer) finish(r *pipeline.Result) {
	t.logger.Info("generate finished",
		"cards", r.Rendered,
		"elapsed", time.Since(t.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx for the subcommand that runs next.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() for commands run outside RootCommand.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
