package pipeline

import (
	"github.com/charmbracelet/log"
)

// Sink receives the progress of a batch run. Calls arrive from a single
// goroutine, in row order.
type Sink interface {
	// Progress reports the completed share of rows, 0 to 100.
	Progress(percent float64)

	// Log receives one human-readable line.
	Log(line string)

	// Fatal receives the message of an error that aborted the run.
	Fatal(text string)
}

// LogSink forwards batch events to a logger.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink creates a sink writing to logger.
func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Progress(percent float64) {
	s.logger.Debug("progress", "percent", int(percent))
}

func (s *LogSink) Log(line string) { s.logger.Info(line) }

func (s *LogSink) Fatal(text string) { s.logger.Error(text) }

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Progress(float64) {}
func (NopSink) Log(string)       {}
func (NopSink) Fatal(string)     {}

var (
	_ Sink = (*LogSink)(nil)
	_ Sink = NopSink{}
)
