// Package progress delivers free-text status updates from running agents to
// an interested observer, typically a console or a message relay. Reporting
// is fire-and-forget: a sink must never block or fail the caller.
package progress

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/stride-agent/stride/logging"
)

// Reserved sentinel values understood by downstream consumers. Anything else
// sent to a sink is plain status text.
const (
	// RefreshFileTree asks the consumer to re-scan the workspace file tree.
	RefreshFileTree = "__refresh_file_tree__"
	// StatusPrefix marks a short structured phase description.
	StatusPrefix = "__special_status__: "
)

// Sink receives status updates. Implementations must be non-blocking and
// must not return errors to the caller; drop or log on failure instead.
type Sink interface {
	Send(update string)
}

// Status sends a structured phase description through the sink.
func Status(s Sink, phase string) {
	s.Send(StatusPrefix + phase)
}

// Refresh sends the file-tree refresh signal through the sink.
func Refresh(s Sink) {
	s.Send(RefreshFileTree)
}

// NoopSink discards all updates. It is the default when no sink is supplied.
type NoopSink struct{}

// Send implements Sink.
func (NoopSink) Send(string) {}

// OrNoop returns s, or a NoopSink when s is nil, so callers never need a nil
// check before reporting.
func OrNoop(s Sink) Sink {
	if s == nil {
		return NoopSink{}
	}
	return s
}

// LogSink forwards updates to a logger at info level. Sentinels are logged
// with their marker stripped.
type LogSink struct {
	logger logging.Logger
}

// NewLogSink constructs a LogSink. A nil logger degrades to discarding.
func NewLogSink(logger logging.Logger) *LogSink {
	return &LogSink{logger: logging.OrNoop(logger)}
}

// Send implements Sink.
func (s *LogSink) Send(update string) {
	switch {
	case update == RefreshFileTree:
		s.logger.Debug("file tree refresh requested")
	case len(update) >= len(StatusPrefix) && update[:len(StatusPrefix)] == StatusPrefix:
		s.logger.Info("status", "phase", update[len(StatusPrefix):])
	default:
		s.logger.Info(update)
	}
}

// ConsoleSink renders updates to the terminal with light coloring. Sentinels
// that are meaningless on a terminal (the file-tree refresh) are suppressed.
type ConsoleSink struct {
	status *color.Color
	plain  *color.Color
}

// NewConsoleSink constructs a ConsoleSink.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{
		status: color.New(color.FgCyan, color.Bold),
		plain:  color.New(color.FgWhite),
	}
}

// Send implements Sink.
func (s *ConsoleSink) Send(update string) {
	switch {
	case update == RefreshFileTree:
		// No file tree to refresh on a plain terminal.
	case len(update) >= len(StatusPrefix) && update[:len(StatusPrefix)] == StatusPrefix:
		s.status.Println("➤ " + update[len(StatusPrefix):])
	default:
		s.plain.Println(update)
	}
}

// MultiSink fans out every update to each wrapped sink in order.
type MultiSink []Sink

// Send implements Sink.
func (m MultiSink) Send(update string) {
	for _, s := range m {
		s.Send(update)
	}
}

// Stepf formats and sends a per-step status line.
func Stepf(s Sink, format string, args ...any) {
	s.Send(fmt.Sprintf(format, args...))
}
