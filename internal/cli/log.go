package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
)

// Log formats accepted by --log-format.
const (
	logFormatText   = "text"
	logFormatJSON   = "json"
	logFormatLogfmt = "logfmt"
)

var logFormatters = map[string]log.Formatter{
	logFormatText:   log.TextFormatter,
	logFormatJSON:   log.JSONFormatter,
	logFormatLogfmt: log.LogfmtFormatter,
}

// newLogger creates the per-invocation logger. Timestamps look like
// "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// setLogFormat switches the logger to one of the --log-format values.
func setLogFormat(l *log.Logger, format string) error {
	f, ok := logFormatters[format]
	if !ok {
		return apperr.New(apperr.ErrCodeInvalidInput, "unknown log format %q (want text, json or logfmt)", format)
	}
	l.SetFormatter(f)
	if format != logFormatText {
		l.SetTimeFormat(time.RFC3339Nano)
	}
	return nil
}

// progress logs how long a stage took once it finishes.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and the elapsed time.
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}
