package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		debug   bool
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, false, true},
		{"debug at info level", log.InfoLevel, true, false},
		{"debug at debug level", log.DebugLevel, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := newLogger(&buf, tt.level)
			if tt.debug {
				l.Debug("expanding", "node", 3)
			} else {
				l.Info("expanding", "node", 3)
			}
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestSetLogFormat(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		l := newLogger(&buf, log.InfoLevel)
		if err := setLogFormat(l, logFormatJSON); err != nil {
			t.Fatalf("setLogFormat() error = %v", err)
		}
		l.Info("search finished", "expansions", 12)

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("output %q is not JSON: %v", buf.String(), err)
		}
		if entry["msg"] != "search finished" || entry["expansions"] != float64(12) {
			t.Errorf("entry = %v", entry)
		}
	})

	t.Run("logfmt", func(t *testing.T) {
		var buf bytes.Buffer
		l := newLogger(&buf, log.InfoLevel)
		if err := setLogFormat(l, logFormatLogfmt); err != nil {
			t.Fatalf("setLogFormat() error = %v", err)
		}
		l.Info("cache hit", "key", "transform")
		if !strings.Contains(buf.String(), "key=transform") {
			t.Errorf("output %q is not logfmt", buf.String())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		err := setLogFormat(newLogger(&bytes.Buffer{}, log.InfoLevel), "xml")
		if !apperr.Is(err, apperr.ErrCodeInvalidInput) {
			t.Errorf("setLogFormat(xml) error = %v, want INVALID_INPUT", err)
		}
	})
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(5 * time.Millisecond)
	prog.done("search finished", "solved", true)

	out := buf.String()
	for _, want := range []string{"search finished", "solved=true", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
