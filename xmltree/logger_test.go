package xmltree

import (
	"fmt"
	"testing"
)

// recordingLogger collects every message passed to Printf, for tests
// that need to assert diagnostic output was actually produced.
type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Printf(format string, v ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func TestWithLoggerLogLevel1TracesStateMachine(t *testing.T) {
	logger := &recordingLogger{}
	mustParse(t, `<r><a/></r>`, WithLogger(logger), LogLevel(1))
	if len(logger.lines) == 0 {
		t.Fatal("LogLevel(1) produced no log output")
	}
	var sawRootOpened bool
	for _, line := range logger.lines {
		if line == "xmltree: root element <r> opened at offset 0" {
			sawRootOpened = true
		}
	}
	if !sawRootOpened {
		t.Fatalf("expected a root-element-opened log line, got %v", logger.lines)
	}
}

func TestWithLoggerLogLevel3AddsPerTokenTracing(t *testing.T) {
	level1 := &recordingLogger{}
	mustParse(t, `<r><a/></r>`, WithLogger(level1), LogLevel(1))

	level3 := &recordingLogger{}
	mustParse(t, `<r><a/></r>`, WithLogger(level3), LogLevel(3))

	if len(level3.lines) <= len(level1.lines) {
		t.Fatalf("LogLevel(3) produced %d lines, want more than LogLevel(1)'s %d", len(level3.lines), len(level1.lines))
	}
}

func TestNoLoggerConfiguredProducesNoOutput(t *testing.T) {
	// Parsing without WithLogger must never panic or allocate a
	// default logger; logf/debugf are no-ops when cfg.logger is nil.
	mustParse(t, `<r/>`)
}
