package logger

import (
	"bytes"
	"strings"
	"testing"
)

func resetLogger() {
	Init(Options{})
}

// --- Init Tests ---

func TestInit_DefaultLevel_Info(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Info("cleaner summary")
	if !strings.Contains(buf.String(), "cleaner summary") {
		t.Error("Info message should be logged at default level")
	}

	buf.Reset()

	Debug("per-line detail")
	if strings.Contains(buf.String(), "per-line detail") {
		t.Error("Debug message should not be logged at default level")
	}
}

func TestInit_DebugLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Debug: true, Output: buf})
	defer resetLogger()

	Debug("per-line detail")
	if !strings.Contains(buf.String(), "per-line detail") {
		t.Error("Debug message should be logged when Debug=true")
	}
}

func TestInit_QuietLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Quiet: true, Output: buf})
	defer resetLogger()

	Info("stage progress")
	if strings.Contains(buf.String(), "stage progress") {
		t.Error("Info message should not be logged when Quiet=true")
	}

	Warn("skipped line")
	if strings.Contains(buf.String(), "skipped line") {
		t.Error("Warn message should not be logged when Quiet=true")
	}

	Error("stage failed")
	if !strings.Contains(buf.String(), "stage failed") {
		t.Error("Error message should be logged when Quiet=true")
	}
}

func TestInit_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	Info("structured output")

	output := buf.String()
	if !strings.HasPrefix(output, "{") {
		t.Errorf("JSON handler should emit JSON lines, got %q", output)
	}
	if !strings.Contains(output, `"msg":"structured output"`) {
		t.Errorf("JSON output missing message field: %q", output)
	}
}

func TestWith_AddsAttributes(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	l := With("stage", "slicer")
	l.Info("done")

	if !strings.Contains(buf.String(), "stage=slicer") {
		t.Errorf("With() attribute missing from output: %q", buf.String())
	}
}
