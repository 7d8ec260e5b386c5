package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := currentLevel
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		currentLevel = prev
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	SetLevel("INFO")

	Debug("invisible %d", 1)
	Info("visible %d", 2)

	out := buf.String()
	if strings.Contains(out, "invisible") {
		t.Error("debug line written at INFO level")
	}
	if !strings.Contains(out, "visible 2") {
		t.Errorf("info line missing from output: %q", out)
	}
	if !strings.Contains(out, "[INFO]") {
		t.Errorf("level tag missing from output: %q", out)
	}
}

func TestSetLevelCaseInsensitive(t *testing.T) {
	buf := capture(t)
	SetLevel("debug")

	Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug line missing after SetLevel(\"debug\")")
	}
}

func TestSetLevelUnknownKeepsCurrent(t *testing.T) {
	buf := capture(t)
	SetLevel("WARN")
	SetLevel("loud")

	Info("should be filtered")
	Warn("should pass")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Error("unknown level name changed the threshold")
	}
	if !strings.Contains(out, "should pass") {
		t.Error("warn line missing")
	}
}
