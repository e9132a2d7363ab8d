package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Logf("session %s finished", "abc")
	if got != "session abc finished" {
		t.Errorf("custom logger got %q", got)
	}

	// nil installs a no-op that must not reach the previous logger
	got = ""
	SetLogger(nil)
	Logf("ignored")
	if got != "" {
		t.Errorf("no-op logger forwarded %q", got)
	}
}

func TestPrefixed(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	logf := Prefixed("calibration")
	logf("fit %d targets", 9)

	// Swapping the logger after creating the prefixed logger still takes effect.
	var late string
	SetLogger(func(format string, v ...interface{}) {
		late = fmt.Sprintf(format, v...)
	})
	logf("done")

	if len(lines) != 1 || lines[0] != "[calibration] fit 9 targets" {
		t.Errorf("prefixed lines = %q", lines)
	}
	if late != "[calibration] done" {
		t.Errorf("late line = %q", late)
	}
}

func TestLogfDefault(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}
}
