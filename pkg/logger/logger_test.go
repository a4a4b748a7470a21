package logger

import (
	"bytes"
	"strings"
	"testing"
)

func newTestLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{Level: level, Output: &buf, ShowTime: false})
	return l, &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newTestLogger(WARN)

	l.Infof("hidden %d", 1)
	l.Debugf("hidden")
	l.Warnf("shown %s", "warn")
	l.Errorf("shown %s", "error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below WARN should be dropped, got:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] shown warn") {
		t.Errorf("expected WARN line, got:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] shown error") {
		t.Errorf("expected ERROR line, got:\n%s", out)
	}
}

func TestWithPrefix(t *testing.T) {
	l, buf := newTestLogger(DEBUG)
	l.SetPrefix("[curator]")

	l.With("class=Speech").Infof("resolved %d ids", 2)

	want := "[INFO] [curator] class=Speech resolved 2 ids"
	if got := strings.TrimSpace(buf.String()); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFatalCallsExit(t *testing.T) {
	l, buf := newTestLogger(INFO)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatalf("dataset unreadable")

	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "[FATAL] dataset unreadable") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"":        INFO,
		"warning": WARN,
		"Error":   ERROR,
		"fatal":   FATAL,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestBufferIsNotTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("bytes.Buffer must not be reported as a terminal")
	}
}
