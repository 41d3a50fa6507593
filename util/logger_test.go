package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_LevelGates(t *testing.T) {
	tests := []struct {
		verbosity int
		want      []string
	}{
		{0, []string{"[ERR]"}},
		{1, []string{"[ERR]", "[WRN]", "[INF]"}},
		{2, []string{"[ERR]", "[WRN]", "[INF]", "[VRB]"}},
		{3, []string{"[ERR]", "[WRN]", "[INF]", "[VRB]", "[DBG]"}},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		l := NewLogger(tt.verbosity)
		l.SetOutput(&buf)
		l.SetTimestamps(false)

		l.Error("accept failed")
		l.Warn("fault in set")
		l.Info("console listening")
		l.Verbose("session opened")
		l.Debug("#1 set a=1")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != len(tt.want) {
			t.Errorf("-v=%d: %d lines, want %d:\n%s", tt.verbosity, len(lines), len(tt.want), buf.String())
			continue
		}
		for i, tag := range tt.want {
			if !strings.HasPrefix(lines[i], tag) {
				t.Errorf("-v=%d line %d = %q, want tag %s", tt.verbosity, i, lines[i], tag)
			}
		}
	}
}

func TestLogger_NamedSharesSink(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(1)
	l.SetOutput(&buf)
	l.SetTimestamps(false)

	child := l.Named("127.0.0.1:5000").Named("session 1b9d")
	child.Warn("set: %v", "bad pair")

	want := "[WRN] 127.0.0.1:5000: session 1b9d: set: bad pair\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// settings changed on the parent reach existing children
	buf.Reset()
	l.SetTimestamps(true)
	child.Info("bye")
	if got := buf.String(); strings.HasPrefix(got, "[INF]") {
		t.Errorf("child line %q should carry a timestamp", got)
	}
	if child.Level() != LogNormal {
		t.Errorf("child level = %d, want %d", child.Level(), LogNormal)
	}
}

func TestLogger_DebugStartsWithTimestamps(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(3)
	l.SetOutput(&buf)

	l.Debug("x")
	// "15:04:05.000 [DBG] x"
	if got := buf.String(); len(got) < 13 || got[2] != ':' || got[12] != ' ' {
		t.Errorf("expected clock prefix, got %q", got)
	}
}
