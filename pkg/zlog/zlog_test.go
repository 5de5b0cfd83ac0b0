package zlog

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	params "github.com/goliatone/go-params"
)

func TestLoggerWritesStructuredEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := Wrap(New(Config{Level: zerolog.DebugLevel, Output: &buf}))

	logger.Log(params.LogEvent{
		Op:       "evaluate",
		Source:   "users/1",
		Engine:   "expr",
		Expr:     "a > 1",
		Duration: 2 * time.Millisecond,
	})
	logger.Log(params.LogEvent{Op: "decode", Source: "users/2", Err: errors.New("bad json")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", buf.String())
	}
	for _, want := range []string{`"level":"debug"`, `"source":"users/1"`, `"engine":"expr"`, `"expr":"a > 1"`, `"message":"params evaluate"`} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("expected %s in %s", want, lines[0])
		}
	}
	for _, want := range []string{`"level":"warn"`, `"error":"bad json"`, `"message":"params decode"`} {
		if !strings.Contains(lines[1], want) {
			t.Fatalf("expected %s in %s", want, lines[1])
		}
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Wrap(New(Config{Level: zerolog.WarnLevel, Output: &buf}))

	logger.Log(params.LogEvent{Op: "evaluate"})
	if buf.Len() != 0 {
		t.Fatalf("debug events should be filtered, got %q", buf.String())
	}
	logger.Log(params.LogEvent{Op: "write", Err: errors.New("disk full")})
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error line, got %q", buf.String())
	}
}

func TestLoggerWithStore(t *testing.T) {
	var buf bytes.Buffer
	store := params.NewFromRaw(`{oops`, params.WithSource("cli"), params.WithLogger(Wrap(New(Config{Output: &buf}))))
	_ = store.GetParams()
	if !strings.Contains(buf.String(), `"source":"cli"`) {
		t.Fatalf("expected decode fallback to be logged, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
