package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type phase uint8

func (p phase) String() string { return [...]string{"MENU", "PLAYING"}[p] }

func TestPrettyJSONHandler_FieldsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}).Compact())

	log.With("session", "abc").WithGroup("tick").Debug("step",
		"n", 42,
		"elapsed", 1500*time.Millisecond,
		"status", phase(1),
		"err", errors.New("boom"),
	)

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if got["msg"] != "step" || got["level"] != "DEBUG" || got["session"] != "abc" {
		t.Fatalf("got=%v", got)
	}
	tick, ok := got["tick"].(map[string]any)
	if !ok {
		t.Fatalf("tick group missing: %v", got)
	}
	if tick["n"] != float64(42) || tick["elapsed"] != "1.5s" || tick["status"] != "PLAYING" || tick["err"] != "boom" {
		t.Fatalf("tick=%v", tick)
	}
}

func TestPrettyJSONHandler_IndentsByDefault(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewPrettyJSONHandler(&buf, nil)).Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "\n  \"") {
		t.Fatalf("output not indented: %q", buf.String())
	}
}

func TestPrettyJSONHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	log.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}
	log.Warn("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Fatalf("warn dropped")
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{FormatPretty, FormatJSON, FormatText} {
		var buf bytes.Buffer
		log, err := New(&buf, format, slog.LevelInfo)
		if err != nil {
			t.Fatalf("New(%q): %v", format, err)
		}
		log.Info("started", "arena", 600)
		if !strings.Contains(buf.String(), "started") {
			t.Fatalf("format %q wrote %q", format, buf.String())
		}
	}
	if _, err := New(&bytes.Buffer{}, "xml", slog.LevelInfo); err == nil {
		t.Fatalf("unknown format accepted")
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	if err != nil || l != slog.LevelDebug {
		t.Fatalf("level=%v err=%v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("bad level accepted")
	}
}
