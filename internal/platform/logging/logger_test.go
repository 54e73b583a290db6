package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesKeyValueFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Options{Level: LevelInfo, Stdout: &buf})
	logger.With("pass", "resolve").Info("record resolved", "team_id", "t-1", "error", errors.New("boom"))
	logger.Debug("hidden")

	out := buf.String()
	for _, want := range []string{`"pass":"resolve"`, `"team_id":"t-1"`, `"error":"boom"`, `"msg":"record resolved"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry should be filtered at info level: %s", out)
	}
}

func TestNewMirrorsToRotatingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reconcile.log")
	logger := New(Options{Level: LevelInfo, Stdout: &bytes.Buffer{}, FilePath: path})
	logger.Warn("store degraded", "failures", 3)
	if err := logger.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"failures":3`) {
		t.Fatalf("unexpected file content: %s", content)
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	t.Parallel()

	if got := ParseLevel("debug"); got != LevelDebug {
		t.Fatalf("unexpected level: %v", got)
	}
	if got := ParseLevel("loud"); got != LevelInfo {
		t.Fatalf("unexpected fallback level: %v", got)
	}
}
