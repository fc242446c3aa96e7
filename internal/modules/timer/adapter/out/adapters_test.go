package out_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	timeradapter "studyhub/internal/modules/timer/adapter/out"
	"studyhub/internal/modules/timer/domain"
	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/markdown"
)

func TestFileStateStoreLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), ".studyhub", "timer-state.json")
	store := timeradapter.NewFileStateStore(path, 25)

	if _, err := store.Load(ctx); !errors.Is(err, apperrors.ErrNoTimerState) {
		t.Fatalf("expected no state, got %v", err)
	}
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	running, _ := domain.IdleState(1500).WithCategory("math").Start(at)
	if err := store.Save(ctx, running); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Status != domain.StatusRunning || got.Category() != "math" || got.Remaining(at.Add(time.Minute)) != 1440 {
		t.Fatalf("unexpected state %+v", got)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("state file must be removed, stat err=%v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear twice: %v", err)
	}
}

func TestFileStateStoreReadsLegacyRecord(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "timer-state.json")
	legacy := `{"startTime":1772442000000,"duration":900,"remaining":300,"isRunning":false,"isPaused":true}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := timeradapter.NewFileStateStore(path, 25).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Status != domain.StatusPaused || got.RemainingSecondsAtPause != 300 || got.DurationSeconds != 900 {
		t.Fatalf("unexpected migrated state %+v", got)
	}
}

func TestVaultSessionLoggerWritesNoteAndDayIndex(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	logger := timeradapter.NewVaultSessionLogger(dir, time.UTC)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	first, err := logger.Log(context.Background(), domain.StudySession{ID: "s-1", Minutes: 25, Category: "Linear Algebra", StartedAt: start, EndedAt: start.Add(25 * time.Minute)})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if first != filepath.Join(dir, "sessions", "2026", "03", "02", "090000-linear-algebra.md") {
		t.Fatalf("unexpected path %s", first)
	}
	content, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	note, err := markdown.Parse(string(content))
	if err != nil {
		t.Fatalf("parse note: %v", err)
	}
	if note.Meta["minutes"] != 25 || note.Meta["id"] != "s-1" || note.Meta["started_at"] != "2026-03-02T09:00:00Z" {
		t.Fatalf("unexpected frontmatter %+v", note.Meta)
	}

	later := start.Add(2 * time.Hour)
	if _, err := logger.Log(context.Background(), domain.StudySession{ID: "s-2", Minutes: 50, StartedAt: later, EndedAt: later.Add(50 * time.Minute)}); err != nil {
		t.Fatalf("log second: %v", err)
	}
	index, err := os.ReadFile(filepath.Join(dir, "sessions", "2026", "03", "02", "index.md"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	text := string(index)
	if !strings.Contains(text, "- 09:00 25 min Linear Algebra [[090000-linear-algebra]]") ||
		!strings.Contains(text, "- 11:00 50 min uncategorized [[110000-focus]]") ||
		!strings.Contains(text, "Total: 75 minutes in 2 sessions") {
		t.Fatalf("unexpected index:\n%s", text)
	}
	if strings.Count(text, "studyhub:sessions:start") != 1 {
		t.Fatalf("summary block duplicated:\n%s", text)
	}
}

func TestVaultSessionLoggerKeepsSessionsStartingInTheSameSecond(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	logger := timeradapter.NewVaultSessionLogger(dir, time.UTC)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	var paths []string
	for _, id := range []string{"s-1", "s-2"} {
		path, err := logger.Log(context.Background(), domain.StudySession{ID: id, Minutes: 25, StartedAt: start, EndedAt: start.Add(25 * time.Minute)})
		if err != nil {
			t.Fatalf("log %s: %v", id, err)
		}
		paths = append(paths, path)
	}
	day := filepath.Join(dir, "sessions", "2026", "03", "02")
	if paths[0] != filepath.Join(day, "090000-focus.md") || paths[1] != filepath.Join(day, "090000-focus-2.md") {
		t.Fatalf("unexpected paths %v", paths)
	}
	for i, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read note: %v", err)
		}
		note, err := markdown.Parse(string(content))
		if err != nil {
			t.Fatalf("parse note: %v", err)
		}
		if want := fmt.Sprintf("s-%d", i+1); note.Meta["id"] != want {
			t.Fatalf("note %s holds %v, want %s", path, note.Meta["id"], want)
		}
	}
	index, err := os.ReadFile(filepath.Join(day, "index.md"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if !strings.Contains(string(index), "Total: 50 minutes in 2 sessions") {
		t.Fatalf("unexpected index:\n%s", index)
	}
}

func TestBellCue(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := timeradapter.NewBellCue(&buf, true).Play(context.Background()); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := timeradapter.NewBellCue(&buf, false).Play(context.Background()); err != nil {
		t.Fatalf("play disabled: %v", err)
	}
	if buf.String() != "\a" {
		t.Fatalf("expected a single bell, got %q", buf.String())
	}
}
