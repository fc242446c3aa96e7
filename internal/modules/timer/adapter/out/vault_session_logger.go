package out

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"studyhub/internal/modules/timer/domain"
	timerout "studyhub/internal/modules/timer/port/out"
	"studyhub/internal/platform/markdown"
	"studyhub/internal/platform/slug"
)

const (
	sessionTimeLayout = "2006-01-02T15:04:05Z07:00"
	dayIndexFile      = "index.md"
	dayBlock          = "sessions"
)

// VaultSessionLogger writes each finished session as a markdown note under
// sessions/YYYY/MM/DD and keeps a generated summary in that day's index.md.
type VaultSessionLogger struct {
	dataDir string
	loc     *time.Location
}

func NewVaultSessionLogger(dataDir string, loc *time.Location) timerout.SessionLogger {
	if loc == nil {
		loc = time.UTC
	}
	return &VaultSessionLogger{dataDir: dataDir, loc: loc}
}

func (l *VaultSessionLogger) Log(_ context.Context, session domain.StudySession) (string, error) {
	started := session.StartedAt.In(l.loc)
	dir := filepath.Join(l.dataDir, "sessions", started.Format("2006"), started.Format("01"), started.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	base := fmt.Sprintf("%s-%s", started.Format("150405"), slug.Make(session.Category, "focus"))

	note := markdown.Note{
		Meta: map[string]any{
			"id":         session.ID,
			"minutes":    session.Minutes,
			"category":   session.Category,
			"started_at": started.Format(sessionTimeLayout),
			"ended_at":   session.EndedAt.In(l.loc).Format(sessionTimeLayout),
		},
		Body: fmt.Sprintf("# Focus session\n\n- Minutes: %d\n- Category: %s\n", session.Minutes, categoryLabel(session.Category)),
	}
	rendered, err := note.Render()
	if err != nil {
		return "", err
	}
	path, err := writeNewNote(dir, base, []byte(rendered))
	if err != nil {
		return "", err
	}
	if err := l.refreshDayIndex(dir, started); err != nil {
		return path, err
	}
	return path, nil
}

// writeNewNote creates base.md, or base-2.md, base-3.md and so on when
// another session already took the name. Existing notes are never replaced.
func writeNewNote(dir, base string, content []byte) (string, error) {
	for n := 1; ; n++ {
		name := base + ".md"
		if n > 1 {
			name = fmt.Sprintf("%s-%d.md", base, n)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create session note: %w", err)
		}
		_, werr := f.Write(content)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return "", fmt.Errorf("write session note: %w", werr)
		}
		return path, nil
	}
}

type daySession struct {
	file     string
	started  string
	minutes  int
	category string
}

// refreshDayIndex regenerates the summary block from the notes on disk.
func (l *VaultSessionLogger) refreshDayIndex(dir string, day time.Time) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list session notes: %w", err)
	}
	sessions := []daySession{}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == dayIndexFile || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read session note: %w", err)
		}
		note, err := markdown.Parse(string(content))
		if err != nil {
			continue
		}
		s := daySession{file: entry.Name()}
		if v, ok := note.Meta["minutes"].(int); ok {
			s.minutes = v
		}
		s.category, _ = note.Meta["category"].(string)
		if raw, ok := note.Meta["started_at"].(string); ok {
			if t, err := time.Parse(sessionTimeLayout, raw); err == nil {
				s.started = t.In(l.loc).Format("15:04")
			}
		}
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].file < sessions[j].file })

	total := 0
	lines := make([]string, 0, len(sessions)+1)
	for _, s := range sessions {
		total += s.minutes
		lines = append(lines, fmt.Sprintf("- %s %d min %s [[%s]]", s.started, s.minutes, categoryLabel(s.category), strings.TrimSuffix(s.file, ".md")))
	}
	lines = append(lines, fmt.Sprintf("\nTotal: %d minutes in %d sessions", total, len(sessions)))

	indexPath := filepath.Join(dir, dayIndexFile)
	body := fmt.Sprintf("# %s\n", day.Format("Monday, 2 January 2006"))
	if content, err := os.ReadFile(indexPath); err == nil {
		body = string(content)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read day index: %w", err)
	}
	body = markdown.UpsertBlock(body, dayBlock, strings.Join(lines, "\n"))
	if err := os.WriteFile(indexPath, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write day index: %w", err)
	}
	return nil
}

func categoryLabel(category string) string {
	if category == "" {
		return "uncategorized"
	}
	return category
}
