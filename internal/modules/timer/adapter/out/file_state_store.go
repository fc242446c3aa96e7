package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"studyhub/internal/modules/timer/domain"
	timerout "studyhub/internal/modules/timer/port/out"
	apperrors "studyhub/internal/platform/errors"
)

// FileStateStore keeps the timer-state record as one JSON file.
type FileStateStore struct {
	path            string
	defaultDuration int
}

func NewFileStateStore(path string, defaultMinutes int) timerout.StateStore {
	return &FileStateStore{path: path, defaultDuration: defaultMinutes * 60}
}

func (s *FileStateStore) Save(_ context.Context, state domain.State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create timer state dir: %w", err)
	}
	state.Version = domain.StateVersion
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal timer state: %w", err)
	}
	// write then rename so a crash mid-write never leaves a torn record
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write timer state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace timer state: %w", err)
	}
	return nil
}

func (s *FileStateStore) Load(_ context.Context) (domain.State, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.State{}, apperrors.ErrNoTimerState
		}
		return domain.State{}, fmt.Errorf("read timer state: %w", err)
	}
	return domain.DecodeState(payload, s.defaultDuration)
}

func (s *FileStateStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clear timer state: %w", err)
	}
	return nil
}
