package out

import (
	"context"

	"studyhub/internal/modules/timer/domain"
)

// StateStore persists the single timer-state record. Load returns
// ErrNoTimerState when nothing is stored.
type StateStore interface {
	Load(ctx context.Context) (domain.State, error)
	Save(ctx context.Context, state domain.State) error
	Clear(ctx context.Context) error
}

// Cue is the completion signal (bell, sound). Failures are not fatal.
type Cue interface {
	Play(ctx context.Context) error
}

// SessionLogger records a finished focus session and returns where it went.
type SessionLogger interface {
	Log(ctx context.Context, session domain.StudySession) (string, error)
}
