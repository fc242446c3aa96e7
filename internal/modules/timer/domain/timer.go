package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"studyhub/internal/platform/clock"
	apperrors "studyhub/internal/platform/errors"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

const (
	StateVersion           = 2
	DefaultDurationSeconds = 25 * 60
	MinDurationMinutes     = 1
	MaxDurationMinutes     = 600
)

// State is the persisted countdown. While running, remaining time is
// always derived from StartEpochMillis; while paused,
// RemainingSecondsAtPause is authoritative.
type State struct {
	Version                 int     `json:"version"`
	StartEpochMillis        *int64  `json:"startEpochMillis"`
	DurationSeconds         int     `json:"durationSeconds"`
	RemainingSecondsAtPause int     `json:"remainingSecondsAtPause"`
	Status                  Status  `json:"status"`
	ActiveCategory          *string `json:"activeCategory"`
	UpdatedAtMillis         int64   `json:"updatedAtMillis"`
}

func IdleState(durationSeconds int) State {
	if durationSeconds <= 0 {
		durationSeconds = DefaultDurationSeconds
	}
	return State{Version: StateVersion, DurationSeconds: durationSeconds, Status: StatusIdle}
}

// Remaining is the signed number of seconds left at now. It goes negative
// once a running interval has overrun and never exceeds the duration.
func (s State) Remaining(now time.Time) int {
	switch s.Status {
	case StatusRunning:
		if s.StartEpochMillis == nil {
			return s.DurationSeconds
		}
		// a clock behind the start time counts as no time elapsed
		elapsed := max(0, clock.EpochMillis(now)-*s.StartEpochMillis) / 1000
		return s.DurationSeconds - int(elapsed)
	case StatusPaused:
		return s.RemainingSecondsAtPause
	case StatusCompleted:
		return 0
	default:
		return s.DurationSeconds
	}
}

func (s State) Category() string {
	if s.ActiveCategory == nil {
		return ""
	}
	return *s.ActiveCategory
}

func (s State) StartedAt() time.Time {
	if s.StartEpochMillis == nil {
		return time.Time{}
	}
	return clock.FromEpochMillis(*s.StartEpochMillis)
}

// Start begins a fresh run from idle or completed, or continues a paused
// run by reconstructing an equivalent start time.
func (s State) Start(now time.Time) (State, error) {
	next := s
	switch s.Status {
	case StatusIdle, StatusCompleted:
		next.StartEpochMillis = millis(clock.EpochMillis(now))
	case StatusPaused:
		elapsed := int64(s.DurationSeconds-s.RemainingSecondsAtPause) * 1000
		next.StartEpochMillis = millis(clock.EpochMillis(now) - elapsed)
	default:
		return s, fmt.Errorf("%w: start from %s", apperrors.ErrInvalidTransition, s.Status)
	}
	next.RemainingSecondsAtPause = 0
	next.Status = StatusRunning
	return next, nil
}

// Pause freezes the remaining time. An expired run cannot be paused; it
// has to complete.
func (s State) Pause(now time.Time) (State, error) {
	if s.Status != StatusRunning {
		return s, fmt.Errorf("%w: pause from %s", apperrors.ErrInvalidTransition, s.Status)
	}
	remaining := s.Remaining(now)
	if remaining <= 0 {
		return s, fmt.Errorf("%w: pause after the run expired", apperrors.ErrInvalidTransition)
	}
	next := s
	next.RemainingSecondsAtPause = remaining
	next.Status = StatusPaused
	return next, nil
}

func (s State) Resume(now time.Time) (State, error) {
	if s.Status != StatusPaused {
		return s, fmt.Errorf("%w: resume from %s", apperrors.ErrInvalidTransition, s.Status)
	}
	return s.Start(now)
}

// Stop abandons the run. Duration and category carry over.
func (s State) Stop() (State, error) {
	if s.Status != StatusRunning && s.Status != StatusPaused {
		return s, fmt.Errorf("%w: stop from %s", apperrors.ErrInvalidTransition, s.Status)
	}
	next := IdleState(s.DurationSeconds)
	next.ActiveCategory = s.ActiveCategory
	return next, nil
}

// Complete marks the run finished. The start time is kept so the session
// window can still be reported.
func (s State) Complete() State {
	next := s
	next.Status = StatusCompleted
	next.RemainingSecondsAtPause = 0
	return next
}

// WithDuration applies minutes when idle or completed. applied is false,
// and s is returned unchanged, in any other status.
func (s State) WithDuration(minutes int) (State, bool, error) {
	if minutes < MinDurationMinutes || minutes > MaxDurationMinutes {
		return s, false, fmt.Errorf("%w: duration must be %d..%d minutes", apperrors.ErrInvalidInput, MinDurationMinutes, MaxDurationMinutes)
	}
	if s.Status != StatusIdle && s.Status != StatusCompleted {
		return s, false, nil
	}
	next := IdleState(minutes * 60)
	next.ActiveCategory = s.ActiveCategory
	return next, true, nil
}

func (s State) WithCategory(category string) State {
	next := s
	category = strings.TrimSpace(category)
	if category == "" {
		next.ActiveCategory = nil
		return next
	}
	next.ActiveCategory = &category
	return next
}

// EarnedCoins pays one coin per whole minute of the configured duration.
func EarnedCoins(durationSeconds int) int {
	if durationSeconds <= 0 {
		return 0
	}
	return durationSeconds / 60
}

// LoggedMinutes rounds the configured duration up to whole minutes.
func LoggedMinutes(durationSeconds int) int {
	if durationSeconds <= 0 {
		return 0
	}
	return (durationSeconds + 59) / 60
}

func millis(v int64) *int64 {
	return &v
}

// storedState accepts both the current record and the legacy v1 shape
// {startTime, duration, remaining, isRunning, isPaused, isCompleted, category}.
type storedState struct {
	Version                 *int    `json:"version"`
	StartEpochMillis        *int64  `json:"startEpochMillis"`
	DurationSeconds         *int    `json:"durationSeconds"`
	RemainingSecondsAtPause *int    `json:"remainingSecondsAtPause"`
	Status                  string  `json:"status"`
	ActiveCategory          *string `json:"activeCategory"`
	UpdatedAtMillis         int64   `json:"updatedAtMillis"`

	StartTime   *int64  `json:"startTime"`
	Duration    *int    `json:"duration"`
	Remaining   *int    `json:"remaining"`
	IsRunning   bool    `json:"isRunning"`
	IsPaused    bool    `json:"isPaused"`
	IsCompleted bool    `json:"isCompleted"`
	Category    *string `json:"category"`
}

// DecodeState parses a stored record, migrating legacy records and
// normalising anything inconsistent to an idle state. Only malformed JSON
// is an error.
func DecodeState(payload []byte, defaultDurationSeconds int) (State, error) {
	var raw storedState
	if err := json.Unmarshal(payload, &raw); err != nil {
		return State{}, fmt.Errorf("%w: decode timer state: %v", apperrors.ErrInvalidInput, err)
	}
	if raw.Version == nil {
		return normalise(migrateV1(raw), defaultDurationSeconds), nil
	}
	s := State{
		Version:          StateVersion,
		StartEpochMillis: raw.StartEpochMillis,
		Status:           Status(raw.Status),
		ActiveCategory:   raw.ActiveCategory,
		UpdatedAtMillis:  raw.UpdatedAtMillis,
	}
	if raw.DurationSeconds != nil {
		s.DurationSeconds = *raw.DurationSeconds
	}
	if raw.RemainingSecondsAtPause != nil {
		s.RemainingSecondsAtPause = *raw.RemainingSecondsAtPause
	}
	return normalise(s, defaultDurationSeconds), nil
}

func migrateV1(raw storedState) State {
	s := State{Version: StateVersion, StartEpochMillis: raw.StartTime, ActiveCategory: raw.Category}
	if raw.Duration != nil {
		s.DurationSeconds = *raw.Duration
	}
	switch {
	case raw.IsCompleted:
		s.Status = StatusCompleted
	case raw.IsPaused:
		s.Status = StatusPaused
		if raw.Remaining != nil {
			s.RemainingSecondsAtPause = *raw.Remaining
		}
	case raw.IsRunning:
		s.Status = StatusRunning
	default:
		s.Status = StatusIdle
	}
	return s
}

func normalise(s State, defaultDurationSeconds int) State {
	if defaultDurationSeconds <= 0 {
		defaultDurationSeconds = DefaultDurationSeconds
	}
	if s.DurationSeconds <= 0 || s.DurationSeconds > MaxDurationMinutes*60 {
		reset := IdleState(defaultDurationSeconds)
		reset.ActiveCategory = s.ActiveCategory
		return reset
	}
	switch s.Status {
	case StatusIdle:
		s.StartEpochMillis = nil
		s.RemainingSecondsAtPause = 0
	case StatusRunning:
		if s.StartEpochMillis == nil {
			return idleKeeping(s)
		}
	case StatusPaused:
		if s.RemainingSecondsAtPause < 0 || s.RemainingSecondsAtPause > s.DurationSeconds {
			return idleKeeping(s)
		}
	case StatusCompleted:
	default:
		return idleKeeping(s)
	}
	return s
}

func idleKeeping(s State) State {
	next := IdleState(s.DurationSeconds)
	next.ActiveCategory = s.ActiveCategory
	return next
}

// StudySession is the record handed to the session logger on completion.
type StudySession struct {
	ID        string
	Minutes   int
	Category  string
	StartedAt time.Time
	EndedAt   time.Time
}
