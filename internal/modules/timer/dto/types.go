package dto

import "time"

type StatusOutput struct {
	Status           string
	RemainingSeconds int
	DurationSeconds  int
	Category         string
	StartedAt        time.Time
	MemoryOnly       bool
}

func (s StatusOutput) Running() bool {
	return s.Status == "running"
}

func (s StatusOutput) Completed() bool {
	return s.Status == "completed"
}

// CompletionOutput reports the side effects of one completed run. Each
// effect is best-effort; failures are carried as text.
type CompletionOutput struct {
	DurationSeconds int
	EarnedCoins     int
	AwardCommitted  bool
	AwardError      string
	BalanceAfter    int
	LoggedMinutes   int
	SessionPath     string
	SessionError    string
	Notification    string
	StreakDays      int
}

type TickOutput struct {
	Status     StatusOutput
	Completion *CompletionOutput
}

type RestoreOutput struct {
	Status     StatusOutput
	Resumed    bool
	Completion *CompletionOutput
}

type SetDurationOutput struct {
	Applied bool
	Status  StatusOutput
}
