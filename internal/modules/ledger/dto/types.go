package dto

import "time"

// Award sources accepted by AwardInput.Source.
const (
	SourceFocusTimer        = "focus_timer"
	SourceTaskCompletion    = "task_completion"
	SourceFlashcardCreation = "flashcard_creation"
	SourceStreakBonus       = "streak_bonus"
	SourceOther             = "other"
)

type AwardInput struct {
	Amount      int
	Source      string
	Description string
}

// Outcome discriminates AwardOutput: committed, or failed at Stage.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeFailed    Outcome = "failed"
)

const (
	StageRead    = "read"
	StageInsert  = "insert"
	StageBalance = "balance"
)

type AwardOutput struct {
	Outcome           Outcome
	Stage             string
	TransactionID     string
	Amount            int
	Source            string
	BalanceBefore     int
	BalanceAfter      int
	Milestone         int
	MilestoneNotified bool
}

func (o AwardOutput) Committed() bool {
	return o.Outcome == OutcomeCommitted
}

type BalanceOutput struct {
	UserID    string
	Balance   int
	UpdatedAt time.Time
	Cached    bool
}

type TransactionOutput struct {
	ID          string
	Amount      int
	Source      string
	Description string
	CreatedAt   time.Time
}

type ReconcileOutput struct {
	UserID string
	Before int
	After  int
	Drift  int
}

// RemoteBalanceInput is a balance pushed by another process or device.
type RemoteBalanceInput struct {
	UserID    string
	Balance   int
	UpdatedAt time.Time
}

type SnapshotOutput struct {
	UserID  string
	Balance int
	Known   bool
	History []TransactionOutput
}
