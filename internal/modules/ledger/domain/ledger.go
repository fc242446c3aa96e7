package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Source string

const (
	SourceFocusTimer        Source = "focus_timer"
	SourceTaskCompletion    Source = "task_completion"
	SourceFlashcardCreation Source = "flashcard_creation"
	SourceStreakBonus       Source = "streak_bonus"
	SourceMilestone         Source = "milestone"
	SourceOther             Source = "other"
)

// Fixed award policy.
const (
	CoinsPerFocusMinute   = 1
	TaskCompletionCoins   = 5
	FlashcardCreationCoin = 2
)

// HistoryLimit bounds the in-memory most-recent-first history.
const HistoryLimit = 20

func ParseSource(raw string) (Source, error) {
	switch s := Source(strings.TrimSpace(strings.ToLower(raw))); s {
	case SourceFocusTimer, SourceTaskCompletion, SourceFlashcardCreation, SourceStreakBonus, SourceMilestone, SourceOther:
		return s, nil
	default:
		return "", fmt.Errorf("unknown coin source %q", raw)
	}
}

type Transaction struct {
	ID          string
	UserID      string
	Amount      int
	Source      Source
	Description string
	CreatedAt   time.Time
}

// Balance is the cached projection of a user's transaction sum.
type Balance struct {
	UserID    string
	Amount    int
	UpdatedAt time.Time
}

// Apply returns the balance after adding a committed transaction.
func (b Balance) Apply(tx Transaction) Balance {
	return Balance{UserID: b.UserID, Amount: b.Amount + tx.Amount, UpdatedAt: tx.CreatedAt}
}

// PrependHistory keeps history most-recent-first and at most HistoryLimit long.
func PrependHistory(history []Transaction, tx Transaction) []Transaction {
	out := make([]Transaction, 0, HistoryLimit)
	out = append(out, tx)
	for _, existing := range history {
		if len(out) == HistoryLimit {
			break
		}
		out = append(out, existing)
	}
	return out
}

// Milestones is ascending; DetectMilestone relies on the order.
var Milestones = []int{30, 60, 100, 150, 200, 300, 500, 750, 1000}

// DetectMilestone reports the first threshold t with prev < t <= next.
// Thresholds skipped over by the same jump are not reported.
func DetectMilestone(prev, next int) (int, bool) {
	for _, t := range Milestones {
		if prev < t && t <= next {
			return t, true
		}
	}
	return 0, false
}

const milestonePrefix = "milestone:"

func MilestoneDescription(threshold int) string {
	return milestonePrefix + strconv.Itoa(threshold)
}

func ParseMilestoneDescription(desc string) (int, bool) {
	if !strings.HasPrefix(desc, milestonePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(desc, milestonePrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// MilestoneMarker is the zero-amount dedupe record for a reached threshold.
func MilestoneMarker(id, userID string, threshold int, at time.Time) Transaction {
	return Transaction{
		ID:          id,
		UserID:      userID,
		Amount:      0,
		Source:      SourceMilestone,
		Description: MilestoneDescription(threshold),
		CreatedAt:   at,
	}
}
