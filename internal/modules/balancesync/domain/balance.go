package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"studyhub/internal/platform/clock"
)

const channelPrefix = "studyhub:balance:"

// BalanceChange is one pushed absolute balance. Origin identifies the
// publishing process.
type BalanceChange struct {
	UserID    string
	Balance   int
	UpdatedAt time.Time
	Origin    string
}

// Channel is the push channel scoped to one user's balance row.
func Channel(userID string) string {
	return channelPrefix + userID
}

type wireChange struct {
	UserID          string `json:"userId"`
	Balance         int    `json:"balance"`
	UpdatedAtMillis int64  `json:"updatedAtMillis"`
	Origin          string `json:"origin,omitempty"`
}

func Encode(change BalanceChange) ([]byte, error) {
	if err := change.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(wireChange{
		UserID:          change.UserID,
		Balance:         change.Balance,
		UpdatedAtMillis: clock.EpochMillis(change.UpdatedAt),
		Origin:          change.Origin,
	})
}

func Decode(payload []byte) (BalanceChange, error) {
	var w wireChange
	if err := json.Unmarshal(payload, &w); err != nil {
		return BalanceChange{}, fmt.Errorf("decode balance change: %w", err)
	}
	change := BalanceChange{
		UserID:    w.UserID,
		Balance:   w.Balance,
		UpdatedAt: clock.FromEpochMillis(w.UpdatedAtMillis),
		Origin:    w.Origin,
	}
	if err := change.Validate(); err != nil {
		return BalanceChange{}, err
	}
	return change, nil
}

func (c BalanceChange) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("balance change without user")
	}
	if c.Balance < 0 {
		return fmt.Errorf("negative balance %d for %s", c.Balance, c.UserID)
	}
	return nil
}
