package out

import (
	"context"

	"studyhub/internal/modules/streak/domain"
)

// ActivityStore keeps one row per (user, day). Insert of an existing day is
// a no-op.
type ActivityStore interface {
	Exists(ctx context.Context, userID, day string) (bool, error)
	Insert(ctx context.Context, activity domain.Activity) error
	Days(ctx context.Context, userID string) ([]string, error)
	// ClaimBonus reserves the streak bonus for (user, day). It reports false
	// when another process already holds the claim.
	ClaimBonus(ctx context.Context, userID, day string, streak int) (bool, error)
	ReleaseBonus(ctx context.Context, userID, day string) error
}
