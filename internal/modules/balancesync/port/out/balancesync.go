package out

import (
	"context"

	"studyhub/internal/modules/balancesync/domain"
)

// Subscriber opens a push subscription scoped to one user's balance.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (Subscription, error)
}

// Subscription delivers changes until Close is called or the channel
// drops, in which case Events is closed.
type Subscription interface {
	Events() <-chan domain.BalanceChange
	Close() error
}
