package out

import (
	"context"

	"studyhub/internal/modules/ledger/domain"
)

// TransactionStore is the append-only coin log; it is the ledger's truth.
type TransactionStore interface {
	Insert(ctx context.Context, tx domain.Transaction) error
	List(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
	HasMilestone(ctx context.Context, userID string, threshold int) (bool, error)
	Sum(ctx context.Context, userID string) (int, error)
}

// BalanceStore holds the cached balance row. Get returns ErrNotFound for a
// user without a row.
type BalanceStore interface {
	Get(ctx context.Context, userID string) (domain.Balance, error)
	Put(ctx context.Context, balance domain.Balance) error
}

// BalancePublisher pushes committed balances to other processes/devices.
type BalancePublisher interface {
	PublishBalance(ctx context.Context, origin string, balance domain.Balance) error
}

// Acknowledger surfaces a committed award to the user.
type Acknowledger interface {
	Acknowledge(ctx context.Context, tx domain.Transaction, balance domain.Balance)
}
