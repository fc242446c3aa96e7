package in

import (
	"context"

	"studyhub/internal/modules/balancesync/dto"
)

type Usecase interface {
	Start(ctx context.Context, userID string) error
	Stop()
	Watch(ctx context.Context) error
	Status() dto.StatusOutput
	// Applied streams each pushed balance after the ledger took it. The
	// returned func unsubscribes and closes the channel.
	Applied() (<-chan dto.AppliedOutput, func())
}
