package in

import (
	"context"

	"studyhub/internal/modules/ledger/dto"
)

type Usecase interface {
	Award(ctx context.Context, input dto.AwardInput) (dto.AwardOutput, error)
	AwardFocusMinutes(ctx context.Context, minutes int) (dto.AwardOutput, error)
	AwardTaskCompletion(ctx context.Context, title string) (dto.AwardOutput, error)
	AwardFlashcardCreation(ctx context.Context, front string) (dto.AwardOutput, error)
	Balance(ctx context.Context) (dto.BalanceOutput, error)
	History(ctx context.Context, limit int) ([]dto.TransactionOutput, error)
	Reconcile(ctx context.Context) (dto.ReconcileOutput, error)
	ApplyRemoteBalance(ctx context.Context, input dto.RemoteBalanceInput) (dto.BalanceOutput, error)
	Snapshot() dto.SnapshotOutput
}
