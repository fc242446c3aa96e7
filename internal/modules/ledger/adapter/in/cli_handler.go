package in

import (
	"context"

	"studyhub/internal/modules/ledger/dto"
	ledgerin "studyhub/internal/modules/ledger/port/in"
)

type CLIHandler struct {
	usecase ledgerin.Usecase
}

func NewCLIHandler(usecase ledgerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Balance(ctx context.Context) (dto.BalanceOutput, error) {
	return h.usecase.Balance(ctx)
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.TransactionOutput, error) {
	return h.usecase.History(ctx, limit)
}

func (h CLIHandler) Award(ctx context.Context, amount int, source, description string) (dto.AwardOutput, error) {
	return h.usecase.Award(ctx, dto.AwardInput{Amount: amount, Source: source, Description: description})
}

func (h CLIHandler) CompleteTask(ctx context.Context, title string) (dto.AwardOutput, error) {
	return h.usecase.AwardTaskCompletion(ctx, title)
}

func (h CLIHandler) CreateFlashcard(ctx context.Context, front string) (dto.AwardOutput, error) {
	return h.usecase.AwardFlashcardCreation(ctx, front)
}

func (h CLIHandler) Reconcile(ctx context.Context) (dto.ReconcileOutput, error) {
	return h.usecase.Reconcile(ctx)
}

func (h CLIHandler) Snapshot() dto.SnapshotOutput {
	return h.usecase.Snapshot()
}
