package in

import (
	"context"

	"studyhub/internal/modules/streak/dto"
	streakin "studyhub/internal/modules/streak/port/in"
)

type CLIHandler struct {
	usecase streakin.Usecase
}

func NewCLIHandler(usecase streakin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Show(ctx context.Context) (dto.StreakOutput, int, error) {
	out, err := h.usecase.FetchStreak(ctx)
	if err != nil {
		return dto.StreakOutput{}, 0, err
	}
	return out, h.usecase.BonusFor(out.Days + 1), nil
}

func (h CLIHandler) Check(ctx context.Context) (dto.RefreshOutput, error) {
	return h.usecase.Refresh(ctx)
}
