package in

import (
	"context"

	"studyhub/internal/modules/timer/dto"
	timerin "studyhub/internal/modules/timer/port/in"
)

type CLIHandler struct {
	usecase timerin.Usecase
}

func NewCLIHandler(usecase timerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Restore must run before any other call so a persisted run is picked up.
func (h CLIHandler) Restore(ctx context.Context) (dto.RestoreOutput, error) {
	return h.usecase.Restore(ctx)
}

func (h CLIHandler) Start(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Start(ctx)
}

func (h CLIHandler) Pause(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Pause(ctx)
}

func (h CLIHandler) Resume(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Resume(ctx)
}

func (h CLIHandler) Stop(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) SetDuration(ctx context.Context, minutes int) (dto.SetDurationOutput, error) {
	return h.usecase.SetDuration(ctx, minutes)
}

func (h CLIHandler) SetCategory(ctx context.Context, category string) (dto.StatusOutput, error) {
	return h.usecase.SetCategory(ctx, category)
}

func (h CLIHandler) Status(ctx context.Context) dto.StatusOutput {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) Tick(ctx context.Context) (dto.TickOutput, error) {
	return h.usecase.Tick(ctx)
}

func (h CLIHandler) Run(ctx context.Context, onTick func(dto.TickOutput)) error {
	return h.usecase.Run(ctx, onTick)
}
