package in

import (
	"context"

	"studyhub/internal/modules/timer/dto"
)

type Usecase interface {
	Restore(ctx context.Context) (dto.RestoreOutput, error)
	Start(ctx context.Context) (dto.StatusOutput, error)
	Pause(ctx context.Context) (dto.StatusOutput, error)
	Resume(ctx context.Context) (dto.StatusOutput, error)
	Stop(ctx context.Context) (dto.StatusOutput, error)
	SetDuration(ctx context.Context, minutes int) (dto.SetDurationOutput, error)
	SetCategory(ctx context.Context, category string) (dto.StatusOutput, error)
	Tick(ctx context.Context) (dto.TickOutput, error)
	Status(ctx context.Context) dto.StatusOutput
	Run(ctx context.Context, onTick func(dto.TickOutput)) error
}
