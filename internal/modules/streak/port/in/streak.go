package in

import (
	"context"

	"studyhub/internal/modules/streak/dto"
)

type Usecase interface {
	RecordDailyActivity(ctx context.Context) (dto.RecordOutput, error)
	FetchStreak(ctx context.Context) (dto.StreakOutput, error)
	BonusFor(streak int) int
	Refresh(ctx context.Context) (dto.RefreshOutput, error)
}
