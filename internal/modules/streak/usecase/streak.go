package usecase

import (
	"context"
	"fmt"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	ledgerdto "studyhub/internal/modules/ledger/dto"
	ledgerin "studyhub/internal/modules/ledger/port/in"
	"studyhub/internal/modules/streak/domain"
	"studyhub/internal/modules/streak/dto"
	streakin "studyhub/internal/modules/streak/port/in"
	"studyhub/internal/modules/streak/service"
	"studyhub/internal/platform/auth"
	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/logging"
)

type Interactor struct {
	svc    *service.StreakService
	auth   auth.Context
	ledger ledgerin.Usecase
	log    hclog.Logger

	mu       sync.Mutex
	lastSeen map[string]int
}

func NewInteractor(svc *service.StreakService, authCtx auth.Context, ledger ledgerin.Usecase, logger hclog.Logger) streakin.Usecase {
	return &Interactor{
		svc:      svc,
		auth:     authCtx,
		ledger:   ledger,
		log:      logging.OrNull(logger).Named("streak"),
		lastSeen: map[string]int{},
	}
}

func (i *Interactor) RecordDailyActivity(ctx context.Context) (dto.RecordOutput, error) {
	user, ok := i.auth.CurrentUser(ctx)
	if !ok {
		return dto.RecordOutput{}, apperrors.ErrUnauthenticated
	}
	day, recorded, err := i.svc.Record(ctx, user.ID)
	if err != nil {
		return dto.RecordOutput{Day: day}, err
	}
	return dto.RecordOutput{Day: day, Recorded: recorded}, nil
}

func (i *Interactor) FetchStreak(ctx context.Context) (dto.StreakOutput, error) {
	user, ok := i.auth.CurrentUser(ctx)
	if !ok {
		return dto.StreakOutput{}, apperrors.ErrUnauthenticated
	}
	today, n, err := i.svc.Count(ctx, user.ID)
	if err != nil {
		return dto.StreakOutput{Today: today}, err
	}
	return dto.StreakOutput{Today: today, Days: n}, nil
}

func (i *Interactor) BonusFor(streak int) int {
	return domain.BonusFor(streak)
}

// Refresh records today's activity and pays the bonus for a streak that
// grew since the last observation. The first call per user seeds the
// observation from the streak as it stood before today's record. The bonus
// is claimed in the store first, so processes sharing a database pay it
// once per day.
func (i *Interactor) Refresh(ctx context.Context) (dto.RefreshOutput, error) {
	user, ok := i.auth.CurrentUser(ctx)
	if !ok {
		return dto.RefreshOutput{}, apperrors.ErrUnauthenticated
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	out := dto.RefreshOutput{}
	prev, seen := i.lastSeen[user.ID]
	if !seen {
		_, n, err := i.svc.Count(ctx, user.ID)
		if err != nil {
			return out, err
		}
		prev = n
		out.Seeded = true
	}
	if _, _, err := i.svc.Record(ctx, user.ID); err != nil {
		return out, err
	}
	today, streak, err := i.svc.Count(ctx, user.ID)
	if err != nil {
		return out, err
	}
	out.Today, out.Previous, out.Streak = today, prev, streak
	i.lastSeen[user.ID] = streak

	if streak <= prev {
		return out, nil
	}
	out.Bonus = domain.BonusFor(streak)
	if out.Bonus == 0 {
		return out, nil
	}
	claimed, err := i.svc.ClaimBonus(ctx, user.ID, today, streak)
	if err != nil {
		i.log.Warn("streak bonus claim failed", "user_id", user.ID, "streak", streak, "error", err)
		return out, nil
	}
	if !claimed {
		out.AlreadyPaid = true
		i.log.Debug("streak bonus already paid", "user_id", user.ID, "day", today, "streak", streak)
		return out, nil
	}
	award, err := i.ledger.Award(ctx, ledgerdto.AwardInput{
		Amount:      out.Bonus,
		Source:      ledgerdto.SourceStreakBonus,
		Description: fmt.Sprintf("%d-day streak bonus", streak),
	})
	if err != nil {
		i.log.Warn("streak bonus award failed", "user_id", user.ID, "streak", streak, "stage", award.Stage, "error", err)
		if rerr := i.svc.ReleaseBonus(context.WithoutCancel(ctx), user.ID, today); rerr != nil {
			i.log.Warn("streak bonus claim not released", "user_id", user.ID, "day", today, "error", rerr)
		}
		return out, nil
	}
	out.Awarded = true
	i.log.Info("streak bonus awarded", "user_id", user.ID, "streak", streak, "bonus", out.Bonus)
	return out, nil
}
