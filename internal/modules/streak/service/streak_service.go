package service

import (
	"context"
	"fmt"
	"time"

	"studyhub/internal/modules/streak/domain"
	streakout "studyhub/internal/modules/streak/port/out"
	"studyhub/internal/platform/clock"
)

type StreakService struct {
	clock clock.Clock
	loc   *time.Location
	store streakout.ActivityStore
}

func NewStreakService(clock clock.Clock, loc *time.Location, store streakout.ActivityStore) *StreakService {
	if loc == nil {
		loc = time.UTC
	}
	return &StreakService{clock: clock, loc: loc, store: store}
}

func (s *StreakService) Today() string {
	return domain.DayOf(s.clock.Now(), s.loc)
}

// Record inserts today's activity unless a row already exists.
func (s *StreakService) Record(ctx context.Context, userID string) (string, bool, error) {
	day := s.Today()
	exists, err := s.store.Exists(ctx, userID, day)
	if err != nil {
		return day, false, fmt.Errorf("check daily activity: %w", err)
	}
	if exists {
		return day, false, nil
	}
	if err := s.store.Insert(ctx, domain.Activity{UserID: userID, Day: day, CreatedAt: s.clock.Now()}); err != nil {
		return day, false, fmt.Errorf("record daily activity: %w", err)
	}
	return day, true, nil
}

func (s *StreakService) Count(ctx context.Context, userID string) (string, int, error) {
	today := s.Today()
	days, err := s.store.Days(ctx, userID)
	if err != nil {
		return today, 0, fmt.Errorf("list activity days: %w", err)
	}
	return today, domain.CountStreak(days, today), nil
}

// ClaimBonus reserves the bonus for userID on day across processes sharing
// the store.
func (s *StreakService) ClaimBonus(ctx context.Context, userID, day string, streak int) (bool, error) {
	claimed, err := s.store.ClaimBonus(ctx, userID, day, streak)
	if err != nil {
		return false, fmt.Errorf("claim streak bonus: %w", err)
	}
	return claimed, nil
}

func (s *StreakService) ReleaseBonus(ctx context.Context, userID, day string) error {
	return s.store.ReleaseBonus(ctx, userID, day)
}
