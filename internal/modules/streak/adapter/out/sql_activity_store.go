package out

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"studyhub/internal/modules/streak/domain"
	streakout "studyhub/internal/modules/streak/port/out"
	"studyhub/internal/platform/database"
)

type SQLActivityStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLActivityStore(db *sqlx.DB) streakout.ActivityStore {
	return &SQLActivityStore{db: db, now: time.Now}
}

func (s *SQLActivityStore) Exists(ctx context.Context, userID, day string) (bool, error) {
	q := database.Executor(ctx, s.db)
	var n int
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind(`SELECT COUNT(*) FROM daily_activity WHERE user_id = ? AND day = ?`), userID, day); err != nil {
		return false, fmt.Errorf("check daily activity: %w", err)
	}
	return n > 0, nil
}

// Insert relies on the (user_id, day) primary key for races between Exists
// and Insert.
func (s *SQLActivityStore) Insert(ctx context.Context, activity domain.Activity) error {
	const stmt = `
INSERT INTO daily_activity (user_id, day, has_activity, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id, day) DO NOTHING;
`
	q := database.Executor(ctx, s.db)
	if _, err := q.ExecContext(ctx, q.Rebind(stmt), activity.UserID, activity.Day, true, database.FormatTime(activity.CreatedAt)); err != nil {
		return fmt.Errorf("insert daily activity: %w", err)
	}
	return nil
}

func (s *SQLActivityStore) Days(ctx context.Context, userID string) ([]string, error) {
	q := database.Executor(ctx, s.db)
	days := []string{}
	if err := sqlx.SelectContext(ctx, q, &days, q.Rebind(`SELECT DISTINCT day FROM daily_activity WHERE user_id = ? AND has_activity = ? ORDER BY day DESC`), userID, true); err != nil {
		return nil, fmt.Errorf("list activity days: %w", err)
	}
	return days, nil
}

// ClaimBonus relies on the (user_id, day) primary key: of several processes
// paying the same bonus only the first insert lands.
func (s *SQLActivityStore) ClaimBonus(ctx context.Context, userID, day string, streak int) (bool, error) {
	const stmt = `
INSERT INTO streak_bonuses (user_id, day, streak, claimed_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id, day) DO NOTHING;
`
	q := database.Executor(ctx, s.db)
	res, err := q.ExecContext(ctx, q.Rebind(stmt), userID, day, streak, database.FormatTime(s.now()))
	if err != nil {
		return false, fmt.Errorf("claim streak bonus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim streak bonus: %w", err)
	}
	return n == 1, nil
}

func (s *SQLActivityStore) ReleaseBonus(ctx context.Context, userID, day string) error {
	q := database.Executor(ctx, s.db)
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM streak_bonuses WHERE user_id = ? AND day = ?`), userID, day); err != nil {
		return fmt.Errorf("release streak bonus: %w", err)
	}
	return nil
}
