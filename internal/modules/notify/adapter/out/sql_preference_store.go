package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"studyhub/internal/modules/notify/domain"
	notifyout "studyhub/internal/modules/notify/port/out"
	"studyhub/internal/platform/database"
	apperrors "studyhub/internal/platform/errors"
)

type SQLPreferenceStore struct {
	db *sqlx.DB
}

type preferenceRow struct {
	UserID    string `db:"user_id"`
	Enabled   bool   `db:"enabled"`
	Contact   string `db:"contact"`
	UpdatedAt string `db:"updated_at"`
}

func NewSQLPreferenceStore(db *sqlx.DB) notifyout.PreferenceStore {
	return &SQLPreferenceStore{db: db}
}

func (s *SQLPreferenceStore) Get(ctx context.Context, userID string) (domain.Preference, error) {
	q := database.Executor(ctx, s.db)
	row := preferenceRow{}
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`SELECT user_id, enabled, contact, updated_at FROM notification_preferences WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Preference{}, apperrors.ErrNotFound
	}
	if err != nil {
		return domain.Preference{}, fmt.Errorf("get notification preference: %w", err)
	}
	updated, err := database.ParseTime(row.UpdatedAt)
	if err != nil {
		return domain.Preference{}, err
	}
	return domain.Preference{UserID: row.UserID, Enabled: row.Enabled, Contact: row.Contact, UpdatedAt: updated}, nil
}

func (s *SQLPreferenceStore) Put(ctx context.Context, pref domain.Preference) error {
	const stmt = `
INSERT INTO notification_preferences (user_id, enabled, contact, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  enabled=excluded.enabled,
  contact=excluded.contact,
  updated_at=excluded.updated_at;
`
	q := database.Executor(ctx, s.db)
	if _, err := q.ExecContext(ctx, q.Rebind(stmt), pref.UserID, pref.Enabled, pref.Contact, database.FormatTime(pref.UpdatedAt)); err != nil {
		return fmt.Errorf("upsert notification preference: %w", err)
	}
	return nil
}
