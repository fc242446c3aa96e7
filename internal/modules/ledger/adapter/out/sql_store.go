package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"studyhub/internal/modules/ledger/domain"
	ledgerout "studyhub/internal/modules/ledger/port/out"
	"studyhub/internal/platform/database"
	apperrors "studyhub/internal/platform/errors"
)

type SQLTransactionStore struct {
	db *sqlx.DB
}

type transactionRow struct {
	ID          string `db:"id"`
	UserID      string `db:"user_id"`
	Amount      int    `db:"amount"`
	Source      string `db:"source"`
	Description string `db:"description"`
	CreatedAt   string `db:"created_at"`
}

func NewSQLTransactionStore(db *sqlx.DB) ledgerout.TransactionStore {
	return &SQLTransactionStore{db: db}
}

func (s *SQLTransactionStore) Insert(ctx context.Context, tx domain.Transaction) error {
	const stmt = `INSERT INTO coin_transactions (id, user_id, amount, source, description, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	q := database.Executor(ctx, s.db)
	if _, err := q.ExecContext(ctx, q.Rebind(stmt), tx.ID, tx.UserID, tx.Amount, string(tx.Source), tx.Description, database.FormatTime(tx.CreatedAt)); err != nil {
		return fmt.Errorf("insert coin transaction: %w", err)
	}
	return nil
}

func (s *SQLTransactionStore) List(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	q := database.Executor(ctx, s.db)
	rows := []transactionRow{}
	err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(`
SELECT id, user_id, amount, source, description, created_at
FROM coin_transactions
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list coin transactions: %w", err)
	}
	out := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *SQLTransactionStore) HasMilestone(ctx context.Context, userID string, threshold int) (bool, error) {
	q := database.Executor(ctx, s.db)
	var n int
	err := sqlx.GetContext(ctx, q, &n, q.Rebind(`SELECT COUNT(*) FROM coin_transactions WHERE user_id = ? AND source = ? AND description = ?`),
		userID, string(domain.SourceMilestone), domain.MilestoneDescription(threshold))
	if err != nil {
		return false, fmt.Errorf("check milestone marker: %w", err)
	}
	return n > 0, nil
}

func (s *SQLTransactionStore) Sum(ctx context.Context, userID string) (int, error) {
	q := database.Executor(ctx, s.db)
	var sum int
	if err := sqlx.GetContext(ctx, q, &sum, q.Rebind(`SELECT COALESCE(SUM(amount), 0) FROM coin_transactions WHERE user_id = ?`), userID); err != nil {
		return 0, fmt.Errorf("sum coin transactions: %w", err)
	}
	return sum, nil
}

func (r transactionRow) toDomain() (domain.Transaction, error) {
	created, err := database.ParseTime(r.CreatedAt)
	if err != nil {
		return domain.Transaction{}, err
	}
	source, err := domain.ParseSource(r.Source)
	if err != nil {
		source = domain.SourceOther
	}
	return domain.Transaction{
		ID:          r.ID,
		UserID:      r.UserID,
		Amount:      r.Amount,
		Source:      source,
		Description: r.Description,
		CreatedAt:   created,
	}, nil
}

type SQLBalanceStore struct {
	db *sqlx.DB
}

type balanceRow struct {
	UserID    string `db:"user_id"`
	Balance   int    `db:"balance"`
	UpdatedAt string `db:"updated_at"`
}

func NewSQLBalanceStore(db *sqlx.DB) ledgerout.BalanceStore {
	return &SQLBalanceStore{db: db}
}

func (s *SQLBalanceStore) Get(ctx context.Context, userID string) (domain.Balance, error) {
	q := database.Executor(ctx, s.db)
	row := balanceRow{}
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`SELECT user_id, balance, updated_at FROM coin_balances WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Balance{}, apperrors.ErrNotFound
	}
	if err != nil {
		return domain.Balance{}, fmt.Errorf("get coin balance: %w", err)
	}
	updated, err := database.ParseTime(row.UpdatedAt)
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.Balance{UserID: row.UserID, Amount: row.Balance, UpdatedAt: updated}, nil
}

func (s *SQLBalanceStore) Put(ctx context.Context, balance domain.Balance) error {
	const stmt = `
INSERT INTO coin_balances (user_id, balance, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  balance=excluded.balance,
  updated_at=excluded.updated_at;
`
	q := database.Executor(ctx, s.db)
	if _, err := q.ExecContext(ctx, q.Rebind(stmt), balance.UserID, balance.Amount, database.FormatTime(balance.UpdatedAt)); err != nil {
		return fmt.Errorf("upsert coin balance: %w", err)
	}
	return nil
}
