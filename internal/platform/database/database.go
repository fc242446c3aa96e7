package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"studyhub/internal/platform/config"
)

// TimeLayout is fixed-width so TEXT timestamps sort chronologically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to the configured store and applies the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.Driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		// one writer; a second pooled connection would hit SQLITE_BUSY inside Within
		db.SetMaxOpenConns(1)
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(ctx context.Context, db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS coin_transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  amount INTEGER NOT NULL,
  source TEXT NOT NULL,
  description TEXT NOT NULL,
  created_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_coin_transactions_user_created ON coin_transactions(user_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_coin_transactions_user_source ON coin_transactions(user_id, source, description);`,
		`CREATE TABLE IF NOT EXISTS coin_balances (
  user_id TEXT PRIMARY KEY,
  balance INTEGER NOT NULL,
  updated_at TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS daily_activity (
  user_id TEXT NOT NULL,
  day TEXT NOT NULL,
  has_activity BOOLEAN NOT NULL,
  created_at TEXT NOT NULL,
  PRIMARY KEY (user_id, day)
);`,
		`CREATE TABLE IF NOT EXISTS streak_bonuses (
  user_id TEXT NOT NULL,
  day TEXT NOT NULL,
  streak INTEGER NOT NULL,
  claimed_at TEXT NOT NULL,
  PRIMARY KEY (user_id, day)
);`,
		`CREATE TABLE IF NOT EXISTS notification_preferences (
  user_id TEXT PRIMARY KEY,
  enabled BOOLEAN NOT NULL,
  contact TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

type txKey struct{}

// Executor returns the transaction bound to ctx by TxManager, or db itself.
func Executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// TxManager runs fn inside one SQL transaction; adapters pick it up through
// Executor.
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) TxManager {
	return TxManager{db: db}
}

func (m TxManager) Within(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func ParseTime(raw string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", raw, err)
	}
	return t.UTC(), nil
}
