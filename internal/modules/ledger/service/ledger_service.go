package service

import (
	"context"
	"errors"
	"fmt"

	"studyhub/internal/modules/ledger/domain"
	ledgerout "studyhub/internal/modules/ledger/port/out"
	"studyhub/internal/platform/clock"
	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/id"
)

const (
	StageRead    = "read"
	StageInsert  = "insert"
	StageBalance = "balance"
)

type LedgerService struct {
	clock    clock.Clock
	idGen    id.Generator
	txs      ledgerout.TransactionStore
	balances ledgerout.BalanceStore
}

func NewLedgerService(clock clock.Clock, idGen id.Generator, txs ledgerout.TransactionStore, balances ledgerout.BalanceStore) *LedgerService {
	return &LedgerService{clock: clock, idGen: idGen, txs: txs, balances: balances}
}

func (s *LedgerService) NewTransaction(userID string, amount int, source domain.Source, description string) (domain.Transaction, error) {
	if userID == "" {
		return domain.Transaction{}, apperrors.ErrUnauthenticated
	}
	if amount < 0 {
		return domain.Transaction{}, fmt.Errorf("%w: award amount must be non-negative", apperrors.ErrInvalidInput)
	}
	return domain.Transaction{
		ID:          s.idGen.New(),
		UserID:      userID,
		Amount:      amount,
		Source:      source,
		Description: description,
		CreatedAt:   s.clock.Now(),
	}, nil
}

// CurrentBalance reads the cached balance row; a missing row is zero.
func (s *LedgerService) CurrentBalance(ctx context.Context, userID string) (domain.Balance, error) {
	b, err := s.balances.Get(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.Balance{UserID: userID}, nil
	}
	if err != nil {
		return domain.Balance{}, err
	}
	return b, nil
}

// Commit appends tx and then writes current+amount. The returned stage
// names the step that failed.
func (s *LedgerService) Commit(ctx context.Context, current domain.Balance, tx domain.Transaction) (domain.Balance, string, error) {
	if err := s.txs.Insert(ctx, tx); err != nil {
		return domain.Balance{}, StageInsert, err
	}
	next := current.Apply(tx)
	if err := s.balances.Put(ctx, next); err != nil {
		return domain.Balance{}, StageBalance, err
	}
	return next, "", nil
}

// ReachMilestone detects a crossing between prev and next and records the
// zero-amount marker. fresh is false when the marker already existed.
func (s *LedgerService) ReachMilestone(ctx context.Context, userID string, prev, next int) (threshold int, fresh bool, err error) {
	threshold, ok := domain.DetectMilestone(prev, next)
	if !ok {
		return 0, false, nil
	}
	seen, err := s.txs.HasMilestone(ctx, userID, threshold)
	if err != nil {
		return threshold, false, fmt.Errorf("check milestone %d: %w", threshold, err)
	}
	if seen {
		return threshold, false, nil
	}
	marker := domain.MilestoneMarker(s.idGen.New(), userID, threshold, s.clock.Now())
	if err := s.txs.Insert(ctx, marker); err != nil {
		return threshold, false, fmt.Errorf("record milestone %d: %w", threshold, err)
	}
	return threshold, true, nil
}

// Recompute rebuilds the cached balance from the transaction log.
func (s *LedgerService) Recompute(ctx context.Context, userID string) (before, after domain.Balance, err error) {
	before, err = s.CurrentBalance(ctx, userID)
	if err != nil {
		return domain.Balance{}, domain.Balance{}, err
	}
	sum, err := s.txs.Sum(ctx, userID)
	if err != nil {
		return domain.Balance{}, domain.Balance{}, fmt.Errorf("sum transactions: %w", err)
	}
	after = domain.Balance{UserID: userID, Amount: sum, UpdatedAt: s.clock.Now()}
	if err := s.balances.Put(ctx, after); err != nil {
		return domain.Balance{}, domain.Balance{}, err
	}
	return before, after, nil
}

func (s *LedgerService) History(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = domain.HistoryLimit
	}
	return s.txs.List(ctx, userID, limit)
}
