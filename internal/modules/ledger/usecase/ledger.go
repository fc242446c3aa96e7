package usecase

import (
	"context"
	"fmt"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	"studyhub/internal/modules/ledger/domain"
	"studyhub/internal/modules/ledger/dto"
	ledgerin "studyhub/internal/modules/ledger/port/in"
	ledgerout "studyhub/internal/modules/ledger/port/out"
	"studyhub/internal/modules/ledger/service"
	notifydto "studyhub/internal/modules/notify/dto"
	notifyin "studyhub/internal/modules/notify/port/in"
	"studyhub/internal/platform/auth"
	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/logging"
	"studyhub/internal/platform/tx"
)

// Options carries the collaborators an Interactor can run without.
type Options struct {
	Publisher    ledgerout.BalancePublisher
	Acknowledger ledgerout.Acknowledger
	Notifier     notifyin.Usecase
	// Origin tags published balances so this process can drop its own echoes.
	Origin string
	Logger hclog.Logger
}

type Interactor struct {
	svc  *service.LedgerService
	auth auth.Context
	txm  tx.Manager
	opts Options
	log  hclog.Logger

	// awardMu serializes the read-then-write award path within a process.
	awardMu sync.Mutex

	mu      sync.RWMutex
	userID  string
	balance domain.Balance
	known   bool
	history []domain.Transaction
}

func NewInteractor(svc *service.LedgerService, authCtx auth.Context, txm tx.Manager, opts Options) ledgerin.Usecase {
	return &Interactor{
		svc:  svc,
		auth: authCtx,
		txm:  tx.OrNoop(txm),
		opts: opts,
		log:  logging.OrNull(opts.Logger).Named("ledger"),
	}
}

func (i *Interactor) Award(ctx context.Context, input dto.AwardInput) (dto.AwardOutput, error) {
	user, ok := i.auth.CurrentUser(ctx)
	if !ok {
		return dto.AwardOutput{}, apperrors.ErrUnauthenticated
	}
	source, err := domain.ParseSource(input.Source)
	if err != nil {
		return dto.AwardOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if source == domain.SourceMilestone {
		return dto.AwardOutput{}, fmt.Errorf("%w: milestone records are written by the ledger", apperrors.ErrInvalidInput)
	}
	txn, err := i.svc.NewTransaction(user.ID, input.Amount, source, input.Description)
	if err != nil {
		return dto.AwardOutput{}, err
	}

	i.awardMu.Lock()
	defer i.awardMu.Unlock()

	out := dto.AwardOutput{TransactionID: txn.ID, Amount: txn.Amount, Source: string(txn.Source)}
	var before, after domain.Balance
	stage := ""
	err = i.txm.Within(ctx, func(ctx context.Context) error {
		current, err := i.svc.CurrentBalance(ctx, user.ID)
		if err != nil {
			stage = dto.StageRead
			return err
		}
		before = current
		after, stage, err = i.svc.Commit(ctx, current, txn)
		return err
	})
	out.BalanceBefore = before.Amount
	if err != nil {
		out.Outcome = dto.OutcomeFailed
		out.Stage = stage
		i.log.Error("award failed", "user_id", user.ID, "source", txn.Source, "amount", txn.Amount, "stage", stage, "error", err)
		return out, fmt.Errorf("award %s at %s: %w", txn.Source, stage, err)
	}
	out.Outcome = dto.OutcomeCommitted
	out.BalanceAfter = after.Amount

	i.remember(user.ID, after, &txn)
	i.log.Info("coins awarded", "user_id", user.ID, "source", txn.Source, "amount", txn.Amount, "balance", after.Amount)

	if i.opts.Acknowledger != nil {
		i.opts.Acknowledger.Acknowledge(ctx, txn, after)
	}
	i.publish(ctx, after)

	threshold, fresh, err := i.svc.ReachMilestone(ctx, user.ID, before.Amount, after.Amount)
	if err != nil {
		i.log.Warn("milestone check failed", "user_id", user.ID, "error", err)
	}
	out.Milestone = threshold
	if fresh {
		out.MilestoneNotified = true
		i.notifyMilestone(ctx, threshold)
	}
	return out, nil
}

func (i *Interactor) AwardFocusMinutes(ctx context.Context, minutes int) (dto.AwardOutput, error) {
	if minutes < 0 {
		return dto.AwardOutput{}, fmt.Errorf("%w: minutes must be non-negative", apperrors.ErrInvalidInput)
	}
	return i.Award(ctx, dto.AwardInput{
		Amount:      minutes * domain.CoinsPerFocusMinute,
		Source:      string(domain.SourceFocusTimer),
		Description: fmt.Sprintf("Focus session: %d minutes", minutes),
	})
}

func (i *Interactor) AwardTaskCompletion(ctx context.Context, title string) (dto.AwardOutput, error) {
	return i.Award(ctx, dto.AwardInput{
		Amount:      domain.TaskCompletionCoins,
		Source:      string(domain.SourceTaskCompletion),
		Description: "Completed task: " + title,
	})
}

func (i *Interactor) AwardFlashcardCreation(ctx context.Context, front string) (dto.AwardOutput, error) {
	return i.Award(ctx, dto.AwardInput{
		Amount:      domain.FlashcardCreationCoin,
		Source:      string(domain.SourceFlashcardCreation),
		Description: "Created flashcard: " + front,
	})
}

// Balance reads the store; when that fails a previously known value is
// served with Cached set.
func (i *Interactor) Balance(ctx context.Context) (dto.BalanceOutput, error) {
	user, ok := i.auth.CurrentUser(ctx)
	if !ok {
		return dto.BalanceOutput{}, apperrors.ErrUnauthenticated
	}
	b, err := i.svc.CurrentBalance(ctx, user.ID)
	if err != nil {
		i.mu.RLock()
		cached, known := i.balance, i.known && i.userID == user.ID
		i.mu.RUnlock()
		if known {
			i.log.Warn("serving cached balance", "user_id", user.ID, "error", err)
			return dto.BalanceOutput{UserID: user.ID, Balance: cached.Amount, UpdatedAt: cached.UpdatedAt, Cached: true}, nil
		}
		return dto.BalanceOutput{}, fmt.Errorf("read balance: %w", err)
	}
	i.remember(user.ID, b, nil)
	return dto.BalanceOutput{UserID: user.ID, Balance: b.Amount, UpdatedAt: b.UpdatedAt}, nil
}

func (i *Interactor) History(ctx context.Context, limit int) ([]dto.TransactionOutput, error) {
	user, ok := i.auth.CurrentUser(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	txs, err := i.svc.History(ctx, user.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]dto.TransactionOutput, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionOutput(t))
	}
	return out, nil
}

func (i *Interactor) Reconcile(ctx context.Context) (dto.ReconcileOutput, error) {
	user, ok := i.auth.CurrentUser(ctx)
	if !ok {
		return dto.ReconcileOutput{}, apperrors.ErrUnauthenticated
	}
	i.awardMu.Lock()
	defer i.awardMu.Unlock()

	var before, after domain.Balance
	err := i.txm.Within(ctx, func(ctx context.Context) error {
		var err error
		before, after, err = i.svc.Recompute(ctx, user.ID)
		return err
	})
	if err != nil {
		return dto.ReconcileOutput{}, fmt.Errorf("reconcile balance: %w", err)
	}
	i.remember(user.ID, after, nil)
	drift := after.Amount - before.Amount
	if drift != 0 {
		i.log.Warn("balance drift repaired", "user_id", user.ID, "before", before.Amount, "after", after.Amount)
	}
	i.publish(ctx, after)
	return dto.ReconcileOutput{UserID: user.ID, Before: before.Amount, After: after.Amount, Drift: drift}, nil
}

// ApplyRemoteBalance overwrites the in-memory balance with a pushed value.
// The store is never written.
func (i *Interactor) ApplyRemoteBalance(ctx context.Context, input dto.RemoteBalanceInput) (dto.BalanceOutput, error) {
	user, ok := i.auth.CurrentUser(ctx)
	if !ok {
		return dto.BalanceOutput{}, apperrors.ErrUnauthenticated
	}
	if input.UserID != user.ID {
		return dto.BalanceOutput{}, fmt.Errorf("%w: balance for %q while signed in as %q", apperrors.ErrInvalidInput, input.UserID, user.ID)
	}
	i.remember(user.ID, domain.Balance{UserID: user.ID, Amount: input.Balance, UpdatedAt: input.UpdatedAt}, nil)
	return dto.BalanceOutput{UserID: user.ID, Balance: input.Balance, UpdatedAt: input.UpdatedAt, Cached: true}, nil
}

func (i *Interactor) Snapshot() dto.SnapshotOutput {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := dto.SnapshotOutput{UserID: i.userID, Balance: i.balance.Amount, Known: i.known}
	for _, t := range i.history {
		out.History = append(out.History, toTransactionOutput(t))
	}
	return out
}

// remember replaces the cached balance and, when txn is set, prepends it
// to history. Switching users drops the previous user's state.
func (i *Interactor) remember(userID string, b domain.Balance, txn *domain.Transaction) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.userID != userID {
		i.userID = userID
		i.history = nil
	}
	i.balance = b
	i.known = true
	if txn != nil {
		i.history = domain.PrependHistory(i.history, *txn)
	}
}

func (i *Interactor) publish(ctx context.Context, b domain.Balance) {
	if i.opts.Publisher == nil {
		return
	}
	if err := i.opts.Publisher.PublishBalance(ctx, i.opts.Origin, b); err != nil {
		i.log.Warn("publish balance", "user_id", b.UserID, "error", err)
	}
}

func (i *Interactor) notifyMilestone(ctx context.Context, threshold int) {
	i.log.Info("milestone reached", "threshold", threshold)
	if i.opts.Notifier == nil {
		return
	}
	res := i.opts.Notifier.Send(ctx, notifydto.SendInput{
		Subject: fmt.Sprintf("Milestone reached: %d coins", threshold),
		Body:    fmt.Sprintf("Your coin balance passed %d. Keep going.", threshold),
	})
	if res.Outcome == notifydto.SendFailed {
		i.log.Warn("milestone notification failed", "threshold", threshold, "reason", res.Reason)
	}
}

func toTransactionOutput(t domain.Transaction) dto.TransactionOutput {
	return dto.TransactionOutput{
		ID:          t.ID,
		Amount:      t.Amount,
		Source:      string(t.Source),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}
