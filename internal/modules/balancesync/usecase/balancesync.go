package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"studyhub/internal/modules/balancesync/domain"
	"studyhub/internal/modules/balancesync/dto"
	syncin "studyhub/internal/modules/balancesync/port/in"
	syncout "studyhub/internal/modules/balancesync/port/out"
	"studyhub/internal/modules/balancesync/service"
	ledgerdto "studyhub/internal/modules/ledger/dto"
	ledgerin "studyhub/internal/modules/ledger/port/in"
	"studyhub/internal/platform/auth"
	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/logging"
)

const DefaultResubscribeDelay = time.Second

type Interactor struct {
	svc        *service.SyncService
	subscriber syncout.Subscriber
	ledger     ledgerin.Usecase
	lifecycle  auth.Lifecycle
	retry      time.Duration
	log        hclog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	status dto.StatusOutput

	listenMu  sync.Mutex
	listeners map[int]chan dto.AppliedOutput
	nextID    int
}

func NewInteractor(svc *service.SyncService, subscriber syncout.Subscriber, ledger ledgerin.Usecase, lifecycle auth.Lifecycle, retry time.Duration, logger hclog.Logger) syncin.Usecase {
	if retry <= 0 {
		retry = DefaultResubscribeDelay
	}
	return &Interactor{
		svc:        svc,
		subscriber: subscriber,
		ledger:     ledger,
		lifecycle:  lifecycle,
		retry:      retry,
		log:        logging.OrNull(logger).Named("balancesync"),
		listeners:  map[int]chan dto.AppliedOutput{},
	}
}

// Start replaces any running subscription with one for userID. Events are
// applied until Stop is called or ctx ends.
func (i *Interactor) Start(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", apperrors.ErrInvalidInput)
	}
	i.Stop()
	sub, err := i.subscriber.Subscribe(ctx, userID)
	if err != nil {
		return fmt.Errorf("subscribe balance channel: %w", err)
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	i.mu.Lock()
	i.cancel = cancel
	i.done = done
	i.status = dto.StatusOutput{UserID: userID, Subscribed: true}
	i.mu.Unlock()

	i.log.Info("balance sync started", "user_id", userID, "channel", domain.Channel(userID))
	go i.pump(runCtx, userID, sub, done)
	return nil
}

func (i *Interactor) Stop() {
	i.mu.Lock()
	cancel, done := i.cancel, i.done
	i.cancel, i.done = nil, nil
	i.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	i.setSubscribed(false)
	i.log.Info("balance sync stopped")
}

// Watch follows sign-in and sign-out until ctx ends or the lifecycle
// channel closes.
func (i *Interactor) Watch(ctx context.Context) error {
	changes, unsubscribe := i.lifecycle.Subscribe()
	defer unsubscribe()
	defer i.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if !change.SignedIn {
				i.Stop()
				continue
			}
			if err := i.Start(ctx, change.User.ID); err != nil {
				i.log.Error("start balance sync", "user_id", change.User.ID, "error", err)
			}
		}
	}
}

func (i *Interactor) Status() dto.StatusOutput {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.status
}

// pump applies events and opens a fresh subscription whenever the current
// one drops. Nothing missed while disconnected is replayed.
func (i *Interactor) pump(ctx context.Context, userID string, sub syncout.Subscription, done chan struct{}) {
	defer close(done)
	for {
		dropped := i.drain(ctx, userID, sub)
		_ = sub.Close()
		if !dropped {
			return
		}
		i.setSubscribed(false)
		i.log.Warn("balance channel dropped, resubscribing", "user_id", userID)
		next, ok := i.resubscribe(ctx, userID)
		if !ok {
			return
		}
		sub = next
		i.setSubscribed(true)
	}
}

func (i *Interactor) drain(ctx context.Context, userID string, sub syncout.Subscription) bool {
	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return false
		case change, ok := <-events:
			if !ok {
				return ctx.Err() == nil
			}
			i.apply(ctx, userID, change)
		}
	}
}

func (i *Interactor) resubscribe(ctx context.Context, userID string) (syncout.Subscription, bool) {
	timer := time.NewTimer(i.retry)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-timer.C:
		}
		sub, err := i.subscriber.Subscribe(ctx, userID)
		if err == nil {
			return sub, true
		}
		i.log.Warn("resubscribe failed", "user_id", userID, "error", err)
		timer.Reset(i.retry)
	}
}

func (i *Interactor) apply(ctx context.Context, userID string, change domain.BalanceChange) {
	if !i.svc.Accept(userID, change) {
		i.count(false, change)
		return
	}
	_, err := i.ledger.ApplyRemoteBalance(ctx, ledgerdto.RemoteBalanceInput{
		UserID:    change.UserID,
		Balance:   change.Balance,
		UpdatedAt: change.UpdatedAt,
	})
	if err != nil {
		i.log.Warn("apply pushed balance", "user_id", userID, "error", err)
		i.count(false, change)
		return
	}
	i.log.Debug("pushed balance applied", "user_id", userID, "balance", change.Balance)
	i.count(true, change)
	i.broadcast(dto.AppliedOutput{UserID: change.UserID, Balance: change.Balance, UpdatedAt: change.UpdatedAt})
}

func (i *Interactor) Applied() (<-chan dto.AppliedOutput, func()) {
	ch := make(chan dto.AppliedOutput, 1)
	i.listenMu.Lock()
	id := i.nextID
	i.nextID++
	i.listeners[id] = ch
	i.listenMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			i.listenMu.Lock()
			delete(i.listeners, id)
			i.listenMu.Unlock()
			close(ch)
		})
	}
}

// broadcast never blocks the pump. A listener that has not read the last
// change gets the newer one in its place.
func (i *Interactor) broadcast(applied dto.AppliedOutput) {
	i.listenMu.Lock()
	defer i.listenMu.Unlock()
	for _, ch := range i.listeners {
		select {
		case ch <- applied:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- applied:
		default:
		}
	}
}

func (i *Interactor) count(applied bool, change domain.BalanceChange) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !applied {
		i.status.Skipped++
		return
	}
	i.status.Applied++
	i.status.LastBalance = change.Balance
	i.status.LastAt = change.UpdatedAt
}

func (i *Interactor) setSubscribed(v bool) {
	i.mu.Lock()
	i.status.Subscribed = v
	i.mu.Unlock()
}
