package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	ledgerin "studyhub/internal/modules/ledger/port/in"
	notifydto "studyhub/internal/modules/notify/dto"
	notifyin "studyhub/internal/modules/notify/port/in"
	streakin "studyhub/internal/modules/streak/port/in"
	"studyhub/internal/modules/timer/domain"
	"studyhub/internal/modules/timer/dto"
	timerin "studyhub/internal/modules/timer/port/in"
	timerout "studyhub/internal/modules/timer/port/out"
	"studyhub/internal/modules/timer/service"
	"studyhub/internal/platform/logging"
)

// Options wires completion side effects. Any of them may be nil.
type Options struct {
	Ledger       ledgerin.Usecase
	Streak       streakin.Usecase
	Notifier     notifyin.Usecase
	Cue          timerout.Cue
	Sessions     timerout.SessionLogger
	TickInterval time.Duration
	Logger       hclog.Logger
}

type Interactor struct {
	svc  *service.TimerService
	opts Options
	log  hclog.Logger

	mu    sync.Mutex
	state domain.State
}

func NewInteractor(svc *service.TimerService, opts Options) timerin.Usecase {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	return &Interactor{
		svc:   svc,
		opts:  opts,
		log:   logging.OrNull(opts.Logger).Named("timer"),
		state: svc.DefaultState(),
	}
}

// Restore loads the persisted state. A run that expired while nothing was
// watching completes here, as does a paused run with no time left.
func (i *Interactor) Restore(ctx context.Context) (dto.RestoreOutput, error) {
	loaded := i.svc.Load(ctx)
	now := i.svc.Now()

	i.mu.Lock()
	i.state = loaded
	if expired(loaded, now) {
		done := i.completeLocked(ctx)
		status := i.statusLocked(now)
		i.mu.Unlock()
		i.log.Info("timer finished while closed", "duration_seconds", done.DurationSeconds)
		completion := i.runCompletion(ctx, done)
		return dto.RestoreOutput{Status: status, Completion: &completion}, nil
	}
	status := i.statusLocked(now)
	i.mu.Unlock()
	return dto.RestoreOutput{Status: status, Resumed: loaded.Status == domain.StatusRunning}, nil
}

func (i *Interactor) Start(ctx context.Context) (dto.StatusOutput, error) {
	return i.transition(ctx, "start", func(s domain.State, now time.Time) (domain.State, error) {
		return s.Start(now)
	})
}

// Pause freezes a running timer. A run whose time is already up completes
// instead of pausing.
func (i *Interactor) Pause(ctx context.Context) (dto.StatusOutput, error) {
	if status, ok := i.completeIfExpired(ctx); ok {
		return status, nil
	}
	return i.transition(ctx, "pause", func(s domain.State, now time.Time) (domain.State, error) {
		return s.Pause(now)
	})
}

func (i *Interactor) Resume(ctx context.Context) (dto.StatusOutput, error) {
	return i.transition(ctx, "resume", func(s domain.State, now time.Time) (domain.State, error) {
		return s.Resume(now)
	})
}

// Stop resets to idle and removes the stored record. A run whose time is
// already up completes instead of being abandoned.
func (i *Interactor) Stop(ctx context.Context) (dto.StatusOutput, error) {
	if status, ok := i.completeIfExpired(ctx); ok {
		return status, nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	next, err := i.state.Stop()
	if err != nil {
		return i.statusLocked(i.svc.Now()), err
	}
	i.state = next
	i.svc.Clear(ctx)
	i.log.Info("timer stopped")
	return i.statusLocked(i.svc.Now()), nil
}

func (i *Interactor) SetDuration(ctx context.Context, minutes int) (dto.SetDurationOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	next, applied, err := i.state.WithDuration(minutes)
	if err != nil {
		return dto.SetDurationOutput{Status: i.statusLocked(i.svc.Now())}, err
	}
	if applied {
		i.state = next
		i.svc.Flush(ctx, i.state, true)
	} else {
		i.log.Debug("duration change ignored", "status", i.state.Status, "minutes", minutes)
	}
	return dto.SetDurationOutput{Applied: applied, Status: i.statusLocked(i.svc.Now())}, nil
}

func (i *Interactor) SetCategory(ctx context.Context, category string) (dto.StatusOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = i.state.WithCategory(category)
	i.svc.Flush(ctx, i.state, true)
	return i.statusLocked(i.svc.Now()), nil
}

// Tick re-derives the remaining time from the wall clock and completes the
// run once it reaches zero.
func (i *Interactor) Tick(ctx context.Context) (dto.TickOutput, error) {
	now := i.svc.Now()
	i.mu.Lock()
	if i.state.Status != domain.StatusRunning {
		status := i.statusLocked(now)
		i.mu.Unlock()
		return dto.TickOutput{Status: status}, nil
	}
	if i.state.Remaining(now) > 0 {
		i.svc.Flush(ctx, i.state, false)
		status := i.statusLocked(now)
		i.mu.Unlock()
		return dto.TickOutput{Status: status}, nil
	}
	done := i.completeLocked(ctx)
	status := i.statusLocked(now)
	i.mu.Unlock()

	completion := i.runCompletion(ctx, done)
	return dto.TickOutput{Status: status, Completion: &completion}, nil
}

func (i *Interactor) Status(_ context.Context) dto.StatusOutput {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.statusLocked(i.svc.Now())
}

// Run ticks every TickInterval until ctx ends or the timer leaves running.
// onTick may be nil.
func (i *Interactor) Run(ctx context.Context, onTick func(dto.TickOutput)) error {
	if !i.Status(ctx).Running() {
		return nil
	}
	ticker := time.NewTicker(i.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			out, err := i.Tick(ctx)
			if err != nil {
				return err
			}
			if onTick != nil {
				onTick(out)
			}
			if !out.Status.Running() {
				return nil
			}
		}
	}
}

func (i *Interactor) transition(ctx context.Context, name string, apply func(domain.State, time.Time) (domain.State, error)) (dto.StatusOutput, error) {
	now := i.svc.Now()
	i.mu.Lock()
	defer i.mu.Unlock()
	next, err := apply(i.state, now)
	if err != nil {
		return i.statusLocked(now), err
	}
	i.state = next
	i.svc.Flush(ctx, i.state, true)
	i.log.Info("timer "+name, "remaining_seconds", i.state.Remaining(now), "duration_seconds", i.state.DurationSeconds)
	return i.statusLocked(now), nil
}

// completeIfExpired runs the completion flow when the time is up but no
// tick has observed it yet. ok is false when the timer was not expired.
func (i *Interactor) completeIfExpired(ctx context.Context) (dto.StatusOutput, bool) {
	now := i.svc.Now()
	i.mu.Lock()
	if !expired(i.state, now) {
		i.mu.Unlock()
		return dto.StatusOutput{}, false
	}
	done := i.completeLocked(ctx)
	status := i.statusLocked(now)
	i.mu.Unlock()
	i.log.Info("timer expired before the action", "duration_seconds", done.DurationSeconds)
	i.runCompletion(ctx, done)
	return status, true
}

func expired(s domain.State, now time.Time) bool {
	switch s.Status {
	case domain.StatusRunning, domain.StatusPaused:
		return s.Remaining(now) <= 0
	default:
		return false
	}
}

// completeLocked moves to completed and persists that before any side
// effect runs, so a reload never completes the same run twice.
func (i *Interactor) completeLocked(ctx context.Context) domain.State {
	finished := i.state
	i.state = i.state.Complete()
	i.svc.Flush(ctx, i.state, true)
	return finished
}

// runCompletion performs the best-effort side effects of one finished run.
// It is detached from ctx cancellation so stopping a tick loop does not
// abort an in-flight award.
func (i *Interactor) runCompletion(ctx context.Context, finished domain.State) dto.CompletionOutput {
	ctx = context.WithoutCancel(ctx)
	out := dto.CompletionOutput{
		DurationSeconds: finished.DurationSeconds,
		EarnedCoins:     domain.EarnedCoins(finished.DurationSeconds),
		LoggedMinutes:   domain.LoggedMinutes(finished.DurationSeconds),
	}

	if i.opts.Cue != nil {
		if err := i.opts.Cue.Play(ctx); err != nil {
			i.log.Warn("completion cue failed", "error", err)
		}
	}

	if i.opts.Ledger != nil {
		award, err := i.opts.Ledger.AwardFocusMinutes(ctx, out.EarnedCoins)
		if err != nil {
			out.AwardError = err.Error()
			i.log.Error("focus award failed", "coins", out.EarnedCoins, "error", err)
		} else {
			out.AwardCommitted = award.Committed()
			out.BalanceAfter = award.BalanceAfter
		}
	}

	if i.opts.Sessions != nil {
		path, err := i.opts.Sessions.Log(ctx, i.svc.Session(finished))
		if err != nil {
			out.SessionError = err.Error()
			i.log.Warn("study session log failed", "error", err)
		}
		out.SessionPath = path
	}

	if i.opts.Notifier != nil {
		res := i.opts.Notifier.Send(ctx, notifydto.SendInput{
			Subject: "Focus session complete",
			Body:    fmt.Sprintf("You focused for %d minutes and earned %d coins.", out.LoggedMinutes, out.EarnedCoins),
		})
		out.Notification = string(res.Outcome)
	}

	if i.opts.Streak != nil {
		refresh, err := i.opts.Streak.Refresh(ctx)
		if err != nil {
			i.log.Warn("streak refresh failed", "error", err)
		}
		out.StreakDays = refresh.Streak
	}

	i.log.Info("focus session complete", "coins", out.EarnedCoins, "minutes", out.LoggedMinutes, "award_committed", out.AwardCommitted)
	return out
}

func (i *Interactor) statusLocked(now time.Time) dto.StatusOutput {
	remaining := i.state.Remaining(now)
	if remaining < 0 {
		remaining = 0
	}
	out := dto.StatusOutput{
		Status:           string(i.state.Status),
		RemainingSeconds: remaining,
		DurationSeconds:  i.state.DurationSeconds,
		Category:         i.state.Category(),
		MemoryOnly:       i.svc.MemoryOnly(),
	}
	if i.state.Status == domain.StatusRunning {
		out.StartedAt = i.state.StartedAt()
	}
	return out
}
