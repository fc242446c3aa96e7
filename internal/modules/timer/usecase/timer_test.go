package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	ledgerdto "studyhub/internal/modules/ledger/dto"
	timeradapter "studyhub/internal/modules/timer/adapter/out"
	"studyhub/internal/modules/timer/domain"
	"studyhub/internal/modules/timer/dto"
	timerin "studyhub/internal/modules/timer/port/in"
	timerout "studyhub/internal/modules/timer/port/out"
	"studyhub/internal/modules/timer/service"
	"studyhub/internal/modules/timer/usecase"
	apperrors "studyhub/internal/platform/errors"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type movableClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *movableClock) advance(d time.Duration) {
	c.mu.Lock()
	c.at = c.at.Add(d)
	c.mu.Unlock()
}

type fakeID struct{ n int }

func (f *fakeID) New() string {
	f.n++
	return fmt.Sprintf("session-%d", f.n)
}

type countingStore struct {
	timerout.StateStore
	saves   int
	failErr error
}

func (s *countingStore) Save(ctx context.Context, state domain.State) error {
	s.saves++
	if s.failErr != nil {
		return s.failErr
	}
	return s.StateStore.Save(ctx, state)
}

type fakeLedger struct {
	mu      sync.Mutex
	minutes []int
	err     error
}

func (f *fakeLedger) AwardFocusMinutes(_ context.Context, minutes int) (ledgerdto.AwardOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return ledgerdto.AwardOutput{Outcome: ledgerdto.OutcomeFailed}, f.err
	}
	f.minutes = append(f.minutes, minutes)
	total := 0
	for _, m := range f.minutes {
		total += m
	}
	return ledgerdto.AwardOutput{Outcome: ledgerdto.OutcomeCommitted, Amount: minutes, BalanceAfter: total}, nil
}

func (f *fakeLedger) awards() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.minutes...)
}

func (f *fakeLedger) Award(context.Context, ledgerdto.AwardInput) (ledgerdto.AwardOutput, error) {
	return ledgerdto.AwardOutput{}, nil
}

func (f *fakeLedger) AwardTaskCompletion(context.Context, string) (ledgerdto.AwardOutput, error) {
	return ledgerdto.AwardOutput{}, nil
}

func (f *fakeLedger) AwardFlashcardCreation(context.Context, string) (ledgerdto.AwardOutput, error) {
	return ledgerdto.AwardOutput{}, nil
}

func (f *fakeLedger) Balance(context.Context) (ledgerdto.BalanceOutput, error) {
	return ledgerdto.BalanceOutput{}, nil
}

func (f *fakeLedger) History(context.Context, int) ([]ledgerdto.TransactionOutput, error) {
	return nil, nil
}

func (f *fakeLedger) Reconcile(context.Context) (ledgerdto.ReconcileOutput, error) {
	return ledgerdto.ReconcileOutput{}, nil
}

func (f *fakeLedger) ApplyRemoteBalance(context.Context, ledgerdto.RemoteBalanceInput) (ledgerdto.BalanceOutput, error) {
	return ledgerdto.BalanceOutput{}, nil
}

func (f *fakeLedger) Snapshot() ledgerdto.SnapshotOutput {
	return ledgerdto.SnapshotOutput{}
}

type recordingSessions struct {
	mu       sync.Mutex
	sessions []domain.StudySession
}

func (r *recordingSessions) Log(_ context.Context, s domain.StudySession) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
	return "sessions/" + s.ID + ".md", nil
}

type failingCue struct{ plays int }

func (c *failingCue) Play(context.Context) error {
	c.plays++
	return errors.New("no audio device")
}

type harness struct {
	clock    *movableClock
	store    *countingStore
	ledger   *fakeLedger
	sessions *recordingSessions
	cue      *failingCue
	path     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".studyhub", "timer-state.json")
	return &harness{
		clock:    &movableClock{at: t0},
		store:    &countingStore{StateStore: timeradapter.NewFileStateStore(path, 25)},
		ledger:   &fakeLedger{},
		sessions: &recordingSessions{},
		cue:      &failingCue{},
		path:     path,
	}
}

// open builds a fresh interactor over the same store, like a page reload.
func (h *harness) open() timerin.Usecase {
	svc := service.NewTimerService(h.clock, &fakeID{}, h.store, 25, nil)
	return usecase.NewInteractor(svc, usecase.Options{
		Ledger:       h.ledger,
		Cue:          h.cue,
		Sessions:     h.sessions,
		TickInterval: time.Millisecond,
	})
}

func TestStartPauseResumeStop(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	uc := h.open()
	if _, err := uc.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}

	st, err := uc.Start(ctx)
	if err != nil || st.Status != "running" || st.RemainingSeconds != 1500 {
		t.Fatalf("unexpected start %+v %v", st, err)
	}
	if _, err := uc.Start(ctx); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("start while running must fail, got %v", err)
	}
	h.clock.advance(5 * time.Minute)
	if st, err = uc.Pause(ctx); err != nil || st.RemainingSeconds != 1200 {
		t.Fatalf("unexpected pause %+v %v", st, err)
	}
	h.clock.advance(time.Hour)
	if st, err = uc.Resume(ctx); err != nil || st.RemainingSeconds != 1200 {
		t.Fatalf("unexpected resume %+v %v", st, err)
	}
	if h.store.saves != 3 {
		t.Fatalf("each transition must flush, got %d saves", h.store.saves)
	}
	if st, err = uc.Stop(ctx); err != nil || st.Status != "idle" || st.RemainingSeconds != 1500 {
		t.Fatalf("unexpected stop %+v %v", st, err)
	}
	if _, err := h.store.Load(ctx); !errors.Is(err, apperrors.ErrNoTimerState) {
		t.Fatalf("stop must remove the stored record, got %v", err)
	}
	if _, err := uc.Pause(ctx); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("pause from idle must fail, got %v", err)
	}
}

func TestTickCompletesExactlyOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	uc := h.open()
	if _, err := uc.SetDuration(ctx, 1); err != nil {
		t.Fatalf("set duration: %v", err)
	}
	if _, err := uc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.advance(59 * time.Second)
	out, _ := uc.Tick(ctx)
	if out.Completion != nil || out.Status.RemainingSeconds != 1 {
		t.Fatalf("unexpected early tick %+v", out)
	}
	h.clock.advance(time.Second)
	out, _ = uc.Tick(ctx)
	if out.Completion == nil || out.Status.Status != "completed" {
		t.Fatalf("expected completion, got %+v", out)
	}
	if out.Completion.EarnedCoins != 1 || !out.Completion.AwardCommitted || out.Completion.LoggedMinutes != 1 {
		t.Fatalf("unexpected completion %+v", out.Completion)
	}
	if h.cue.plays != 1 {
		t.Fatalf("cue must be attempted once, got %d", h.cue.plays)
	}
	h.clock.advance(time.Minute)
	if out, _ = uc.Tick(ctx); out.Completion != nil {
		t.Fatalf("completion must not repeat: %+v", out)
	}
	if got := h.ledger.awards(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected one award of 1, got %v", got)
	}
	if len(h.sessions.sessions) != 1 {
		t.Fatalf("expected one logged session, got %d", len(h.sessions.sessions))
	}
}

func TestActionsAfterExpiryCompleteTheRun(t *testing.T) {
	t.Parallel()
	actions := map[string]func(timerin.Usecase, context.Context) (dto.StatusOutput, error){
		"pause": timerin.Usecase.Pause,
		"stop":  timerin.Usecase.Stop,
	}
	for name, act := range actions {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			ctx := context.Background()
			uc := h.open()
			if _, err := uc.SetDuration(ctx, 1); err != nil {
				t.Fatalf("set duration: %v", err)
			}
			if _, err := uc.Start(ctx); err != nil {
				t.Fatalf("start: %v", err)
			}
			h.clock.advance(90 * time.Second)

			st, err := act(uc, ctx)
			if err != nil || st.Status != "completed" {
				t.Fatalf("%s after expiry: %+v %v", name, st, err)
			}
			if _, err := uc.Stop(ctx); !errors.Is(err, apperrors.ErrInvalidTransition) {
				t.Fatalf("stop after completion must be rejected, got %v", err)
			}
			if out, _ := uc.Tick(ctx); out.Completion != nil {
				t.Fatalf("completion must not repeat: %+v", out)
			}
			if got := h.ledger.awards(); len(got) != 1 || got[0] != 1 {
				t.Fatalf("expected one award of 1, got %v", got)
			}
			if len(h.sessions.sessions) != 1 {
				t.Fatalf("expected one logged session, got %d", len(h.sessions.sessions))
			}
			stored, err := h.store.Load(ctx)
			if err != nil || stored.Status != domain.StatusCompleted {
				t.Fatalf("completion must be persisted: %+v %v", stored, err)
			}
		})
	}
}

func TestRestoreCompletesPausedRecordWithNoTimeLeft(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	start := t0.Add(-2 * time.Minute).UnixMilli()
	paused := domain.State{
		Version:          domain.StateVersion,
		StartEpochMillis: &start,
		DurationSeconds:  60,
		Status:           domain.StatusPaused,
	}
	if err := h.store.StateStore.Save(ctx, paused); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out, err := h.open().Restore(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if out.Completion == nil || out.Status.Status != "completed" {
		t.Fatalf("expected the stale pause to complete, got %+v", out)
	}
	if got := h.ledger.awards(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected one award of 1, got %v", got)
	}
}

func TestReloadMidRunResumesWithReducedRemaining(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.open().Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.advance(10*time.Minute + 500*time.Millisecond)

	out, err := h.open().Restore(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !out.Resumed || out.Completion != nil || out.Status.RemainingSeconds != 900 {
		t.Fatalf("unexpected restore %+v", out)
	}
}

func TestReloadAfterExpiryCompletesOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.open().Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.advance(3 * time.Hour)

	out, err := h.open().Restore(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if out.Completion == nil || out.Status.Status != "completed" || out.Completion.EarnedCoins != 25 {
		t.Fatalf("expected completion on reload, got %+v", out)
	}
	session := h.sessions.sessions[0]
	if !session.StartedAt.Equal(t0) || !session.EndedAt.Equal(t0.Add(25*time.Minute)) || session.Minutes != 25 {
		t.Fatalf("session window must reflect the run, got %+v", session)
	}

	again, err := h.open().Restore(ctx)
	if err != nil {
		t.Fatalf("second restore: %v", err)
	}
	if again.Completion != nil || again.Status.Status != "completed" {
		t.Fatalf("completed state must not complete twice: %+v", again)
	}
	if got := h.ledger.awards(); len(got) != 1 || got[0] != 25 {
		t.Fatalf("expected exactly one award of 25, got %v", got)
	}
}

func TestReloadRestoresPausedVerbatim(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	uc := h.open()
	if _, err := uc.SetCategory(ctx, "chemistry"); err != nil {
		t.Fatalf("category: %v", err)
	}
	if _, err := uc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.advance(7 * time.Minute)
	if _, err := uc.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	h.clock.advance(48 * time.Hour)

	out, err := h.open().Restore(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if out.Status.Status != "paused" || out.Status.RemainingSeconds != 1080 || out.Status.Category != "chemistry" {
		t.Fatalf("unexpected paused restore %+v", out)
	}
}

func TestSetDurationIgnoredUnlessIdle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	uc := h.open()
	if _, err := uc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := uc.SetDuration(ctx, 45)
	if err != nil || out.Applied || out.Status.DurationSeconds != 1500 {
		t.Fatalf("expected ignored duration change, got %+v %v", out, err)
	}
	if _, err := uc.SetDuration(ctx, 601); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestTickFlushesAtMostOncePerSecond(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	uc := h.open()
	if _, err := uc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 4; i++ {
		h.clock.advance(300 * time.Millisecond)
		if _, err := uc.Tick(ctx); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	// start flush at 0ms; ticks at 300/600/900 are throttled, 1200 writes
	if h.store.saves != 2 {
		t.Fatalf("expected 2 saves, got %d", h.store.saves)
	}
}

func TestWriteFailureSwitchesToMemoryOnly(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.store.failErr = errors.New("quota exceeded")
	ctx := context.Background()
	uc := h.open()

	st, err := uc.Start(ctx)
	if err != nil {
		t.Fatalf("start must succeed in memory: %v", err)
	}
	if !st.MemoryOnly || st.Status != "running" {
		t.Fatalf("expected memory-only running timer, got %+v", st)
	}
	h.clock.advance(2 * time.Minute)
	if st, err = uc.Pause(ctx); err != nil || st.RemainingSeconds != 1380 {
		t.Fatalf("pause in memory: %+v %v", st, err)
	}
	if h.store.saves != 1 {
		t.Fatalf("storage must not be retried, got %d saves", h.store.saves)
	}
}

func TestCompletionWithoutUserStillCompletes(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.ledger.err = apperrors.ErrUnauthenticated
	ctx := context.Background()
	uc := h.open()
	if _, err := uc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.advance(25 * time.Minute)
	out, err := uc.Tick(ctx)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out.Status.Status != "completed" || out.Completion == nil || out.Completion.AwardCommitted || out.Completion.AwardError == "" {
		t.Fatalf("expected completion with failed award, got %+v", out)
	}
	if len(h.sessions.sessions) != 1 {
		t.Fatalf("session must still be logged")
	}
}

func TestRunDrivesTicksUntilCompletion(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	uc := h.open()
	if _, err := uc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.advance(30 * time.Minute)

	var last dto.TickOutput
	if err := uc.Run(ctx, func(out dto.TickOutput) { last = out }); err != nil {
		t.Fatalf("run: %v", err)
	}
	if last.Completion == nil || last.Status.Status != "completed" {
		t.Fatalf("run must end on completion, got %+v", last)
	}
	if err := uc.Run(ctx, nil); err != nil {
		t.Fatalf("run on a finished timer returns immediately: %v", err)
	}
}
