package service

import (
	"context"
	"errors"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"studyhub/internal/modules/timer/domain"
	timerout "studyhub/internal/modules/timer/port/out"
	"studyhub/internal/platform/clock"
	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/id"
	"studyhub/internal/platform/logging"
)

// FlushInterval throttles tick-driven writes.
const FlushInterval = time.Second

// TimerService owns persistence of the timer state. After the first failed
// write it stops touching storage for the rest of the process.
type TimerService struct {
	clock clock.Clock
	idGen id.Generator
	store timerout.StateStore
	log   hclog.Logger

	defaultDuration int

	mu         sync.Mutex
	memoryOnly bool
	lastFlush  time.Time
}

func NewTimerService(clock clock.Clock, idGen id.Generator, store timerout.StateStore, defaultMinutes int, logger hclog.Logger) *TimerService {
	return &TimerService{
		clock:           clock,
		idGen:           idGen,
		store:           store,
		log:             logging.OrNull(logger),
		defaultDuration: defaultMinutes * 60,
	}
}

func (s *TimerService) Now() time.Time {
	return s.clock.Now()
}

func (s *TimerService) DefaultState() domain.State {
	return domain.IdleState(s.defaultDuration)
}

// Load reads the stored state. A missing or undecodable record yields the
// default idle state; a read failure switches to memory-only.
func (s *TimerService) Load(ctx context.Context) domain.State {
	state, err := s.store.Load(ctx)
	switch {
	case err == nil:
		return state
	case errors.Is(err, apperrors.ErrNoTimerState):
		return s.DefaultState()
	case errors.Is(err, apperrors.ErrInvalidInput):
		s.log.Warn("discarding unreadable timer state", "error", err)
		return s.DefaultState()
	default:
		s.log.Error("timer state unavailable, continuing in memory", "error", err)
		s.setMemoryOnly()
		return s.DefaultState()
	}
}

// Flush writes state. Unforced flushes within FlushInterval of the last
// write are skipped.
func (s *TimerService) Flush(ctx context.Context, state domain.State, force bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memoryOnly {
		return
	}
	now := s.clock.Now()
	if !force && !s.lastFlush.IsZero() && now.Sub(s.lastFlush) < FlushInterval {
		return
	}
	state.UpdatedAtMillis = clock.EpochMillis(now)
	if err := s.store.Save(ctx, state); err != nil {
		s.log.Error("timer state write failed, continuing in memory", "error", err)
		s.memoryOnly = true
		return
	}
	s.lastFlush = now
}

func (s *TimerService) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memoryOnly {
		return
	}
	if err := s.store.Clear(ctx); err != nil {
		s.log.Error("timer state clear failed, continuing in memory", "error", err)
		s.memoryOnly = true
		return
	}
	s.lastFlush = time.Time{}
}

func (s *TimerService) MemoryOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memoryOnly
}

func (s *TimerService) setMemoryOnly() {
	s.mu.Lock()
	s.memoryOnly = true
	s.mu.Unlock()
}

// Session builds the study-session record for a completed state.
func (s *TimerService) Session(state domain.State) domain.StudySession {
	length := time.Duration(state.DurationSeconds) * time.Second
	started := state.StartedAt()
	if started.IsZero() {
		started = s.clock.Now().Add(-length)
	}
	ended := started.Add(length)
	return domain.StudySession{
		ID:        s.idGen.New(),
		Minutes:   domain.LoggedMinutes(state.DurationSeconds),
		Category:  state.Category(),
		StartedAt: started,
		EndedAt:   ended,
	}
}
