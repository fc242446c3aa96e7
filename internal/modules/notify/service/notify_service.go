package service

import (
	"context"
	"errors"
	"fmt"

	"studyhub/internal/modules/notify/domain"
	notifyout "studyhub/internal/modules/notify/port/out"
	"studyhub/internal/platform/clock"
	apperrors "studyhub/internal/platform/errors"
)

type NotifyService struct {
	clock  clock.Clock
	store  notifyout.PreferenceStore
	sender notifyout.Sender
}

func NewNotifyService(clock clock.Clock, store notifyout.PreferenceStore, sender notifyout.Sender) *NotifyService {
	return &NotifyService{clock: clock, store: store, sender: sender}
}

// Load returns the stored preference, or the opted-out default.
func (s *NotifyService) Load(ctx context.Context, userID string) (domain.Preference, error) {
	pref, err := s.store.Get(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.Preference{UserID: userID}, nil
	}
	if err != nil {
		return domain.Preference{}, err
	}
	return pref, nil
}

func (s *NotifyService) Save(ctx context.Context, pref domain.Preference) (domain.Preference, error) {
	pref.UpdatedAt = s.clock.Now()
	if err := s.store.Put(ctx, pref); err != nil {
		return domain.Preference{}, err
	}
	return pref, nil
}

func (s *NotifyService) Deliver(ctx context.Context, pref domain.Preference, msg domain.Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if s.sender == nil {
		return fmt.Errorf("no sender configured")
	}
	return s.sender.Send(ctx, pref.Contact, msg)
}
