package usecase

import (
	"context"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	"studyhub/internal/modules/notify/domain"
	notifydto "studyhub/internal/modules/notify/dto"
	notifyin "studyhub/internal/modules/notify/port/in"
	"studyhub/internal/modules/notify/service"
	"studyhub/internal/platform/auth"
	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/logging"
)

type Interactor struct {
	svc  *service.NotifyService
	auth auth.Context
	log  hclog.Logger

	mu     sync.Mutex
	cached map[string]domain.Preference
}

func NewInteractor(svc *service.NotifyService, authCtx auth.Context, logger hclog.Logger) notifyin.Usecase {
	return &Interactor{
		svc:    svc,
		auth:   authCtx,
		log:    logging.OrNull(logger).Named("notify"),
		cached: map[string]domain.Preference{},
	}
}

func (i *Interactor) Send(ctx context.Context, input notifydto.SendInput) notifydto.SendOutput {
	user, ok := i.auth.CurrentUser(ctx)
	if !ok {
		return notifydto.SendOutput{Outcome: notifydto.SendSkipped, Reason: "no user"}
	}
	pref, err := i.preference(ctx, user.ID)
	if err != nil {
		i.log.Warn("load notification preference", "user_id", user.ID, "error", err)
		return notifydto.SendOutput{Outcome: notifydto.SendFailed, Reason: err.Error()}
	}
	if !pref.Enabled {
		return notifydto.SendOutput{Outcome: notifydto.SendSkipped, Reason: "not opted in"}
	}
	if pref.Contact == "" {
		return notifydto.SendOutput{Outcome: notifydto.SendSkipped, Reason: "no contact"}
	}
	if err := i.svc.Deliver(ctx, pref, domain.Message{Subject: input.Subject, Body: input.Body}); err != nil {
		i.log.Warn("notification failed", "user_id", user.ID, "subject", input.Subject, "error", err)
		return notifydto.SendOutput{Outcome: notifydto.SendFailed, Reason: err.Error()}
	}
	i.log.Debug("notification sent", "user_id", user.ID, "subject", input.Subject)
	return notifydto.SendOutput{Outcome: notifydto.SendSent}
}

func (i *Interactor) Preferences(ctx context.Context) (notifydto.PreferenceOutput, error) {
	user, ok := i.auth.CurrentUser(ctx)
	if !ok {
		return notifydto.PreferenceOutput{}, apperrors.ErrUnauthenticated
	}
	pref, err := i.preference(ctx, user.ID)
	if err != nil {
		return notifydto.PreferenceOutput{}, err
	}
	return toOutput(pref), nil
}

func (i *Interactor) SetEnabled(ctx context.Context, enabled bool) (notifydto.ToggleResult, error) {
	return i.update(ctx, func(p domain.Preference) (domain.Preference, error) {
		p.Enabled = enabled
		return p, nil
	})
}

func (i *Interactor) SetContact(ctx context.Context, contact string) (notifydto.ToggleResult, error) {
	normalized, err := domain.NormalizeContact(contact)
	if err != nil {
		return notifydto.ToggleResult{}, err
	}
	return i.update(ctx, func(p domain.Preference) (domain.Preference, error) {
		p.Contact = normalized
		return p, nil
	})
}

// update computes the tentative preference, writes it, and only then
// replaces the cached value; a failed write leaves the cache untouched.
func (i *Interactor) update(ctx context.Context, mutate func(domain.Preference) (domain.Preference, error)) (notifydto.ToggleResult, error) {
	user, ok := i.auth.CurrentUser(ctx)
	if !ok {
		return notifydto.ToggleResult{}, apperrors.ErrUnauthenticated
	}
	current, err := i.preference(ctx, user.ID)
	if err != nil {
		return notifydto.ToggleResult{}, err
	}
	tentative, err := mutate(current)
	if err != nil {
		return notifydto.ToggleResult{}, err
	}
	saved, err := i.svc.Save(ctx, tentative)
	if err != nil {
		i.log.Warn("preference write rolled back", "user_id", user.ID, "error", err)
		return notifydto.ToggleResult{
			Outcome:   notifydto.ToggleRolledBack,
			Tentative: toOutput(tentative),
			Current:   toOutput(current),
			Reason:    err.Error(),
		}, nil
	}
	i.mu.Lock()
	i.cached[user.ID] = saved
	i.mu.Unlock()
	return notifydto.ToggleResult{
		Outcome:   notifydto.ToggleCommitted,
		Tentative: toOutput(tentative),
		Current:   toOutput(saved),
	}, nil
}

func (i *Interactor) preference(ctx context.Context, userID string) (domain.Preference, error) {
	i.mu.Lock()
	pref, ok := i.cached[userID]
	i.mu.Unlock()
	if ok {
		return pref, nil
	}
	pref, err := i.svc.Load(ctx, userID)
	if err != nil {
		return domain.Preference{}, err
	}
	i.mu.Lock()
	i.cached[userID] = pref
	i.mu.Unlock()
	return pref, nil
}

func toOutput(p domain.Preference) notifydto.PreferenceOutput {
	return notifydto.PreferenceOutput{UserID: p.UserID, Enabled: p.Enabled, Contact: p.Contact, UpdatedAt: p.UpdatedAt}
}
