package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"studyhub/internal/modules/notify/domain"
	notifydto "studyhub/internal/modules/notify/dto"
	"studyhub/internal/modules/notify/service"
	"studyhub/internal/modules/notify/usecase"
	"studyhub/internal/platform/auth"
	apperrors "studyhub/internal/platform/errors"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type memoryPrefs struct {
	prefs   map[string]domain.Preference
	failPut error
	puts    int
}

func newMemoryPrefs() *memoryPrefs {
	return &memoryPrefs{prefs: map[string]domain.Preference{}}
}

func (m *memoryPrefs) Get(_ context.Context, userID string) (domain.Preference, error) {
	p, ok := m.prefs[userID]
	if !ok {
		return domain.Preference{}, apperrors.ErrNotFound
	}
	return p, nil
}

func (m *memoryPrefs) Put(_ context.Context, pref domain.Preference) error {
	m.puts++
	if m.failPut != nil {
		return m.failPut
	}
	m.prefs[pref.UserID] = pref
	return nil
}

type recordingSender struct {
	sent []string
	err  error
}

func (r *recordingSender) Send(_ context.Context, contact string, msg domain.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, contact+"|"+msg.Subject)
	return nil
}

func newInteractor(store *memoryPrefs, sender *recordingSender, user string) *usecase.Interactor {
	clk := fixedClock{at: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	uc := usecase.NewInteractor(service.NewNotifyService(clk, store, sender), auth.Static{User: auth.User{ID: user}}, nil)
	return uc.(*usecase.Interactor)
}

func TestSendSkipsWithoutOptInOrContact(t *testing.T) {
	t.Parallel()
	store := newMemoryPrefs()
	sender := &recordingSender{}
	uc := newInteractor(store, sender, "u-1")

	out := uc.Send(context.Background(), notifydto.SendInput{Subject: "hello"})
	if out.Outcome != notifydto.SendSkipped {
		t.Fatalf("expected skip without preference, got %+v", out)
	}
	if _, err := uc.SetEnabled(context.Background(), true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	out = uc.Send(context.Background(), notifydto.SendInput{Subject: "hello"})
	if out.Outcome != notifydto.SendSkipped || out.Reason != "no contact" {
		t.Fatalf("expected skip without contact, got %+v", out)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing must be sent, got %v", sender.sent)
	}
}

func TestSendDeliversAndReportsFailure(t *testing.T) {
	t.Parallel()
	store := newMemoryPrefs()
	store.prefs["u-1"] = domain.Preference{UserID: "u-1", Enabled: true, Contact: "ada@example.com"}
	sender := &recordingSender{}
	uc := newInteractor(store, sender, "u-1")

	if out := uc.Send(context.Background(), notifydto.SendInput{Subject: "Milestone"}); out.Outcome != notifydto.SendSent {
		t.Fatalf("expected sent, got %+v", out)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "ada@example.com|Milestone" {
		t.Fatalf("unexpected deliveries %v", sender.sent)
	}
	sender.err = errors.New("smtp down")
	if out := uc.Send(context.Background(), notifydto.SendInput{Subject: "Milestone"}); out.Outcome != notifydto.SendFailed {
		t.Fatalf("expected failure outcome, got %+v", out)
	}
}

func TestSendWithoutUserIsSkipped(t *testing.T) {
	t.Parallel()
	uc := newInteractor(newMemoryPrefs(), &recordingSender{}, "")
	if out := uc.Send(context.Background(), notifydto.SendInput{Subject: "x"}); out.Outcome != notifydto.SendSkipped {
		t.Fatalf("expected skip, got %+v", out)
	}
	if _, err := uc.Preferences(context.Background()); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestToggleRollsBackOnWriteFailure(t *testing.T) {
	t.Parallel()
	store := newMemoryPrefs()
	uc := newInteractor(store, &recordingSender{}, "u-1")

	res, err := uc.SetContact(context.Background(), "Ada <ada@example.com>")
	if err != nil {
		t.Fatalf("set contact: %v", err)
	}
	if res.Outcome != notifydto.ToggleCommitted || res.Current.Contact != "ada@example.com" {
		t.Fatalf("expected committed contact, got %+v", res)
	}

	store.failPut = errors.New("offline")
	res, err = uc.SetEnabled(context.Background(), true)
	if err != nil {
		t.Fatalf("rollback must not be an error: %v", err)
	}
	if res.Outcome != notifydto.ToggleRolledBack || !res.Tentative.Enabled || res.Current.Enabled {
		t.Fatalf("expected rolled back toggle, got %+v", res)
	}
	pref, err := uc.Preferences(context.Background())
	if err != nil {
		t.Fatalf("preferences: %v", err)
	}
	if pref.Enabled {
		t.Fatalf("cached preference must keep the committed state")
	}
	if _, err := uc.SetContact(context.Background(), "nope"); err == nil {
		t.Fatalf("invalid contact must fail")
	}
}
