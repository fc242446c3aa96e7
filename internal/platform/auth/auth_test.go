package auth_test

import (
	"context"
	"testing"

	"studyhub/internal/platform/auth"
)

func TestSessionSignInOutNotifiesSubscribers(t *testing.T) {
	t.Parallel()
	session := auth.NewSession()
	if _, ok := session.CurrentUser(context.Background()); ok {
		t.Fatalf("fresh session must be signed out")
	}
	changes, cancel := session.Subscribe()
	defer cancel()

	session.SignIn(auth.User{ID: "u-1", Email: "u1@example.com"})
	got := <-changes
	if !got.SignedIn || got.User.ID != "u-1" {
		t.Fatalf("expected sign-in change, got %+v", got)
	}
	user, ok := session.CurrentUser(context.Background())
	if !ok || user.Email != "u1@example.com" {
		t.Fatalf("expected current user, got %+v %v", user, ok)
	}

	session.SignOut()
	got = <-changes
	if got.SignedIn || got.User.ID != "u-1" {
		t.Fatalf("expected sign-out change for u-1, got %+v", got)
	}
	session.SignOut()
	select {
	case extra := <-changes:
		t.Fatalf("second sign-out must not notify, got %+v", extra)
	default:
	}
}

func TestSubscribeReplaysCurrentUser(t *testing.T) {
	t.Parallel()
	session := auth.NewSession()
	session.SignIn(auth.User{ID: "u-2"})
	changes, cancel := session.Subscribe()
	got := <-changes
	if !got.SignedIn || got.User.ID != "u-2" {
		t.Fatalf("expected replayed sign-in, got %+v", got)
	}
	cancel()
	if _, open := <-changes; open {
		t.Fatalf("channel must be closed after cancel")
	}
	session.SignIn(auth.User{})
	if user, _ := session.CurrentUser(context.Background()); user.ID != "u-2" {
		t.Fatalf("empty sign-in must be ignored, got %+v", user)
	}
}
