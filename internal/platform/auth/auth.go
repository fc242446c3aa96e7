package auth

import (
	"context"
	"sync"
)

// User is the authenticated actor every ledger and timer-completion
// operation is attributed to.
type User struct {
	ID    string
	Email string
}

// Context exposes the current user, if any.
type Context interface {
	CurrentUser(ctx context.Context) (User, bool)
}

// Lifecycle publishes sign-in and sign-out transitions.
type Lifecycle interface {
	Subscribe() (<-chan Change, func())
}

// Change describes a sign-in (SignedIn=true) or sign-out transition.
type Change struct {
	User     User
	SignedIn bool
}

// Session is an in-process auth context. Listeners registered with
// Subscribe observe sign-in and sign-out transitions in order.
type Session struct {
	mu        sync.RWMutex
	user      User
	signedIn  bool
	listeners map[int]chan Change
	nextID    int
}

func NewSession() *Session {
	return &Session{listeners: map[int]chan Change{}}
}

func (s *Session) CurrentUser(_ context.Context) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.signedIn
}

func (s *Session) SignIn(user User) {
	if user.ID == "" {
		return
	}
	s.mu.Lock()
	s.user = user
	s.signedIn = true
	s.broadcastLocked(Change{User: user, SignedIn: true})
	s.mu.Unlock()
}

func (s *Session) SignOut() {
	s.mu.Lock()
	if !s.signedIn {
		s.mu.Unlock()
		return
	}
	prev := s.user
	s.user = User{}
	s.signedIn = false
	s.broadcastLocked(Change{User: prev, SignedIn: false})
	s.mu.Unlock()
}

// Subscribe returns a channel that first receives the current state (when
// signed in) and then every later transition. The returned func unsubscribes.
func (s *Session) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 8)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = ch
	if s.signedIn {
		ch <- Change{User: s.user, SignedIn: true}
	}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			close(ch)
			s.mu.Unlock()
		})
	}
}

func (s *Session) broadcastLocked(change Change) {
	for _, ch := range s.listeners {
		select {
		case ch <- change:
		default:
			// slow listener; it will catch up from CurrentUser
		}
	}
}

// Static is a fixed auth context, mostly for tests.
type Static struct {
	User User
}

func (s Static) CurrentUser(_ context.Context) (User, bool) {
	return s.User, s.User.ID != ""
}
