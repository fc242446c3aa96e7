package out

import (
	"context"
	"sync"

	"studyhub/internal/modules/balancesync/domain"
	syncout "studyhub/internal/modules/balancesync/port/out"
	ledgerdomain "studyhub/internal/modules/ledger/domain"
	ledgerout "studyhub/internal/modules/ledger/port/out"
)

var (
	_ syncout.Subscriber         = (*MemoryBroker)(nil)
	_ ledgerout.BalancePublisher = (*MemoryBroker)(nil)
)

// MemoryBroker is the in-process push channel used when no Redis address
// is configured.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[string]map[int]*memorySubscription
	nextID int
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[string]map[int]*memorySubscription{}}
}

func (b *MemoryBroker) PublishBalance(_ context.Context, origin string, balance ledgerdomain.Balance) error {
	change := domain.BalanceChange{UserID: balance.UserID, Balance: balance.Amount, UpdatedAt: balance.UpdatedAt, Origin: origin}
	if err := change.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs[balance.UserID] {
		select {
		case sub.ch <- change:
		default:
			// full buffer: the subscriber sees the next absolute balance
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, userID string) (syncout.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	sub := &memorySubscription{broker: b, userID: userID, id: id, ch: make(chan domain.BalanceChange, 16)}
	if b.subs[userID] == nil {
		b.subs[userID] = map[int]*memorySubscription{}
	}
	b.subs[userID][id] = sub
	return sub, nil
}

// Drop closes every subscription for userID as if the connection was lost.
func (b *MemoryBroker) Drop(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subs[userID] {
		delete(b.subs[userID], id)
		sub.closeLocked()
	}
}

func (b *MemoryBroker) Subscribers(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}

type memorySubscription struct {
	broker *MemoryBroker
	userID string
	id     int
	ch     chan domain.BalanceChange
	closed bool
}

func (s *memorySubscription) Events() <-chan domain.BalanceChange {
	return s.ch
}

func (s *memorySubscription) Close() error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	delete(s.broker.subs[s.userID], s.id)
	s.closeLocked()
	return nil
}

func (s *memorySubscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
