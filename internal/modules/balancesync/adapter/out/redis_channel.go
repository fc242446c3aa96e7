package out

import (
	"context"
	"fmt"
	"sync"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"

	"studyhub/internal/modules/balancesync/domain"
	syncout "studyhub/internal/modules/balancesync/port/out"
	ledgerdomain "studyhub/internal/modules/ledger/domain"
	ledgerout "studyhub/internal/modules/ledger/port/out"
	"studyhub/internal/platform/logging"
)

var (
	_ syncout.Subscriber         = (*RedisChannel)(nil)
	_ ledgerout.BalancePublisher = (*RedisChannel)(nil)
)

// RedisChannel publishes and subscribes balance changes over Redis pub/sub.
type RedisChannel struct {
	client redis.UniversalClient
	log    hclog.Logger
}

func NewRedisChannel(client redis.UniversalClient, logger hclog.Logger) *RedisChannel {
	return &RedisChannel{client: client, log: logging.OrNull(logger).Named("redis")}
}

func (r *RedisChannel) PublishBalance(ctx context.Context, origin string, balance ledgerdomain.Balance) error {
	payload, err := domain.Encode(domain.BalanceChange{
		UserID:    balance.UserID,
		Balance:   balance.Amount,
		UpdatedAt: balance.UpdatedAt,
		Origin:    origin,
	})
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, domain.Channel(balance.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish balance: %w", err)
	}
	return nil
}

func (r *RedisChannel) Subscribe(ctx context.Context, userID string) (syncout.Subscription, error) {
	channel := domain.Channel(userID)
	ps := r.client.Subscribe(ctx, channel)
	// wait for the subscription confirmation so connection errors surface here
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	sub := &redisSubscription{
		ps:     ps,
		events: make(chan domain.BalanceChange, 16),
		done:   make(chan struct{}),
	}
	go sub.forward(r.log.With("channel", channel))
	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan domain.BalanceChange
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) forward(log hclog.Logger) {
	defer close(s.events)
	for msg := range s.ps.Channel() {
		change, err := domain.Decode([]byte(msg.Payload))
		if err != nil {
			log.Warn("dropping malformed balance message", "error", err)
			continue
		}
		select {
		case s.events <- change:
		case <-s.done:
			return
		}
	}
}

func (s *redisSubscription) Events() <-chan domain.BalanceChange {
	return s.events
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
