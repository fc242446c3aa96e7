package out_test

import (
	"context"
	"os"
	"testing"
	"time"

	syncadapter "studyhub/internal/modules/balancesync/adapter/out"
	ledgerdomain "studyhub/internal/modules/ledger/domain"
	"studyhub/internal/platform/config"
	"studyhub/internal/platform/database"
)

func TestMemoryBrokerDeliversPerUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	broker := syncadapter.NewMemoryBroker()
	sub, err := broker.Subscribe(ctx, "u-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := broker.PublishBalance(ctx, "proc-a", ledgerdomain.Balance{UserID: "u-2", Amount: 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := broker.PublishBalance(ctx, "proc-a", ledgerdomain.Balance{UserID: "u-1", Amount: 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	change := <-sub.Events()
	if change.Balance != 7 || change.Origin != "proc-a" {
		t.Fatalf("unexpected change %+v", change)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := <-sub.Events(); ok {
		t.Fatalf("events must close")
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := broker.PublishBalance(ctx, "proc-a", ledgerdomain.Balance{UserID: "", Amount: 7}); err == nil {
		t.Fatalf("expected validation error for missing user")
	}
}

// Needs a reachable Redis; set STUDYHUB_TEST_REDIS_ADDR to run.
func TestRedisChannelRoundTrip(t *testing.T) {
	addr := os.Getenv("STUDYHUB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STUDYHUB_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := database.OpenRedis(ctx, config.RedisConfig{Address: addr})
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	defer client.Close()

	channel := syncadapter.NewRedisChannel(client, nil)
	sub, err := channel.Subscribe(ctx, "it-user")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if err := channel.PublishBalance(ctx, "proc-a", ledgerdomain.Balance{UserID: "it-user", Amount: 12, UpdatedAt: at}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case change := <-sub.Events():
		if change.Balance != 12 || !change.UpdatedAt.Equal(at) {
			t.Fatalf("unexpected change %+v", change)
		}
	case <-ctx.Done():
		t.Fatalf("no message received")
	}
}
