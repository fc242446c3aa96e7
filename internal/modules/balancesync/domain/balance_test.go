package domain_test

import (
	"testing"
	"time"

	"studyhub/internal/modules/balancesync/domain"
)

func TestEncodeDecode(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	payload, err := domain.Encode(domain.BalanceChange{UserID: "u-1", Balance: 42, UpdatedAt: at, Origin: "proc-a"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(payload) != `{"userId":"u-1","balance":42,"updatedAtMillis":1772442000000,"origin":"proc-a"}` {
		t.Fatalf("unexpected wire format %s", payload)
	}
	got, err := domain.Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.UserID != "u-1" || got.Balance != 42 || !got.UpdatedAt.Equal(at) || got.Origin != "proc-a" {
		t.Fatalf("unexpected change %+v", got)
	}
}

func TestDecodeRejectsInvalidPayloads(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{`not json`, `{"balance":3}`, `{"userId":"u-1","balance":-1}`} {
		if _, err := domain.Decode([]byte(raw)); err == nil {
			t.Fatalf("expected error for %s", raw)
		}
	}
	if domain.Channel("u-1") != "studyhub:balance:u-1" {
		t.Fatalf("unexpected channel %s", domain.Channel("u-1"))
	}
}
