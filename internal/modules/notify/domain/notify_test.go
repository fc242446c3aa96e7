package domain_test

import (
	"testing"

	"studyhub/internal/modules/notify/domain"
)

func TestPreferenceDeliverable(t *testing.T) {
	t.Parallel()
	if (domain.Preference{Enabled: true}).Deliverable() {
		t.Fatalf("no contact must not be deliverable")
	}
	if (domain.Preference{Contact: "a@b.c"}).Deliverable() {
		t.Fatalf("opted-out must not be deliverable")
	}
	if !(domain.Preference{Enabled: true, Contact: "a@b.c"}).Deliverable() {
		t.Fatalf("enabled with contact must be deliverable")
	}
}

func TestNormalizeContact(t *testing.T) {
	t.Parallel()
	got, err := domain.NormalizeContact("  Ada <ADA@Example.com> ")
	if err != nil || got != "ada@example.com" {
		t.Fatalf("expected normalized address, got %q %v", got, err)
	}
	if got, err := domain.NormalizeContact(""); err != nil || got != "" {
		t.Fatalf("empty contact clears the channel, got %q %v", got, err)
	}
	if _, err := domain.NormalizeContact("not an address"); err == nil {
		t.Fatalf("garbage must fail")
	}
	if err := (domain.Message{}).Validate(); err == nil {
		t.Fatalf("empty message must fail validation")
	}
}
