package domain_test

import (
	"testing"
	"time"

	"studyhub/internal/modules/ledger/domain"
)

func TestDetectMilestoneReportsFirstCrossing(t *testing.T) {
	t.Parallel()
	cases := []struct {
		prev, next int
		want       int
		ok         bool
	}{
		{25, 35, 30, true},
		{30, 40, 0, false},
		{29, 30, 30, true},
		{35, 59, 0, false},
		{0, 250, 30, true},
		{990, 1000, 1000, true},
		{1000, 5000, 0, false},
		{40, 40, 0, false},
	}
	for _, tc := range cases {
		got, ok := domain.DetectMilestone(tc.prev, tc.next)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("DetectMilestone(%d, %d) = %d,%v want %d,%v", tc.prev, tc.next, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMilestoneDescriptionRoundTrip(t *testing.T) {
	t.Parallel()
	desc := domain.MilestoneDescription(150)
	if desc != "milestone:150" {
		t.Fatalf("unexpected description %q", desc)
	}
	n, ok := domain.ParseMilestoneDescription(desc)
	if !ok || n != 150 {
		t.Fatalf("parse failed: %d %v", n, ok)
	}
	if _, ok := domain.ParseMilestoneDescription("Focus session: 25 minutes"); ok {
		t.Fatalf("non-milestone description must not parse")
	}
	marker := domain.MilestoneMarker("m-1", "u-1", 60, time.Time{})
	if marker.Amount != 0 || marker.Source != domain.SourceMilestone {
		t.Fatalf("marker must be a zero-amount milestone record: %+v", marker)
	}
}

func TestPrependHistoryIsBounded(t *testing.T) {
	t.Parallel()
	var history []domain.Transaction
	for i := 0; i < domain.HistoryLimit+5; i++ {
		history = domain.PrependHistory(history, domain.Transaction{Amount: i})
	}
	if len(history) != domain.HistoryLimit {
		t.Fatalf("expected %d entries, got %d", domain.HistoryLimit, len(history))
	}
	if history[0].Amount != domain.HistoryLimit+4 {
		t.Fatalf("most recent must come first, got %d", history[0].Amount)
	}
}

func TestParseSource(t *testing.T) {
	t.Parallel()
	if s, err := domain.ParseSource(" Task_Completion "); err != nil || s != domain.SourceTaskCompletion {
		t.Fatalf("expected task_completion, got %q %v", s, err)
	}
	if _, err := domain.ParseSource("spend"); err == nil {
		t.Fatalf("unknown source must fail")
	}
}
