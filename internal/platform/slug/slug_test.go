package slug_test

import (
	"strings"
	"testing"

	"studyhub/internal/platform/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Linear Algebra: Ch. 3": "linear-algebra-ch-3",
		"  --Deep   Work--  ":   "deep-work",
		"?!.":                   "focus",
	}
	for in, want := range cases {
		if got := slug.Make(in, "focus"); got != want {
			t.Fatalf("Make(%q) = %q, want %q", in, got, want)
		}
	}
	long := slug.Make(strings.Repeat("ab ", 40), "focus")
	if len(long) > slug.MaxLength || strings.HasSuffix(long, "-") {
		t.Fatalf("unexpected long slug %q", long)
	}
}
