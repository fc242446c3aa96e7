package slug

import (
	"regexp"
	"strings"
)

var separators = regexp.MustCompile(`[^a-z0-9]+`)

// MaxLength bounds slugs used in file names.
const MaxLength = 48

// Make lowercases input and joins its alphanumeric runs with dashes, e.g.
// "Linear Algebra: Ch. 3" becomes "linear-algebra-ch-3". fallback is
// returned when nothing usable remains.
func Make(input, fallback string) string {
	s := separators.ReplaceAllString(strings.ToLower(input), "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	if s == "" {
		return fallback
	}
	return s
}
