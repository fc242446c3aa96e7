package domain

import (
	"fmt"
	"time"
)

// DayLayout is the calendar-day key stored per activity row.
const DayLayout = "2006-01-02"

type Activity struct {
	UserID    string
	Day       string
	CreatedAt time.Time
}

// DayOf returns the calendar day of t in loc.
func DayOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayLayout)
}

func ParseDay(raw string) (time.Time, error) {
	d, err := time.Parse(DayLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", raw, err)
	}
	return d, nil
}

// CountStreak counts consecutive days ending at today that appear in days.
// It is 0 when today itself has no activity. Duplicates and malformed
// entries are ignored.
func CountStreak(days []string, today string) int {
	seen := make(map[string]struct{}, len(days))
	for _, d := range days {
		seen[d] = struct{}{}
	}
	cursor, err := ParseDay(today)
	if err != nil {
		return 0
	}
	n := 0
	for {
		if _, ok := seen[cursor.Format(DayLayout)]; !ok {
			return n
		}
		n++
		cursor = cursor.AddDate(0, 0, -1)
	}
}

// BonusFor is the coin bonus for reaching streak. 3 and 5 day streaks pay
// 10 and 20; every multiple of 7 pays 30.
func BonusFor(streak int) int {
	switch {
	case streak == 3:
		return 10
	case streak == 5:
		return 20
	case streak > 0 && streak%7 == 0:
		return 30
	default:
		return 0
	}
}
