package clock

import "time"

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// EpochMillis converts t to milliseconds since the Unix epoch.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromEpochMillis is the inverse of EpochMillis, always in UTC.
func FromEpochMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
