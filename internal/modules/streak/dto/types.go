package dto

type RecordOutput struct {
	Day      string
	Recorded bool
}

type StreakOutput struct {
	Today string
	Days  int
}

// RefreshOutput reports one Refresh pass. Seeded is set when Previous was
// read from the store rather than remembered from an earlier pass.
// AlreadyPaid is set when another process claimed today's bonus first.
type RefreshOutput struct {
	Today       string
	Previous    int
	Streak      int
	Seeded      bool
	Bonus       int
	Awarded     bool
	AlreadyPaid bool
}
