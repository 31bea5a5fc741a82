package shared

import "time"

// DateOf truncates t to its calendar date, expressed as UTC midnight.
// Business dates (issue, due, delivery) are stored this way so day arithmetic ignores zones.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b. Negative if b is before a.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
