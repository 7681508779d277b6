package util

import "time"

// Clock abstracts time.Now so quota math is deterministic in tests.
type Clock func() time.Time

// StartOfDay returns local midnight for the day containing t.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
