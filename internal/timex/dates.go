package timex

import (
	"time"

	"github.com/dmitrijs2005/daybook/internal/common"
)

// DateKey returns the YYYY-MM-DD bucket of t in t's own location.
func DateKey(t time.Time) string {
	return t.Format(common.DateKeyLayout)
}

// ParseDateKey returns midnight of the given YYYY-MM-DD key in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(common.DateKeyLayout, key, loc)
}

// MergeDayAndTime keeps the calendar date of day and takes hours, minutes and
// seconds from clock. Sub-second precision is dropped.
func MergeDayAndTime(day, clock time.Time) time.Time {
	clock = clock.In(day.Location())
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, day.Location())
}

// FormatTime renders the 12-hour clock label shown next to entries, e.g.
// "09:05 PM".
func FormatTime(t time.Time) string {
	return t.Format("03:04 PM")
}

// SameDay reports whether a and b fall on the same calendar date in a's
// location.
func SameDay(a, b time.Time) bool {
	return DateKey(a) == DateKey(b.In(a.Location()))
}
