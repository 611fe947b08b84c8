package board

import (
	"math"
	"strings"
	"time"
)

// Deadline layouts accepted from the feed. Sources mix ISO dates with
// day-first separators, so all three are tried in order.
var deadlineLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
}

// ParseDeadline parses a feed deadline string in the local time zone.
// Anything unparsable (including "", "N/A") means "no deadline" — the
// listing never expires by date. That is not an error condition.
func ParseDeadline(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// endOfDay returns the last representable millisecond of d's calendar day.
// A listing stays open through its entire deadline day.
func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999e6, d.Location())
}

// DaysLeft returns ceil((endOfDay(deadline)-now)/24h) and whether the
// listing carries a parsable deadline at all.
func DaysLeft(deadline string, now time.Time) (int, bool) {
	d, ok := ParseDeadline(deadline)
	if !ok {
		return 0, false
	}
	diff := endOfDay(d).Sub(now)
	return int(math.Ceil(diff.Hours() / 24)), true
}

// Expired reports whether the deadline day has fully passed. Listings
// without a parsable deadline never expire.
func Expired(deadline string, now time.Time) bool {
	d, ok := ParseDeadline(deadline)
	if !ok {
		return false
	}
	return endOfDay(d).Before(now)
}
