package intent

import (
	"strings"
	"time"
)

// ResolveDateRange maps a relative date token to a concrete DateRange,
// grounded on parser.py's _resolve_date_range: "today" and "tomorrow"
// resolve to a single-day range, "this_week" passes through as a
// Monday-Sunday range, anything else is returned unresolved with the token
// preserved for the caller to interpret.
func ResolveDateRange(token string, now time.Time) DateRange {
	token = strings.ToLower(strings.TrimSpace(token))
	startOfDay := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}

	switch token {
	case "today":
		day := startOfDay(now)
		return DateRange{Start: day, End: day.Add(24 * time.Hour), Token: token}
	case "tomorrow":
		day := startOfDay(now.Add(24 * time.Hour))
		return DateRange{Start: day, End: day.Add(24 * time.Hour), Token: token}
	case "this_week":
		day := startOfDay(now)
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7 // ISO: Sunday is end of week, not start
		}
		monday := day.Add(-time.Duration(weekday-1) * 24 * time.Hour)
		return DateRange{Start: monday, End: monday.Add(7 * 24 * time.Hour), Token: token}
	default:
		return DateRange{Token: token}
	}
}
