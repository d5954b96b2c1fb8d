package report

import "time"

// DueDateUnset is the display value for cards without a due timestamp.
const DueDateUnset = "Not set"

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTimestamp parses an ISO-8601 export timestamp. Trello emits RFC 3339
// with a trailing Z, but zone-less forms appear in older exports. A failed
// parse is not an error for the caller; the field is treated as absent.
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// civilDate truncates a timestamp to its UTC calendar date. Timestamps with a
// non-UTC offset land on the UTC day, not the day in their own zone; Trello
// exports are Z-suffixed so this only matters for hand-edited payloads.
func civilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole calendar days from a to b. Both arguments are
// truncated to civil dates first so elapsed clock time never leaks in.
func daysBetween(a, b time.Time) int {
	return int(civilDate(b).Sub(civilDate(a)) / (24 * time.Hour))
}

// formatDueDate renders a due timestamp as dd/mm/yyyy for report rows.
func formatDueDate(due string) string {
	t, ok := parseTimestamp(due)
	if !ok {
		return DueDateUnset
	}
	return t.Format("02/01/2006")
}

// Window is an inclusive calendar-date reporting period.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window from two timestamps, truncated to civil dates.
func NewWindow(start, end time.Time) Window {
	return Window{Start: civilDate(start), End: civilDate(end)}
}

// Contains reports whether the timestamp's calendar date falls inside the
// window, boundaries included.
func (w Window) Contains(t time.Time) bool {
	d := civilDate(t)
	return !d.Before(w.Start) && !d.After(w.End)
}
