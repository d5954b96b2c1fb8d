package report

import (
	"testing"
	"time"
)

func TestParseTimestampLayouts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{name: "rfc3339", in: "2025-03-10T12:30:00Z", ok: true},
		{name: "rfc3339Offset", in: "2025-03-10T12:30:00-03:00", ok: true},
		{name: "zoneLessFraction", in: "2025-03-10T12:30:00.000", ok: true},
		{name: "zoneLess", in: "2025-03-10T12:30:00", ok: true},
		{name: "dateOnly", in: "2025-03-10", ok: true},
		{name: "empty", in: "", ok: false},
		{name: "garbage", in: "not-a-date", ok: false},
		{name: "brazilianFormat", in: "10/03/2025", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseTimestamp(tt.in)
			if ok != tt.ok {
				t.Fatalf("parseTimestamp(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
		})
	}
}

func TestDaysBetweenUsesCalendarDays(t *testing.T) {
	// 23h50m of clock time but the calendar day changed: counts as one day.
	a := time.Date(2025, time.March, 10, 23, 55, 0, 0, time.UTC)
	b := time.Date(2025, time.March, 11, 23, 45, 0, 0, time.UTC)
	if got := daysBetween(a, b); got != 1 {
		t.Fatalf("daysBetween = %d, want 1", got)
	}

	// More than 24h of clock time within adjacent calendar days is still one day.
	a = time.Date(2025, time.March, 10, 1, 0, 0, 0, time.UTC)
	b = time.Date(2025, time.March, 11, 23, 0, 0, 0, time.UTC)
	if got := daysBetween(a, b); got != 1 {
		t.Fatalf("daysBetween = %d, want 1", got)
	}

	if got := daysBetween(b, a); got != -1 {
		t.Fatalf("daysBetween reversed = %d, want -1", got)
	}
}

func TestCivilDateUsesUTCDay(t *testing.T) {
	// 23:00 in UTC-5 is already the 11th in UTC; the civil date follows UTC.
	in, ok := parseTimestamp("2025-03-10T23:00:00-05:00")
	if !ok {
		t.Fatal("expected offset timestamp to parse")
	}
	got := civilDate(in)
	want := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("civilDate = %v, want %v", got, want)
	}
}

func TestFormatDueDate(t *testing.T) {
	if got := formatDueDate("2025-03-10T12:00:00Z"); got != "10/03/2025" {
		t.Fatalf("formatDueDate = %q", got)
	}
	if got := formatDueDate(""); got != DueDateUnset {
		t.Fatalf("formatDueDate empty = %q, want %q", got, DueDateUnset)
	}
	if got := formatDueDate("bogus"); got != DueDateUnset {
		t.Fatalf("formatDueDate bogus = %q, want %q", got, DueDateUnset)
	}
}

func TestWindowContainsInclusiveBoundaries(t *testing.T) {
	w := NewWindow(
		time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 31, 10, 0, 0, 0, time.UTC),
	)

	tests := []struct {
		name string
		in   time.Time
		want bool
	}{
		{name: "startDayEarlyClock", in: time.Date(2025, time.March, 1, 0, 0, 1, 0, time.UTC), want: true},
		{name: "endDayLateClock", in: time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC), want: true},
		{name: "middle", in: time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC), want: true},
		{name: "dayBefore", in: time.Date(2025, time.February, 28, 23, 59, 59, 0, time.UTC), want: false},
		{name: "dayAfter", in: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.in); got != tt.want {
				t.Fatalf("Contains(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
