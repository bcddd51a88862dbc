package calendar

import (
	"cmp"
	"slices"
)

// Compare orders events by date, then time, then id.
func Compare(a, b Event) int {
	if c := cmp.Compare(a.Date, b.Date); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Time, b.Time); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort orders events in place using Compare.
func Sort(events []Event) {
	slices.SortFunc(events, Compare)
}

// FilterByDate returns the events whose Date equals date, preserving order.
// The result is never nil.
func FilterByDate(events []Event, date string) []Event {
	out := make([]Event, 0)
	for _, e := range events {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out
}
