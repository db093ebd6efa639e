package models

import (
	"sort"
	"time"
)

// Event is a single listing scraped from a venue page.
// DateTime is nil when the page did not carry a parseable date.
type Event struct {
	Name      string     `json:"name"`
	Artist    string     `json:"artist,omitempty"`
	Room      string     `json:"room,omitempty"`
	DateTime  *time.Time `json:"datetime,omitempty"`
	Cancelled bool       `json:"cancelled"`
	Venue     *Venue     `json:"venue,omitempty"` // set once by the aggregation layer
}

// CompareByDateTime orders events chronologically. Events without a date
// sort after every dated event; two undated events compare equal.
func CompareByDateTime(a, b Event) int {
	switch {
	case a.DateTime == nil && b.DateTime == nil:
		return 0
	case a.DateTime == nil:
		return 1
	case b.DateTime == nil:
		return -1
	}
	return a.DateTime.Compare(*b.DateTime)
}

// SortByDateTime sorts events in place, keeping the input order of events
// that compare equal.
func SortByDateTime(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return CompareByDateTime(events[i], events[j]) < 0
	})
}
