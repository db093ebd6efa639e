package models

import (
	"fmt"
	"time"
)

// Snapshot is the reduced projection of an Event kept in the cache.
// Venue and Cancelled are not stored: a snapshot read back always yields
// Cancelled=false and Venue=nil.
type Snapshot struct {
	Name     string `json:"name"`
	Artist   string `json:"artist,omitempty"`
	Room     string `json:"room,omitempty"`
	DateTime string `json:"datetime,omitempty"` // RFC 3339, empty when absent
}

// ToSnapshots projects events onto their cacheable form.
func ToSnapshots(events []Event) []Snapshot {
	out := make([]Snapshot, 0, len(events))
	for _, e := range events {
		s := Snapshot{Name: e.Name, Artist: e.Artist, Room: e.Room}
		if e.DateTime != nil {
			s.DateTime = e.DateTime.Format(time.RFC3339)
		}
		out = append(out, s)
	}
	return out
}

// FromSnapshots rebuilds events from cached snapshots.
func FromSnapshots(snaps []Snapshot) ([]Event, error) {
	out := make([]Event, 0, len(snaps))
	for i, s := range snaps {
		e := Event{Name: s.Name, Artist: s.Artist, Room: s.Room}
		if s.DateTime != "" {
			t, err := time.Parse(time.RFC3339, s.DateTime)
			if err != nil {
				return nil, fmt.Errorf("snapshot %d: parse datetime %q: %w", i, s.DateTime, err)
			}
			e.DateTime = &t
		}
		out = append(out, e)
	}
	return out, nil
}
