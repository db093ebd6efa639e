package models

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Venue is a bookable site with its own listing page.
type Venue struct {
	Name string `json:"name"`
	URL  string `json:"url"` // relative to the site root
}

// Location groups the venues a user picks events for.
type Location struct {
	Name   string  `json:"name"`
	Venues []Venue `json:"venues"`
}

// NewLocation copies venues so the returned Location does not share
// backing storage with the caller.
func NewLocation(name string, venues []Venue) Location {
	vs := make([]Venue, len(venues))
	copy(vs, venues)
	return Location{Name: name, Venues: vs}
}

// Equal reports whether both locations have the same name and the same
// venues in the same order.
func (l Location) Equal(o Location) bool {
	if l.Name != o.Name || len(l.Venues) != len(o.Venues) {
		return false
	}
	for i := range l.Venues {
		if l.Venues[i] != o.Venues[i] {
			return false
		}
	}
	return true
}

// Key returns a stable hash of the location identity. Equal locations
// always produce the same key, across processes.
func (l Location) Key() string {
	h := xxhash.New()
	writeField(h, l.Name)
	for _, v := range l.Venues {
		writeField(h, v.Name)
		writeField(h, v.URL)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func writeField(h *xxhash.Digest, s string) {
	// length prefix keeps ("ab","c") and ("a","bc") apart
	_, _ = h.WriteString(strconv.Itoa(len(s)))
	_, _ = h.WriteString(":")
	_, _ = h.WriteString(s)
}

// MatchesKey reports whether the location name contains key, ignoring case.
func (l Location) MatchesKey(key string) bool {
	return strings.Contains(strings.ToUpper(l.Name), strings.ToUpper(key))
}
