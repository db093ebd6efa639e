// Package parser turns listing pages into locations and events.
//
// Locations page:
//
//	<div id="places">
//	  <div class="place">
//	    <h3 class="place-name">Cluj-Napoca</h3>
//	    <a class="venue" href="/ron/Venue/12/Opera">Opera</a> ...
//	  </div> ...
//	</div>
//
// Venue page:
//
//	<div id="events">
//	  <div class="event [cancelled]">
//	    <span class="event-name">Tosca</span>
//	    <span class="event-artist">…</span>
//	    <span class="event-room">…</span>
//	    <time class="event-date" datetime="2016-05-12T19:00">12 mai 19:00</time>
//	    <span class="event-status">Anulat</span>
//	  </div> ...
//	</div>
package parser

import (
	"bytes"
	"strings"
	"time"

	"golang.org/x/net/html"

	"biletmaster/internal/status"
	"biletmaster/models"
)

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006.01.02 15:04",
	"02.01.2006 15:04",
	"2006-01-02",
}

var cancelledMarkers = []string{"anulat", "cancelled", "canceled"}

// HTMLParser parses pages of the ticketing site. Dates without an explicit
// offset are read in loc.
type HTMLParser struct {
	loc *time.Location
}

func NewHTMLParser(loc *time.Location) *HTMLParser {
	if loc == nil {
		loc = time.UTC
	}
	return &HTMLParser{loc: loc}
}

func (p *HTMLParser) ParseLocations(page []byte) ([]models.Location, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, &status.ParseError{What: "locations", Err: err}
	}
	container := findFirst(root, func(n *html.Node) bool { return attr(n, "id") == "places" })
	if container == nil {
		return nil, &status.ParseError{What: "locations", Err: status.ErrMalformedPage}
	}

	var locations []models.Location
	for _, place := range findAll(container, hasClass("place")) {
		nameNode := findFirst(place, hasClass("place-name"))
		if nameNode == nil {
			continue
		}
		name := text(nameNode)
		if name == "" {
			continue
		}

		var venues []models.Venue
		for _, a := range findAll(place, hasClass("venue")) {
			href := attr(a, "href")
			if href == "" {
				continue
			}
			venues = append(venues, models.Venue{Name: text(a), URL: href})
		}
		// a place without sub venues links straight to its own listing
		if len(venues) == 0 {
			if a := findFirst(nameNode, isElement("a")); a != nil && attr(a, "href") != "" {
				venues = append(venues, models.Venue{Name: name, URL: attr(a, "href")})
			}
		}
		locations = append(locations, models.NewLocation(name, venues))
	}
	return locations, nil
}

func (p *HTMLParser) ParseEvents(page []byte) ([]models.Event, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, &status.ParseError{What: "events", Err: err}
	}
	container := findFirst(root, func(n *html.Node) bool { return attr(n, "id") == "events" })
	if container == nil {
		return nil, &status.ParseError{What: "events", Err: status.ErrMalformedPage}
	}

	var events []models.Event
	for _, n := range findAll(container, hasClass("event")) {
		ev := models.Event{
			Name:   childText(n, "event-name"),
			Artist: childText(n, "event-artist"),
			Room:   childText(n, "event-room"),
		}
		if ev.Name == "" {
			continue
		}
		if d := findFirst(n, hasClass("event-date")); d != nil {
			ev.DateTime = p.parseDate(d)
		}
		ev.Cancelled = hasClass("cancelled")(n) || isCancelled(childText(n, "event-status"))
		events = append(events, ev)
	}
	return events, nil
}

func (p *HTMLParser) parseDate(n *html.Node) *time.Time {
	for _, raw := range []string{attr(n, "datetime"), text(n)} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t
		}
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, raw, p.loc); err == nil {
				return &t
			}
		}
	}
	return nil
}

func isCancelled(s string) bool {
	s = strings.ToLower(s)
	for _, m := range cancelledMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// DOM helpers

func isElement(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == tag }
}

func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns matching descendants in document order without
// descending into matches.
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			out = append(out, c)
			continue
		}
		out = append(out, findAll(c, match)...)
	}
	return out
}

func childText(n *html.Node, class string) string {
	if c := findFirst(n, hasClass(class)); c != nil {
		return text(c)
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
