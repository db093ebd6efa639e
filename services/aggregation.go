package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"biletmaster/internal/status"
	"biletmaster/models"
	"biletmaster/monitoring"
)

// Fetcher downloads a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser turns downloaded pages into records.
type Parser interface {
	ParseLocations(page []byte) ([]models.Location, error)
	ParseEvents(page []byte) ([]models.Event, error)
}

// EventSource is the contract shared by the aggregation service and the
// caching decorator around it.
type EventSource interface {
	Locations(ctx context.Context) ([]models.Location, error)
	GroupedLocations(ctx context.Context, groupKeys []string) ([]models.Location, error)
	EventsForVenue(ctx context.Context, venue models.Venue) ([]models.Event, error)
	EventsForLocation(ctx context.Context, location models.Location) ([]models.Event, error)
}

type AggregationService struct {
	fetcher       Fetcher
	parser        Parser
	baseURL       string
	locationsPath string
	log           *slog.Logger
}

func NewAggregationService(fetcher Fetcher, parser Parser, baseURL, locationsPath string, log *slog.Logger) *AggregationService {
	return &AggregationService{
		fetcher:       fetcher,
		parser:        parser,
		baseURL:       strings.TrimRight(baseURL, "/"),
		locationsPath: locationsPath,
		log:           log,
	}
}

// Locations fetches and parses the page listing every location.
func (s *AggregationService) Locations(ctx context.Context) ([]models.Location, error) {
	start := time.Now()
	page, err := s.fetcher.Fetch(ctx, s.baseURL+s.locationsPath)
	monitoring.TrackFetch("locations", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return s.parser.ParseLocations(page)
}

// GroupedLocations fetches every location and merges them under groupKeys.
// See GroupLocations.
func (s *AggregationService) GroupedLocations(ctx context.Context, groupKeys []string) ([]models.Location, error) {
	locations, err := s.Locations(ctx)
	if err != nil {
		return nil, err
	}
	return GroupLocations(locations, groupKeys), nil
}

// EventsForVenue fetches one venue page. Every returned event has its
// Venue set to venue.
func (s *AggregationService) EventsForVenue(ctx context.Context, venue models.Venue) ([]models.Event, error) {
	start := time.Now()
	page, err := s.fetcher.Fetch(ctx, s.baseURL+venue.URL)
	monitoring.TrackFetch("venue", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	events, err := s.parser.ParseEvents(page)
	if err != nil {
		return nil, err
	}

	v := venue
	for i := range events {
		events[i].Venue = &v
	}
	return events, nil
}

// EventsForLocation fetches all venues of location concurrently and merges
// the results chronologically. The first venue failure cancels the others
// and fails the whole call; no partial result is returned.
func (s *AggregationService) EventsForLocation(ctx context.Context, location models.Location) ([]models.Event, error) {
	s.log.Debug("query events", "location", location.Name, "venues", len(location.Venues))

	results := make([][]models.Event, len(location.Venues))

	g, gctx := errgroup.WithContext(ctx)
	for i, venue := range location.Venues {
		i, venue := i, venue
		g.Go(func() error {
			events, err := s.EventsForVenue(gctx, venue)
			if err != nil {
				return &status.AggregationError{Location: location.Name, Venue: venue.Name, Err: err}
			}
			results[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("events for location failed", "location", location.Name, "error", err)
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	all := make([]models.Event, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}
	models.SortByDateTime(all)
	return all, nil
}

// GroupLocations merges locations whose name contains one of keys
// (case-insensitive). Keys are tried in order and the first match names
// the group; a location matching no key is grouped under its own name.
// Groups come out in order of first appearance, each holding the venues
// of its members in input order.
func GroupLocations(locations []models.Location, keys []string) []models.Location {
	var order []string
	venues := make(map[string][]models.Venue)

	for _, loc := range locations {
		name := groupName(loc, keys)
		if _, seen := venues[name]; !seen {
			order = append(order, name)
			venues[name] = []models.Venue{}
		}
		venues[name] = append(venues[name], loc.Venues...)
	}

	grouped := make([]models.Location, 0, len(order))
	for _, name := range order {
		grouped = append(grouped, models.NewLocation(name, venues[name]))
	}
	return grouped
}

func groupName(loc models.Location, keys []string) string {
	for _, key := range keys {
		if key != "" && loc.MatchesKey(key) {
			return key
		}
	}
	return loc.Name
}
