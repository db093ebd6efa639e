package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"biletmaster/models"
	"biletmaster/monitoring"
)

// CachedSource wraps an EventSource and keeps one snapshot per location.
// Location listings are not cached. A snapshot is written only after a
// successful fetch and never expires.
type CachedSource struct {
	source EventSource
	store  SnapshotStore
	log    *slog.Logger
}

func NewCachedSource(source EventSource, store SnapshotStore, log *slog.Logger) *CachedSource {
	return &CachedSource{source: source, store: store, log: log}
}

func (c *CachedSource) Locations(ctx context.Context) ([]models.Location, error) {
	return c.source.Locations(ctx)
}

func (c *CachedSource) GroupedLocations(ctx context.Context, groupKeys []string) ([]models.Location, error) {
	return c.source.GroupedLocations(ctx, groupKeys)
}

func (c *CachedSource) EventsForVenue(ctx context.Context, venue models.Venue) ([]models.Event, error) {
	return c.source.EventsForVenue(ctx, venue)
}

// EventsForLocation serves location from its snapshot when one exists.
// Events read from a snapshot have Cancelled=false and no Venue.
func (c *CachedSource) EventsForLocation(ctx context.Context, location models.Location) ([]models.Event, error) {
	key := location.Key()

	if events, ok := c.lookup(ctx, key, location.Name); ok {
		return events, nil
	}

	events, err := c.source.EventsForLocation(ctx, location)
	if err != nil {
		return nil, err
	}

	c.save(ctx, key, location.Name, events)
	return events, nil
}

func (c *CachedSource) lookup(ctx context.Context, key, name string) ([]models.Event, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("snapshot read failed", "location", name, "key", key, "error", err)
		monitoring.TrackCacheLookup("error")
		return nil, false
	}
	if !ok {
		monitoring.TrackCacheLookup("miss")
		return nil, false
	}

	var snaps []models.Snapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		c.log.Warn("corrupt snapshot", "location", name, "key", key, "error", err)
		monitoring.TrackCacheLookup("corrupt")
		return nil, false
	}
	events, err := models.FromSnapshots(snaps)
	if err != nil {
		c.log.Warn("corrupt snapshot", "location", name, "key", key, "error", err)
		monitoring.TrackCacheLookup("corrupt")
		return nil, false
	}

	monitoring.TrackCacheLookup("hit")
	return events, true
}

func (c *CachedSource) save(ctx context.Context, key, name string, events []models.Event) {
	data, err := json.Marshal(models.ToSnapshots(events))
	if err != nil {
		c.log.Warn("encode snapshot", "location", name, "error", err)
		return
	}
	if err := c.store.Put(ctx, key, data); err != nil {
		c.log.Warn("snapshot write failed", "location", name, "key", key, "error", err)
	}
}
