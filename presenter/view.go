package presenter

import (
	"context"

	"biletmaster/models"
)

// Sink receives the output of a presenter session. The presenter calls it
// from a single goroutine, never concurrently.
type Sink interface {
	SetLocations(locations []models.Location)
	// SetEvents is called once per selection; each call is an independent
	// push, not a replacement of a single slot.
	SetEvents(events []models.Event)
	ShowOffline()
	HideOffline()
	ShowError()
}

// View is the display surface of a presenter session.
type View interface {
	Sink
	SelectedLocations() <-chan models.Location
	OfflineView() OfflineView
}

// OfflineView is the part of the view shown while the site is unreachable.
type OfflineView interface {
	Retries() <-chan struct{}
}

// Connectivity reports whether the site is reachable. Watch emits the
// current state first and closes the channel when ctx is done.
type Connectivity interface {
	Watch(ctx context.Context) <-chan bool
}

// Source is what the presenter needs from the (cached) aggregation service.
type Source interface {
	GroupedLocations(ctx context.Context, groupKeys []string) ([]models.Location, error)
	EventsForLocation(ctx context.Context, location models.Location) ([]models.Event, error)
}
