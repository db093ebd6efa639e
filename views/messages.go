package views

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"biletmaster/internal/status"
	"biletmaster/models"
)

// command is an inbound message from a remote client.
type command struct {
	Type     string `json:"type"` // "select" or "retry"
	Location string `json:"location,omitempty"`
}

type eventMessage struct {
	Name      string `json:"name"`
	Artist    string `json:"artist,omitempty"`
	Room      string `json:"room,omitempty"`
	Venue     string `json:"venue,omitempty"`
	DateTime  string `json:"datetime,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

func locationsMessage(locations []models.Location) map[string]any {
	names := make([]string, len(locations))
	for i, l := range locations {
		names[i] = l.Name
	}
	return map[string]any{"type": "locations", "locations": names}
}

func eventsMessage(events []models.Event) map[string]any {
	out := make([]eventMessage, 0, len(events))
	for _, e := range events {
		m := eventMessage{Name: e.Name, Artist: e.Artist, Room: e.Room, Cancelled: e.Cancelled}
		if e.DateTime != nil {
			m.DateTime = e.DateTime.Format(time.RFC3339)
		}
		if e.Venue != nil {
			m.Venue = e.Venue.Name
		}
		out = append(out, m)
	}
	return map[string]any{"type": "events", "events": out}
}

func offlineMessage(shown bool) map[string]any {
	return map[string]any{"type": "offline", "shown": shown}
}

func errorMessage() map[string]any { return map[string]any{"type": "error"} }

func decodeCommand(raw any) (command, error) {
	var cmd command
	data, err := json.Marshal(raw)
	if err != nil {
		return cmd, err
	}
	// a client may send the command as a JSON string
	if s, ok := raw.(string); ok {
		data = []byte(s)
	}
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, fmt.Errorf("decode command: %w", err)
	}
	return cmd, nil
}

// commandRouter turns remote commands into presenter input. Locations are
// selected by name among the last listing pushed to the client.
type commandRouter struct {
	selections chan models.Location
	retries    chan struct{}

	mu        sync.Mutex
	locations []models.Location
}

func newCommandRouter() *commandRouter {
	return &commandRouter{
		selections: make(chan models.Location),
		retries:    make(chan struct{}),
	}
}

func (r *commandRouter) remember(locations []models.Location) {
	r.mu.Lock()
	r.locations = append([]models.Location(nil), locations...)
	r.mu.Unlock()
}

func (r *commandRouter) lookup(name string) (models.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.locations {
		if strings.EqualFold(l.Name, name) {
			return l, nil
		}
	}
	return models.Location{}, fmt.Errorf("%q: %w", name, status.ErrUnknownLocation)
}

// dispatch blocks until the presenter takes the command or ctx is done.
// Commands that cannot be routed are returned as errors.
func (r *commandRouter) dispatch(ctx context.Context, cmd command) error {
	switch strings.ToLower(cmd.Type) {
	case "retry":
		select {
		case r.retries <- struct{}{}:
		case <-ctx.Done():
		}
		return nil
	case "select":
		location, err := r.lookup(cmd.Location)
		if err != nil {
			return err
		}
		select {
		case r.selections <- location:
		case <-ctx.Done():
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
}

func (r *commandRouter) close() {
	close(r.selections)
	close(r.retries)
}
