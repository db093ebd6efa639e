package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"biletmaster/internal/status"
	"biletmaster/models"
	"biletmaster/services"
)

type EventsHandler struct {
	source    services.EventSource
	groupKeys []string
	log       *slog.Logger
}

func NewEventsHandler(source services.EventSource, groupKeys []string, log *slog.Logger) *EventsHandler {
	return &EventsHandler{
		source:    source,
		groupKeys: groupKeys,
		log:       log,
	}
}

type locationResponse struct {
	Name   string         `json:"name"`
	Key    string         `json:"key"`
	Venues []models.Venue `json:"venues"`
}

type eventResponse struct {
	Name      string     `json:"name"`
	Artist    string     `json:"artist,omitempty"`
	Room      string     `json:"room,omitempty"`
	Venue     string     `json:"venue,omitempty"`
	DateTime  *time.Time `json:"datetime"`
	Cancelled bool       `json:"cancelled"`
}

// GetLocations lists the grouped locations.
func (h *EventsHandler) GetLocations(c echo.Context) error {
	locations, err := h.source.GroupedLocations(c.Request().Context(), h.groupKeys)
	if err != nil {
		return h.upstreamError(c, "list locations", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"locations": toLocationResponses(locations),
	})
}

// GetRawLocations lists locations exactly as the site publishes them.
func (h *EventsHandler) GetRawLocations(c echo.Context) error {
	locations, err := h.source.Locations(c.Request().Context())
	if err != nil {
		return h.upstreamError(c, "list raw locations", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"locations": toLocationResponses(locations),
	})
}

// GetEvents returns the events of one grouped location, oldest first.
// Query: location=<name>, optional venue=<name> to restrict to one venue.
func (h *EventsHandler) GetEvents(c echo.Context) error {
	ctx := c.Request().Context()

	name := strings.TrimSpace(c.QueryParam("location"))
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "location is required",
		})
	}

	locations, err := h.source.GroupedLocations(ctx, h.groupKeys)
	if err != nil {
		return h.upstreamError(c, "list locations", err)
	}
	location, err := findLocation(locations, name)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": err.Error(),
		})
	}

	var events []models.Event
	if venueName := strings.TrimSpace(c.QueryParam("venue")); venueName != "" {
		venue, ok := findVenue(location, venueName)
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "venue not found in " + location.Name,
			})
		}
		events, err = h.source.EventsForVenue(ctx, venue)
	} else {
		events, err = h.source.EventsForLocation(ctx, location)
	}
	if err != nil {
		return h.upstreamError(c, "list events", err)
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		r := eventResponse{
			Name:      e.Name,
			Artist:    e.Artist,
			Room:      e.Room,
			DateTime:  e.DateTime,
			Cancelled: e.Cancelled,
		}
		if e.Venue != nil {
			r.Venue = e.Venue.Name
		}
		out = append(out, r)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"location": location.Name,
		"events":   out,
	})
}

func (h *EventsHandler) upstreamError(c echo.Context, op string, err error) error {
	h.log.Warn(op, "error", err)

	code := http.StatusBadGateway
	var parseErr *status.ParseError
	switch {
	case errors.Is(err, status.ErrCircuitOpen):
		code = http.StatusServiceUnavailable
	case errors.As(err, &parseErr):
		code = http.StatusUnprocessableEntity
	}
	return c.JSON(code, map[string]string{
		"error": err.Error(),
	})
}

func findLocation(locations []models.Location, name string) (models.Location, error) {
	for _, l := range locations {
		if strings.EqualFold(l.Name, name) || l.Key() == name {
			return l, nil
		}
	}
	return models.Location{}, status.ErrUnknownLocation
}

func findVenue(location models.Location, name string) (models.Venue, bool) {
	for _, v := range location.Venues {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return models.Venue{}, false
}

func toLocationResponses(locations []models.Location) []locationResponse {
	out := make([]locationResponse, 0, len(locations))
	for _, l := range locations {
		venues := l.Venues
		if venues == nil {
			venues = []models.Venue{}
		}
		out = append(out, locationResponse{Name: l.Name, Key: l.Key(), Venues: venues})
	}
	return out
}
