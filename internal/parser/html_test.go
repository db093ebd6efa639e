package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biletmaster/internal/status"
	"biletmaster/models"
)

const locationsPage = `<html><body>
<div id="places">
  <div class="place">
    <h3 class="place-name">Cluj-Napoca Opera</h3>
    <ul>
      <li><a class="venue" href="/ron/Venue/1/Sala_Mare">Sala Mare</a></li>
      <li><a class="venue" href="/ron/Venue/2/Studio">  Studio
      </a></li>
    </ul>
  </div>
  <div class="place">
    <h3 class="place-name"><a href="/ron/Venue/3/Form_Space">Form Space</a></h3>
  </div>
  <div class="place"><h3 class="place-name">  </h3></div>
</div>
</body></html>`

const eventsPage = `<html><body>
<div id="events">
  <div class="event">
    <span class="event-name">Tosca</span>
    <span class="event-artist">Opera Nationala</span>
    <span class="event-room">Sala Mare</span>
    <time class="event-date" datetime="2016-05-12T19:00">12 mai, 19:00</time>
  </div>
  <div class="event cancelled">
    <span class="event-name">Aida</span>
    <time class="event-date">2016.05.14 18:30</time>
  </div>
  <div class="event">
    <span class="event-name">Concert</span>
    <span class="event-status">ANULAT</span>
    <span class="event-date">in curand</span>
  </div>
  <div class="event"><span class="event-artist">no name</span></div>
</div>
</body></html>`

func bucharest(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Bucharest")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	return loc
}

func TestParseLocations(t *testing.T) {
	p := NewHTMLParser(time.UTC)

	locations, err := p.ParseLocations([]byte(locationsPage))

	require.NoError(t, err)
	require.Len(t, locations, 2)

	assert.Equal(t, "Cluj-Napoca Opera", locations[0].Name)
	assert.Equal(t, []models.Venue{
		{Name: "Sala Mare", URL: "/ron/Venue/1/Sala_Mare"},
		{Name: "Studio", URL: "/ron/Venue/2/Studio"},
	}, locations[0].Venues)

	assert.Equal(t, "Form Space", locations[1].Name)
	assert.Equal(t, []models.Venue{{Name: "Form Space", URL: "/ron/Venue/3/Form_Space"}}, locations[1].Venues)
}

func TestParseLocations_MissingContainer(t *testing.T) {
	_, err := NewHTMLParser(nil).ParseLocations([]byte("<html><body><p>maintenance</p></body></html>"))

	var pe *status.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "locations", pe.What)
	assert.ErrorIs(t, err, status.ErrMalformedPage)
}

func TestParseEvents(t *testing.T) {
	loc := bucharest(t)
	p := NewHTMLParser(loc)

	events, err := p.ParseEvents([]byte(eventsPage))

	require.NoError(t, err)
	require.Len(t, events, 3)

	tosca := events[0]
	assert.Equal(t, "Tosca", tosca.Name)
	assert.Equal(t, "Opera Nationala", tosca.Artist)
	assert.Equal(t, "Sala Mare", tosca.Room)
	require.NotNil(t, tosca.DateTime)
	assert.True(t, tosca.DateTime.Equal(time.Date(2016, 5, 12, 19, 0, 0, 0, loc)))
	assert.False(t, tosca.Cancelled)
	assert.Nil(t, tosca.Venue)

	aida := events[1]
	assert.True(t, aida.Cancelled)
	require.NotNil(t, aida.DateTime)
	assert.True(t, aida.DateTime.Equal(time.Date(2016, 5, 14, 18, 30, 0, 0, loc)))

	concert := events[2]
	assert.True(t, concert.Cancelled)
	assert.Nil(t, concert.DateTime)
}

func TestParseEvents_EmptyListing(t *testing.T) {
	events, err := NewHTMLParser(nil).ParseEvents([]byte(`<div id="events"></div>`))

	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseEvents_MissingContainer(t *testing.T) {
	_, err := NewHTMLParser(nil).ParseEvents([]byte("not html at all"))

	assert.ErrorIs(t, err, status.ErrMalformedPage)
}
