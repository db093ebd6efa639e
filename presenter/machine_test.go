package presenter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biletmaster/models"
)

var (
	locA     = models.NewLocation("A", []models.Venue{{Name: "a", URL: "/a"}})
	locB     = models.NewLocation("B", []models.Venue{{Name: "b", URL: "/b"}})
	errFetch = errors.New("fetch failed")
)

func kinds(effects []effect) []effectKind {
	out := make([]effectKind, len(effects))
	for i, e := range effects {
		out[i] = e.kind
	}
	return out
}

func TestMachine_FirstEmissionLoadsLocations(t *testing.T) {
	for _, online := range []bool{true, false} {
		m := newMachine()

		effects := m.connectivity(online)

		require.Equal(t, []effectKind{fetchLocations}, kinds(effects))
		assert.Equal(t, LoadingLocations, m.state)
	}
}

func TestMachine_OnlineEmissionsReloadLocations(t *testing.T) {
	m := newMachine()
	first := m.connectivity(true)[0]
	m.locations(first.seq, []models.Location{locA}, nil)

	assert.Empty(t, m.connectivity(false))
	again := m.connectivity(true)
	require.Equal(t, []effectKind{fetchLocations}, kinds(again))
	assert.Greater(t, again[0].seq, first.seq)
	assert.Equal(t, LocationsLoaded, m.state)
}

func TestMachine_LocationsPushed(t *testing.T) {
	m := newMachine()
	fetch := m.connectivity(true)[0]

	effects := m.locations(fetch.seq, []models.Location{locA, locB}, nil)

	require.Equal(t, []effectKind{setLocations}, kinds(effects))
	assert.Equal(t, []models.Location{locA, locB}, effects[0].locations)
	assert.Equal(t, LocationsLoaded, m.state)
}

func TestMachine_StaleLocationsIgnored(t *testing.T) {
	m := newMachine()
	old := m.connectivity(true)[0]
	current := m.connectivity(true)[0]

	assert.Empty(t, m.locations(old.seq, []models.Location{locA}, nil))
	assert.Equal(t, []effectKind{setLocations}, kinds(m.locations(current.seq, []models.Location{locB}, nil)))
}

func TestMachine_LocationsFailureOnline_NoViewSignal(t *testing.T) {
	m := newMachine()
	fetch := m.connectivity(true)[0]

	assert.Empty(t, m.locations(fetch.seq, nil, errFetch))
	assert.Equal(t, Idle, m.state)
	assert.False(t, m.offlineShown)
}

func TestMachine_LocationsFailureOffline_ShowsBannerOnce(t *testing.T) {
	m := newMachine()
	fetch := m.connectivity(false)[0]

	assert.Equal(t, []effectKind{showOffline}, kinds(m.locations(fetch.seq, nil, errFetch)))

	// retry while still offline fails again without a second banner
	retry := m.retry()
	require.Equal(t, []effectKind{fetchLocations}, kinds(retry))
	assert.Empty(t, m.locations(retry[0].seq, nil, errFetch))
}

func TestMachine_RecoveryHidesBannerOnce(t *testing.T) {
	m := newMachine()
	fetch := m.connectivity(false)[0]
	m.locations(fetch.seq, nil, errFetch)

	reload := m.connectivity(true)[0]
	effects := m.locations(reload.seq, []models.Location{locA}, nil)

	assert.Equal(t, []effectKind{setLocations, hideOffline}, kinds(effects))

	sel := m.selected(locA)
	assert.Equal(t, []effectKind{setEvents}, kinds(m.events(sel.seq, eventsOutcome{location: locA})))
}

func TestMachine_EventsDeliveredInSelectionOrder(t *testing.T) {
	m := newMachine()
	m.connectivity(true)

	first := m.selected(locA)
	second := m.selected(locB)
	assert.Equal(t, LoadingEvents, m.state)

	evB := []models.Event{{Name: "b-event"}}
	evA := []models.Event{{Name: "a-event"}}

	assert.Empty(t, m.events(second.seq, eventsOutcome{location: locB, events: evB}))
	assert.Equal(t, LoadingEvents, m.state)

	effects := m.events(first.seq, eventsOutcome{location: locA, events: evA})

	require.Equal(t, []effectKind{setEvents, setEvents}, kinds(effects))
	assert.Equal(t, evA, effects[0].events)
	assert.Equal(t, evB, effects[1].events)
	assert.Equal(t, EventsLoaded, m.state)
}

func TestMachine_EventsFailureOnline(t *testing.T) {
	m := newMachine()
	fetch := m.connectivity(true)[0]
	m.locations(fetch.seq, []models.Location{locA}, nil)
	sel := m.selected(locA)

	effects := m.events(sel.seq, eventsOutcome{location: locA, err: errFetch})

	require.Equal(t, []effectKind{setEvents, showError}, kinds(effects))
	assert.NotNil(t, effects[0].events)
	assert.Empty(t, effects[0].events)
	assert.False(t, m.offlineShown)
	assert.Empty(t, m.retry())
}

func TestMachine_EventsFailureOffline(t *testing.T) {
	m := newMachine()
	fetch := m.connectivity(true)[0]
	m.locations(fetch.seq, []models.Location{locA}, nil)
	m.connectivity(false)

	sel := m.selected(locA)
	effects := m.events(sel.seq, eventsOutcome{location: locA, err: errFetch})

	require.Equal(t, []effectKind{setEvents, showOffline}, kinds(effects))
	assert.Empty(t, effects[0].events)

	// a second failure in the same episode does not repeat the banner
	again := m.selected(locB)
	assert.Equal(t, []effectKind{setEvents}, kinds(m.events(again.seq, eventsOutcome{location: locB, err: errFetch})))

	// retry reissues the last failed selection only
	retry := m.retry()
	require.Equal(t, []effectKind{fetchEvents}, kinds(retry))
	assert.Equal(t, locB, retry[0].location)
	assert.Empty(t, m.retry())
}

func TestMachine_CachedSuccessWhileOfflineKeepsBanner(t *testing.T) {
	m := newMachine()
	fetch := m.connectivity(true)[0]
	m.locations(fetch.seq, []models.Location{locA, locB}, nil)
	m.connectivity(false)

	failA := m.selected(locA)
	assert.Equal(t, []effectKind{setEvents, showOffline}, kinds(m.events(failA.seq, eventsOutcome{location: locA, err: errFetch})))

	cachedB := m.selected(locB)
	assert.Equal(t, []effectKind{setEvents}, kinds(m.events(cachedB.seq, eventsOutcome{location: locB, events: []models.Event{{Name: "b"}}})))
	assert.True(t, m.offlineShown)

	failAgain := m.selected(locA)
	assert.Equal(t, []effectKind{setEvents}, kinds(m.events(failAgain.seq, eventsOutcome{location: locA, err: errFetch})))

	// back online, the next successful load hides the banner
	reload := m.connectivity(true)[0]
	assert.Equal(t, []effectKind{setLocations, hideOffline}, kinds(m.locations(reload.seq, []models.Location{locA, locB}, nil)))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "events_loaded", EventsLoaded.String())
	assert.Equal(t, "unknown", State(42).String())
}
