package presenter

import (
	"biletmaster/models"
)

type State int

const (
	Idle State = iota
	LoadingLocations
	LocationsLoaded
	LoadingEvents
	EventsLoaded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingLocations:
		return "loading_locations"
	case LocationsLoaded:
		return "locations_loaded"
	case LoadingEvents:
		return "loading_events"
	case EventsLoaded:
		return "events_loaded"
	default:
		return "unknown"
	}
}

type effectKind int

const (
	fetchLocations effectKind = iota
	fetchEvents
	setLocations
	setEvents
	showOffline
	hideOffline
	showError
)

// effect is an action the runtime performs after a transition. Fetches are
// scheduled in the background, everything else is a view call.
type effect struct {
	kind      effectKind
	seq       uint64
	location  models.Location
	locations []models.Location
	events    []models.Event
}

type eventsOutcome struct {
	location models.Location
	events   []models.Event
	err      error
}

// machine holds the presenter state. It performs no I/O: every input
// returns the effects to carry out, in order.
type machine struct {
	state State

	online           bool
	seenConnectivity bool
	offlineShown     bool

	locationsLoaded bool
	locationsSeq    uint64

	// events results are delivered in selection order
	nextEventsSeq uint64
	deliverSeq    uint64
	completed     map[uint64]eventsOutcome

	// last selection that failed while offline, reissued on retry
	retryLocation *models.Location
}

func newMachine() *machine {
	return &machine{completed: make(map[uint64]eventsOutcome)}
}

// connectivity handles one emission of the connectivity signal. The first
// emission always loads locations; later ones reload them when online.
func (m *machine) connectivity(online bool) []effect {
	first := !m.seenConnectivity
	m.seenConnectivity = true
	m.online = online

	if first || online {
		return []effect{m.loadLocations()}
	}
	return nil
}

func (m *machine) loadLocations() effect {
	m.locationsSeq++
	if !m.locationsLoaded && m.state == Idle {
		m.state = LoadingLocations
	}
	return effect{kind: fetchLocations, seq: m.locationsSeq}
}

// locations handles a finished locations fetch. Superseded fetches are
// ignored. A failure never reaches the view as an error.
func (m *machine) locations(seq uint64, locations []models.Location, err error) []effect {
	if seq != m.locationsSeq {
		return nil
	}
	if err != nil {
		if m.state == LoadingLocations {
			m.state = Idle
		}
		if !m.online {
			return m.offline()
		}
		return nil
	}

	m.locationsLoaded = true
	if m.state == Idle || m.state == LoadingLocations {
		m.state = LocationsLoaded
	}
	return append([]effect{{kind: setLocations, locations: locations}}, m.recovered()...)
}

func (m *machine) selected(location models.Location) effect {
	seq := m.nextEventsSeq
	m.nextEventsSeq++
	m.state = LoadingEvents
	return effect{kind: fetchEvents, seq: seq, location: location}
}

// events handles a finished events fetch and delivers every result that is
// now next in selection order.
func (m *machine) events(seq uint64, outcome eventsOutcome) []effect {
	if seq < m.deliverSeq {
		return nil
	}
	m.completed[seq] = outcome

	var out []effect
	for {
		next, ok := m.completed[m.deliverSeq]
		if !ok {
			break
		}
		delete(m.completed, m.deliverSeq)
		m.deliverSeq++
		out = append(out, m.deliver(next)...)
	}
	if m.deliverSeq == m.nextEventsSeq && m.state == LoadingEvents {
		m.state = EventsLoaded
	}
	return out
}

func (m *machine) deliver(o eventsOutcome) []effect {
	if o.err == nil {
		out := []effect{{kind: setEvents, events: o.events}}
		return append(out, m.recovered()...)
	}

	out := []effect{{kind: setEvents, events: []models.Event{}}}
	if m.online {
		return append(out, effect{kind: showError})
	}
	loc := o.location
	m.retryLocation = &loc
	return append(out, m.offline()...)
}

// retry reloads whatever the last offline failure left missing.
func (m *machine) retry() []effect {
	var out []effect
	if !m.locationsLoaded {
		out = append(out, m.loadLocations())
	}
	if m.retryLocation != nil {
		loc := *m.retryLocation
		m.retryLocation = nil
		out = append(out, m.selected(loc))
	}
	return out
}

func (m *machine) offline() []effect {
	if m.offlineShown {
		return nil
	}
	m.offlineShown = true
	return []effect{{kind: showOffline}}
}

// recovered hides the banner after a successful load. While offline the
// banner stays up even if a load succeeds from the cache.
func (m *machine) recovered() []effect {
	if !m.offlineShown || !m.online {
		return nil
	}
	m.offlineShown = false
	return []effect{{kind: hideOffline}}
}
