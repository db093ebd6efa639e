package presenter

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"biletmaster/models"
	"biletmaster/monitoring"
)

var ErrAlreadyAttached = errors.New("presenter: view already attached")

// EventsPresenter drives one view at a time: it loads locations whenever
// the site comes online and pushes the events of every selected location.
type EventsPresenter struct {
	source       Source
	connectivity Connectivity
	groupKeys    []string
	scheduler    Scheduler
	log          *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewEventsPresenter(source Source, connectivity Connectivity, groupKeys []string, scheduler Scheduler, log *slog.Logger) *EventsPresenter {
	if scheduler == nil {
		scheduler = GoScheduler{}
	}
	keys := make([]string, len(groupKeys))
	copy(keys, groupKeys)
	return &EventsPresenter{
		source:       source,
		connectivity: connectivity,
		groupKeys:    keys,
		scheduler:    scheduler,
		log:          log,
	}
}

// Attach starts a session for view. The session ends when ctx is done or
// Detach is called.
func (p *EventsPresenter) Attach(ctx context.Context, view View) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return ErrAlreadyAttached
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done

	s := &session{
		presenter: p,
		view:      view,
		machine:   newMachine(),
		results:   make(chan func(*machine) []effect),
	}
	go func() {
		defer close(done)
		s.run(ctx)
	}()
	return nil
}

// Detach cancels every fetch of the current session and waits for it to
// stop. No view method is called after Detach returns. Detach must not be
// called from a view method: those run on the session goroutine, and
// Detach would wait for itself.
func (p *EventsPresenter) Detach() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

type session struct {
	presenter *EventsPresenter
	view      View
	machine   *machine

	// finished fetches, applied on the session goroutine
	results chan func(*machine) []effect
}

func (s *session) run(ctx context.Context) {
	log := s.presenter.log
	log.Debug("presenter attached")
	defer log.Debug("presenter detached")

	online := s.presenter.connectivity.Watch(ctx)
	selections := s.view.SelectedLocations()
	retries := s.view.OfflineView().Retries()

	for {
		var effects []effect

		select {
		case <-ctx.Done():
			return

		case up, ok := <-online:
			if !ok {
				online = nil
				continue
			}
			log.Debug("connectivity", "online", up)
			effects = s.machine.connectivity(up)

		case loc, ok := <-selections:
			if !ok {
				selections = nil
				continue
			}
			log.Debug("location selected", "location", loc.Name)
			effects = []effect{s.machine.selected(loc)}

		case _, ok := <-retries:
			if !ok {
				retries = nil
				continue
			}
			log.Debug("retry requested")
			effects = s.machine.retry()

		case apply := <-s.results:
			effects = apply(s.machine)
		}

		s.apply(ctx, effects)
	}
}

func (s *session) apply(ctx context.Context, effects []effect) {
	before := s.machine.state
	defer func() {
		if after := s.machine.state; after != before {
			s.presenter.log.Debug("presenter transition", "from", before.String(), "to", after.String())
			monitoring.TrackTransition(after.String())
		}
	}()

	for _, e := range effects {
		if ctx.Err() != nil {
			return
		}
		switch e.kind {
		case fetchLocations:
			s.loadLocations(ctx, e.seq)
		case fetchEvents:
			s.loadEvents(ctx, e.seq, e.location)
		case setLocations:
			s.view.SetLocations(e.locations)
		case setEvents:
			s.view.SetEvents(e.events)
		case showOffline:
			s.view.ShowOffline()
		case hideOffline:
			s.view.HideOffline()
		case showError:
			s.view.ShowError()
		}
	}
}

func (s *session) loadLocations(ctx context.Context, seq uint64) {
	p := s.presenter
	p.scheduler.Schedule(func() {
		locations, err := p.source.GroupedLocations(ctx, p.groupKeys)
		if err != nil && ctx.Err() == nil {
			p.log.Warn("load locations", "error", err)
		}
		s.finish(ctx, func(m *machine) []effect {
			return m.locations(seq, locations, err)
		})
	})
}

func (s *session) loadEvents(ctx context.Context, seq uint64, location models.Location) {
	p := s.presenter
	p.scheduler.Schedule(func() {
		events, err := p.source.EventsForLocation(ctx, location)
		if err != nil && ctx.Err() == nil {
			p.log.Warn("load events", "location", location.Name, "error", err)
		}
		s.finish(ctx, func(m *machine) []effect {
			return m.events(seq, eventsOutcome{location: location, events: events, err: err})
		})
	})
}

func (s *session) finish(ctx context.Context, apply func(*machine) []effect) {
	select {
	case s.results <- apply:
	case <-ctx.Done():
	}
}
