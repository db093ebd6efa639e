package views

import (
	"context"
	"sync"

	"biletmaster/models"
	"biletmaster/presenter"
)

type tee struct {
	presenter.View
	mirrors []presenter.Sink

	selections <-chan models.Location
	retries    <-chan struct{}
}

// Tee returns a view that repeats every sink call to primary and then to
// each mirror, in order. Selections and retries are merged from primary and
// from every mirror that is itself a presenter.View, until ctx is done.
func Tee(ctx context.Context, primary presenter.View, mirrors ...presenter.Sink) presenter.View {
	if len(mirrors) == 0 {
		return primary
	}

	selections := []<-chan models.Location{primary.SelectedLocations()}
	retries := []<-chan struct{}{primary.OfflineView().Retries()}
	for _, m := range mirrors {
		if v, ok := m.(presenter.View); ok {
			selections = append(selections, v.SelectedLocations())
			retries = append(retries, v.OfflineView().Retries())
		}
	}

	return &tee{
		View:       primary,
		mirrors:    mirrors,
		selections: merge(ctx, selections),
		retries:    merge(ctx, retries),
	}
}

func (t *tee) each(call func(presenter.Sink)) {
	call(t.View)
	for _, m := range t.mirrors {
		call(m)
	}
}

func (t *tee) SetLocations(locations []models.Location) {
	t.each(func(s presenter.Sink) { s.SetLocations(locations) })
}

func (t *tee) SetEvents(events []models.Event) {
	t.each(func(s presenter.Sink) { s.SetEvents(events) })
}

func (t *tee) ShowOffline() { t.each(presenter.Sink.ShowOffline) }
func (t *tee) HideOffline() { t.each(presenter.Sink.HideOffline) }
func (t *tee) ShowError()   { t.each(presenter.Sink.ShowError) }

func (t *tee) SelectedLocations() <-chan models.Location { return t.selections }
func (t *tee) OfflineView() presenter.OfflineView        { return t }
func (t *tee) Retries() <-chan struct{}                  { return t.retries }

// merge fans ins into one channel, closed once every input is closed or ctx
// is done. Nil inputs are skipped.
func merge[T any](ctx context.Context, ins []<-chan T) <-chan T {
	live := ins[:0:0]
	for _, in := range ins {
		if in != nil {
			live = append(live, in)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}

	out := make(chan T)
	var wg sync.WaitGroup
	for _, in := range live {
		wg.Add(1)
		go func(in <-chan T) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case v, ok := <-in:
					if !ok {
						return
					}
					select {
					case out <- v:
					case <-ctx.Done():
						return
					}
				}
			}
		}(in)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
