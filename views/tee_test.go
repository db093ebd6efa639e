package views

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biletmaster/models"
	"biletmaster/presenter"
)

type callLog struct {
	name  string
	calls *[]string
}

func (c callLog) add(s string) { *c.calls = append(*c.calls, c.name+"."+s) }

func (c callLog) SetLocations([]models.Location) { c.add("SetLocations") }
func (c callLog) SetEvents([]models.Event)       { c.add("SetEvents") }
func (c callLog) ShowOffline()                   { c.add("ShowOffline") }
func (c callLog) HideOffline()                   { c.add("HideOffline") }
func (c callLog) ShowError()                     { c.add("ShowError") }

type callLogView struct {
	callLog
	selections chan models.Location
}

func (v callLogView) SelectedLocations() <-chan models.Location { return v.selections }
func (v callLogView) OfflineView() presenter.OfflineView        { return v }
func (v callLogView) Retries() <-chan struct{}                  { return nil }

func TestTee(t *testing.T) {
	var calls []string
	primary := callLogView{callLog: callLog{name: "primary", calls: &calls}, selections: make(chan models.Location)}
	view := Tee(context.Background(), primary, callLog{name: "mirror", calls: &calls})

	view.SetLocations(nil)
	view.SetEvents(nil)
	view.ShowOffline()
	view.HideOffline()
	view.ShowError()

	assert.Equal(t, []string{
		"primary.SetLocations", "mirror.SetLocations",
		"primary.SetEvents", "mirror.SetEvents",
		"primary.ShowOffline", "mirror.ShowOffline",
		"primary.HideOffline", "mirror.HideOffline",
		"primary.ShowError", "mirror.ShowError",
	}, calls)
	assert.Equal(t, (<-chan models.Location)(primary.selections), view.SelectedLocations())
}

func TestTee_NoMirrors(t *testing.T) {
	var calls []string
	primary := callLogView{callLog: callLog{name: "primary", calls: &calls}}

	assert.Equal(t, presenter.View(primary), Tee(context.Background(), primary))
}

func TestTee_MergesInputFromViewMirrors(t *testing.T) {
	var calls []string
	primary := callLogView{callLog: callLog{name: "primary", calls: &calls}, selections: make(chan models.Location)}
	remote := callLogView{callLog: callLog{name: "remote", calls: &calls}, selections: make(chan models.Location)}
	view := Tee(context.Background(), primary, remote)

	cluj := models.NewLocation("Cluj", nil)
	iasi := models.NewLocation("Iasi", nil)

	go func() { remote.selections <- cluj }()
	select {
	case got := <-view.SelectedLocations():
		assert.Equal(t, cluj, got)
	case <-time.After(time.Second):
		t.Fatal("mirror selection not forwarded")
	}

	go func() { primary.selections <- iasi }()
	select {
	case got := <-view.SelectedLocations():
		assert.Equal(t, iasi, got)
	case <-time.After(time.Second):
		t.Fatal("primary selection not forwarded")
	}

	close(primary.selections)
	close(remote.selections)
	select {
	case _, ok := <-view.SelectedLocations():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("merged selections not closed")
	}

	view.ShowError()
	assert.Equal(t, []string{"primary.ShowError", "remote.ShowError"}, calls)
}

func TestTee_StopsMergingOnCancel(t *testing.T) {
	var calls []string
	primary := callLogView{callLog: callLog{name: "primary", calls: &calls}, selections: make(chan models.Location)}
	remote := callLogView{callLog: callLog{name: "remote", calls: &calls}, selections: make(chan models.Location)}

	ctx, cancel := context.WithCancel(context.Background())
	view := Tee(ctx, primary, remote)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-view.SelectedLocations():
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
