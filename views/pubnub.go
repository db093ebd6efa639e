package views

import (
	"context"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go"

	"biletmaster/models"
	"biletmaster/presenter"
)

// Messenger publishes and receives JSON-compatible messages on named
// channels.
type Messenger interface {
	Publish(channel string, message any) error
	// Subscribe delivers messages sent to channel until ctx is done.
	Subscribe(ctx context.Context, channel string) <-chan any
}

// PubNubMessenger is a Messenger backed by a PubNub connection.
type PubNubMessenger struct {
	pn *pubnub.PubNub
}

func NewPubNubMessenger(publishKey, subscribeKey, secretKey, uuid string) *PubNubMessenger {
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = publishKey
	pnConfig.SubscribeKey = subscribeKey
	pnConfig.SecretKey = secretKey
	if uuid != "" {
		pnConfig.UUID = uuid
	}
	return &PubNubMessenger{pn: pubnub.NewPubNub(pnConfig)}
}

func (m *PubNubMessenger) Publish(channel string, message any) error {
	_, _, err := m.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

func (m *PubNubMessenger) Subscribe(ctx context.Context, channel string) <-chan any {
	out := make(chan any)
	listener := pubnub.NewListener()

	m.pn.AddListener(listener)
	m.pn.Subscribe().
		Channels([]string{channel}).
		Execute()

	go func() {
		defer close(out)
		defer m.pn.RemoveListener(listener)
		defer m.pn.Unsubscribe().Channels([]string{channel}).Execute()

		for {
			select {
			case <-ctx.Done():
				return
			case message := <-listener.Message:
				if message == nil || message.Channel != channel {
					continue
				}
				select {
				case out <- message.Message:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// PubNubView mirrors a presenter session onto two channels:
// "<prefix><session>-out" carries every sink call, "<prefix><session>-in"
// accepts select and retry commands.
type PubNubView struct {
	*commandRouter

	messenger Messenger
	outbound  string
	inbound   string
	log       *slog.Logger
}

func NewPubNubView(messenger Messenger, channelPrefix, sessionID string, log *slog.Logger) *PubNubView {
	base := channelPrefix + sessionID
	return &PubNubView{
		commandRouter: newCommandRouter(),
		messenger:     messenger,
		outbound:      base + "-out",
		inbound:       base + "-in",
		log:           log.With("channel", base),
	}
}

var _ presenter.View = (*PubNubView)(nil)

func (v *PubNubView) OutboundChannel() string { return v.outbound }
func (v *PubNubView) InboundChannel() string  { return v.inbound }

// Listen forwards inbound commands to the presenter until ctx is done.
func (v *PubNubView) Listen(ctx context.Context) {
	defer v.commandRouter.close()

	for raw := range v.messenger.Subscribe(ctx, v.inbound) {
		cmd, err := decodeCommand(raw)
		if err == nil {
			err = v.dispatch(ctx, cmd)
		}
		if err != nil {
			v.log.Warn("bad command", "error", err)
		}
	}
}

func (v *PubNubView) SetLocations(locations []models.Location) {
	v.remember(locations)
	v.publish(locationsMessage(locations))
}

func (v *PubNubView) SetEvents(events []models.Event) { v.publish(eventsMessage(events)) }
func (v *PubNubView) ShowOffline()                    { v.publish(offlineMessage(true)) }
func (v *PubNubView) HideOffline()                    { v.publish(offlineMessage(false)) }
func (v *PubNubView) ShowError()                      { v.publish(errorMessage()) }

func (v *PubNubView) SelectedLocations() <-chan models.Location { return v.selections }
func (v *PubNubView) OfflineView() presenter.OfflineView        { return v }
func (v *PubNubView) Retries() <-chan struct{}                  { return v.retries }

func (v *PubNubView) publish(message map[string]any) {
	if err := v.messenger.Publish(v.outbound, message); err != nil {
		v.log.Warn("publish", "type", message["type"], "error", err)
	}
}
