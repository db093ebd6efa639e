package views

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"biletmaster/models"
	"biletmaster/presenter"
)

const wsWriteTimeout = 5 * time.Second

// WebSocketView speaks the same JSON messages as PubNubView over a single
// websocket connection.
type WebSocketView struct {
	*commandRouter

	conn *websocket.Conn
	ctx  context.Context
	log  *slog.Logger
}

// NewWebSocketView writes to conn until ctx is done.
func NewWebSocketView(ctx context.Context, conn *websocket.Conn, log *slog.Logger) *WebSocketView {
	return &WebSocketView{
		commandRouter: newCommandRouter(),
		conn:          conn,
		ctx:           ctx,
		log:           log,
	}
}

var _ presenter.View = (*WebSocketView)(nil)

// Listen reads commands until the client goes away or ctx is done. A
// normal close by the client returns nil.
func (v *WebSocketView) Listen(ctx context.Context) error {
	defer v.commandRouter.close()

	for {
		var raw any
		if err := wsjson.Read(ctx, v.conn, &raw); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		cmd, err := decodeCommand(raw)
		if err == nil {
			err = v.dispatch(ctx, cmd)
		}
		if err != nil {
			v.log.Warn("bad command", "error", err)
			v.send(map[string]any{"type": "rejected", "error": err.Error()})
		}
	}
}

func (v *WebSocketView) SetLocations(locations []models.Location) {
	v.remember(locations)
	v.send(locationsMessage(locations))
}

func (v *WebSocketView) SetEvents(events []models.Event) { v.send(eventsMessage(events)) }
func (v *WebSocketView) ShowOffline()                    { v.send(offlineMessage(true)) }
func (v *WebSocketView) HideOffline()                    { v.send(offlineMessage(false)) }
func (v *WebSocketView) ShowError()                      { v.send(errorMessage()) }

func (v *WebSocketView) SelectedLocations() <-chan models.Location { return v.selections }
func (v *WebSocketView) OfflineView() presenter.OfflineView        { return v }
func (v *WebSocketView) Retries() <-chan struct{}                  { return v.retries }

func (v *WebSocketView) send(message map[string]any) {
	ctx, cancel := context.WithTimeout(v.ctx, wsWriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, v.conn, message); err != nil {
		v.log.Warn("websocket write", "type", message["type"], "error", err)
	}
}
