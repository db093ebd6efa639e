package handlers

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v5"
	"nhooyr.io/websocket"

	"biletmaster/presenter"
	"biletmaster/utils"
	"biletmaster/views"
)

// SessionHandler runs one presenter session per websocket connection.
type SessionHandler struct {
	source       presenter.Source
	connectivity presenter.Connectivity
	groupKeys    []string
	// mirrors returns extra sinks for a session, e.g. a PubNub channel.
	// Mirrors that are views also feed the session until ctx is done.
	mirrors func(ctx context.Context, sessionID string) []presenter.Sink
	log     *slog.Logger
}

func NewSessionHandler(source presenter.Source, connectivity presenter.Connectivity, groupKeys []string, mirrors func(ctx context.Context, sessionID string) []presenter.Sink, log *slog.Logger) *SessionHandler {
	return &SessionHandler{
		source:       source,
		connectivity: connectivity,
		groupKeys:    groupKeys,
		mirrors:      mirrors,
		log:          log,
	}
}

// Connect upgrades the request and serves the session until the client
// disconnects.
func (h *SessionHandler) Connect(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), nil)
	if err != nil {
		// Accept has already written the error response
		h.log.Warn("websocket accept", "error", err)
		return nil
	}
	defer conn.CloseNow()

	sessionID := utils.NewSessionID("ws")
	log := h.log.With("session", sessionID)
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	view := views.NewWebSocketView(ctx, conn, log)
	var mirrors []presenter.Sink
	if h.mirrors != nil {
		mirrors = h.mirrors(ctx, sessionID)
	}

	p := presenter.NewEventsPresenter(h.source, h.connectivity, h.groupKeys, presenter.GoScheduler{}, log)
	if err := p.Attach(ctx, views.Tee(ctx, view, mirrors...)); err != nil {
		return err
	}
	log.Info("session started")

	err = view.Listen(ctx)
	p.Detach()
	if err != nil {
		log.Warn("session ended", "error", err)
		return nil
	}
	log.Info("session ended")
	_ = conn.Close(websocket.StatusNormalClosure, "")
	return nil
}
