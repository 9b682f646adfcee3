package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iyunix/fios-chat/internal/services/dispatch"
)

const (
	eventBuffer  = 16
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// EventSource publishes dispatcher state changes.
type EventSource interface {
	Subscribe(fn func(dispatch.Event)) (unsubscribe func())
	State() dispatch.State
	Loading() bool
}

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// EventsHandler streams dispatcher events to websocket clients so the UI can
// show the pending indicator while a reply is outstanding.
type EventsHandler struct {
	source   EventSource
	logger   Logger
	upgrader websocket.Upgrader
}

func NewEventsHandler(source EventSource, logger Logger) *EventsHandler {
	return &EventsHandler{
		source: source,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events := make(chan dispatch.Event, eventBuffer)
	unsubscribe := h.source.Subscribe(func(ev dispatch.Event) {
		// Slow clients lose events rather than stall the send.
		select {
		case events <- ev:
		default:
		}
	})
	defer unsubscribe()

	// The read loop only exists to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Debug("event client connected", "remote", r.RemoteAddr)
	defer h.logger.Debug("event client disconnected", "remote", r.RemoteAddr)

	initial := dispatch.Event{State: h.source.State(), Loading: h.source.Loading(), At: time.Now()}
	if err := writeEvent(conn, initial); err != nil {
		return
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case ev := <-events:
			if err := writeEvent(conn, ev); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev dispatch.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(ev)
}
