package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/app"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/guard"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Event types pushed to the frontend
const (
	EventSession   = "session"
	EventGuard     = "guard"
	EventDashboard = "dashboard"
)

// Event is one message on the events socket
type Event struct {
	Type      string             `json:"type"`
	ClientID  string             `json:"client_id"`
	Time      time.Time          `json:"time"`
	Session   *SessionResponse   `json:"session,omitempty"`
	Decision  guard.Decision     `json:"decision,omitempty"`
	Target    string             `json:"target,omitempty"`
	Dashboard *app.DashboardView `json:"dashboard,omitempty"`
}

// EventsHandler streams session, guard and fetch changes over a websocket.
// The view query parameter selects which guard classification is evaluated.
type EventsHandler struct {
	ctl      *app.Controller
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(ctl *app.Controller, log *logger.Logger) *EventsHandler {
	return &EventsHandler{
		ctl: ctl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
		},
		logger: log,
	}
}

// ServeHTTP upgrades the connection and pushes events until the client leaves
// GET /api/events?view=/dashboard
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kind := guard.Protected
	if view := r.URL.Query().Get("view"); view != "" {
		k, ok := guard.Classify(view)
		if !ok {
			respondError(w, http.StatusBadRequest, "Unknown view")
			return
		}
		kind = k
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	log := h.logger.WithField("client_id", clientID)
	log.Debug("Events client connected")
	defer log.Debug("Events client disconnected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.readPump(conn, cancel)

	sessionSub := h.ctl.Session().Subscribe()
	defer sessionSub.Unsubscribe()
	guardSub := h.ctl.Session().Subscribe()
	defer guardSub.Unsubscribe()
	fetchSub := h.ctl.Fetcher().Subscribe()
	defer fetchSub.Unsubscribe()

	decisions := guard.Watch(ctx, guardSub.C, kind)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var ev *Event

		select {
		case <-ctx.Done():
			return
		case s, ok := <-sessionSub.C:
			if !ok {
				return
			}
			resp := toResponse(s)
			ev = &Event{Type: EventSession, Session: &resp}
		case d, ok := <-decisions:
			if !ok {
				return
			}
			ev = &Event{Type: EventGuard, Decision: d, Target: d.Target()}
		case _, ok := <-fetchSub.C:
			if !ok {
				return
			}
			view := h.ctl.Dashboard()
			ev = &Event{Type: EventDashboard, Dashboard: &view}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		ev.ClientID = clientID
		ev.Time = time.Now().UTC()
		if err := writeEvent(conn, ev); err != nil {
			log.WithError(err).Debug("Failed to write event")
			return
		}
	}
}

// readPump drains client frames so pongs and close frames are processed
func (h *EventsHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).Debug("Unexpected websocket close")
			}
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
