package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"LaborPulse/internal/hub"
	xlogger "LaborPulse/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Viewers are anonymous and read-only, any origin may embed the counter.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WSHandler upgrades viewer connections and hands them to the hub.
type WSHandler struct {
	logger *xlogger.Logger
	hub    *hub.Hub
}

func NewWSHandler(logger *xlogger.Logger, h *hub.Hub) *WSHandler {
	return &WSHandler{logger: logger, hub: h}
}

func (h *WSHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/counter", h.Counter)
}

// Counter upgrades the connection and blocks reading until the viewer leaves.
// Inbound frames are discarded; the stream is push-only.
func (h *WSHandler) Counter(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	if err := h.hub.Register(conn); err != nil {
		h.logger.Warn("viewer rejected", xlogger.Error(err))
		return nil
	}
	defer h.hub.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}
