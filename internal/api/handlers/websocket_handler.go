package handlers

import (
	"log/slog"

	gws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/easemail/easemail-backend/internal/api/middleware"
	"github.com/easemail/easemail-backend/internal/websocket"
)

// WebSocketHandler upgrades authenticated requests to realtime connections
type WebSocketHandler struct {
	hub      *websocket.Hub
	upgrader gws.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, upgrader gws.Upgrader, log *slog.Logger) *WebSocketHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebSocketHandler{hub: hub, upgrader: upgrader, logger: log}
}

// Serve handles GET /api/ws
func (h *WebSocketHandler) Serve(c echo.Context) error {
	userID := middleware.UserID(c)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Warn("websocket upgrade failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		return nil
	}

	client := websocket.NewClient(h.hub, conn, userID, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
	return nil
}
