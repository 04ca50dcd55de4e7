package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/dimaspram/riverwatch/internal/ws"
)

type StreamHandler struct {
	hub *ws.Hub
}

func NewStreamHandler(hub *ws.Hub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// UpgradeCheck is middleware that rejects non-websocket requests.
func (h *StreamHandler) UpgradeCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// HandleAlertStream keeps the connection registered with the hub until the
// client goes away. Clients only listen; inbound messages are discarded.
func (h *StreamHandler) HandleAlertStream() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		h.hub.Register(c)
		defer h.hub.Unregister(c)

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	})
}
