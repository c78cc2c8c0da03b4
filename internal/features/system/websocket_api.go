package system

import (
	"go-fwpm/internal/common/api"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WebSocketApi struct {
	Controller *WebSocketController
}

func NewWebSocketApi(controller *WebSocketController) api.Route {
	return &WebSocketApi{
		Controller: controller,
	}
}

func (h *WebSocketApi) Setup(app *fiber.App) {
	app.Use("/api/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/api/ws", websocket.New(h.Controller.HandleWebSocket))
}
