package system

import (
	"context"
	"time"

	"go-fwpm/internal/database"

	"github.com/gofiber/fiber/v2"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthApi struct {
	db Pinger
}

func NewHealthApi(mongodb *database.MongodbDB) *HealthApi {
	return &HealthApi{db: mongodb}
}

// Setup registers health check route
func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/api/health", h.HealthCheck)
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Reports whether the server can reach MongoDB
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /api/health [get]
func (h *HealthApi) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
