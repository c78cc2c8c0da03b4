package task

import (
	"go-fwpm/internal/config"
	"go-fwpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TaskApi struct {
	controller *TaskController
	config     *config.Config
}

func NewTaskApi(controller *TaskController, config *config.Config) *TaskApi {
	return &TaskApi{controller: controller, config: config}
}

// Setup registers task store routes
func (h *TaskApi) Setup(app *fiber.App) {
	tasks := app.Group("/api/implementation-tasks", middleware.AuthMiddleware(h.config.SkipAuth))

	tasks.Get("/", h.controller.ListTasks)
	tasks.Post("/", h.controller.CreateTask)
	tasks.Get("/summary", h.controller.Summary)
	tasks.Get("/export/:format", h.controller.Export)
	tasks.Get("/template/csv", h.controller.Template)
}
