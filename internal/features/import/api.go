package import_feature

import (
	"go-fwpm/internal/config"
	"go-fwpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ImportApi struct {
	ImportController *ImportController
	Config           *config.Config
}

func NewImportApi(importController *ImportController, config *config.Config) *ImportApi {
	return &ImportApi{
		ImportController: importController,
		Config:           config,
	}
}

func (api *ImportApi) Setup(app *fiber.App) {
	group := app.Group("/api/implementation-tasks", middleware.AuthMiddleware(api.Config.SkipAuth))

	group.Post("/validate_import", api.ImportController.ValidateImport)
	group.Post("/import_tasks", api.ImportController.ImportTasks)
	group.Get("/imports/:id", api.ImportController.GetImport)
}
