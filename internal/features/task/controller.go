package task

import (
	"errors"
	"fmt"
	"strconv"

	"go-fwpm/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

type TaskController struct {
	Service TaskService
}

func NewTaskController(service TaskService) *TaskController {
	return &TaskController{Service: service}
}

// ListTasks godoc
// @Summary List implementation tasks
// @Tags tasks
// @Produce json
// @Param category query string false "Category"
// @Param status query string false "Status"
// @Param search query string false "Matches site name, node id or implementor"
// @Param sort_by query string false "Sort field"
// @Param sort_order query string false "asc or desc"
// @Param limit query int false "Max rows"
// @Success 200 {array} Task
// @Router /api/implementation-tasks [get]
func (ctrl *TaskController) ListTasks(c *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(c.Query("limit", "0"), 10, 64)
	filter := TaskFilter{
		Category:  c.Query("category"),
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by", "createdAt"),
		SortOrder: c.Query("sort_order", "desc"),
		Limit:     limit,
	}

	tasks, err := ctrl.Service.ListTasks(c.UserContext(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(tasks)
}

// CreateTask godoc
// @Summary Create an implementation task
// @Tags tasks
// @Accept json
// @Produce json
// @Success 201 {object} Task
// @Failure 400 {object} map[string]interface{}
// @Router /api/implementation-tasks [post]
func (ctrl *TaskController) CreateTask(c *fiber.Ctx) error {
	var body map[string]string
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	values := make(map[models.FieldName]string, len(body))
	for k, v := range body {
		if models.IsKnownField(models.FieldName(k)) {
			values[models.FieldName(k)] = v
		}
	}

	task, err := ctrl.Service.CreateTask(c.UserContext(), values)
	if err != nil {
		var ferrs FieldErrors
		if errors.As(err, &ferrs) {
			msgs := make([]string, len(ferrs))
			for i, fe := range ferrs {
				msgs[i] = fe.Message
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": msgs})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// Summary godoc
// @Summary Task counts by status
// @Tags tasks
// @Produce json
// @Success 200 {object} TaskSummary
// @Router /api/implementation-tasks/summary [get]
func (ctrl *TaskController) Summary(c *fiber.Ctx) error {
	summary, err := ctrl.Service.Summary(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(summary)
}

// Export godoc
// @Summary Export tasks
// @Tags tasks
// @Produce octet-stream
// @Param format path string true "csv or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} map[string]interface{}
// @Router /api/implementation-tasks/export/{format} [get]
func (ctrl *TaskController) Export(c *fiber.Ctx) error {
	format := c.Params("format")
	export, err := ctrl.Service.ExportTasks(c.UserContext(), format)
	if err != nil {
		if errors.Is(err, ErrUnsupportedExportFormat) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Unsupported export format: %s", format),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return sendAttachment(c, export)
}

// Template godoc
// @Summary Download the import template
// @Tags tasks
// @Produce text/csv
// @Success 200 {file} file
// @Router /api/implementation-tasks/template/csv [get]
func (ctrl *TaskController) Template(c *fiber.Ctx) error {
	export, err := ctrl.Service.Template()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return sendAttachment(c, export)
}

func sendAttachment(c *fiber.Ctx, export *Export) error {
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.FileName))
	return c.Send(export.Data)
}
