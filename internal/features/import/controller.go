package import_feature

import (
	"encoding/json"
	"errors"
	"io"

	"go-fwpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ImportController struct {
	ImportService ImportService
}

func NewImportController(importService ImportService) *ImportController {
	return &ImportController{ImportService: importService}
}

// readUpload pulls the file and mapping out of the multipart body
func readUpload(ctx *fiber.Ctx) (Upload, error) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return Upload{}, errors.New("no file provided")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Upload{}, errors.New("failed to open file")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return Upload{}, errors.New("failed to read file")
	}

	mapping, err := DecodeMapping(ctx.FormValue("mappings"))
	if err != nil {
		return Upload{}, err
	}

	return Upload{FileName: fileHeader.Filename, Content: content, Mapping: mapping}, nil
}

// ValidateImport godoc
// @Summary Validate an import file
// @Description Checks the file and column mapping without storing anything
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Param mappings formData string true "JSON object header -> field"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/implementation-tasks/validate_import [post]
func (c *ImportController) ValidateImport(ctx *fiber.Ctx) error {
	upload, err := readUpload(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := c.ImportService.Validate(ctx.UserContext(), upload)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if !result.Valid() {
		return ctx.JSON(fiber.Map{"valid": false, "errors": result.Errors})
	}
	return ctx.JSON(fiber.Map{"valid": true, "preview": result.Preview, "total_rows": result.TotalRows})
}

// ImportTasks godoc
// @Summary Commit an import file
// @Description Stores the valid rows; retries with the same import_id are idempotent
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Param mappings formData string true "JSON object header -> field"
// @Param import_id formData string false "Client generated UUID"
// @Param force formData bool false "Commit despite known validation errors"
// @Param known_errors formData string false "JSON array of the errors being overridden"
// @Success 200 {object} CommitResult
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/implementation-tasks/import_tasks [post]
func (c *ImportController) ImportTasks(ctx *fiber.Ctx) error {
	upload, err := readUpload(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	opts := CommitOptions{
		ImportID: ctx.FormValue("import_id"),
		Force:    ctx.FormValue("force") == "true",
		UserID:   middleware.UserID(ctx),
	}
	if raw := ctx.FormValue("known_errors"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.KnownErrors); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "known_errors must be a JSON array of strings"})
		}
	}

	result, err := c.ImportService.Commit(ctx.UserContext(), upload, opts)
	switch {
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrInvalidImportID):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrImportInProgress):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(result)
}

// GetImport godoc
// @Summary Get an import attempt
// @Tags import
// @Produce json
// @Param id path string true "Import ID"
// @Success 200 {object} ImportAttempt
// @Failure 404 {object} map[string]interface{}
// @Router /api/implementation-tasks/imports/{id} [get]
func (c *ImportController) GetImport(ctx *fiber.Ctx) error {
	attempt, err := c.ImportService.GetAttempt(ctx.UserContext(), ctx.Params("id"))
	if errors.Is(err, ErrAttemptNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(attempt)
}
