package task

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTaskApp(repo *MockTaskRepo) *fiber.App {
	ctrl := NewTaskController(NewTaskService(repo, NewRecordValidator(), zap.NewNop()))
	app := fiber.New()
	app.Get("/tasks", ctrl.ListTasks)
	app.Post("/tasks", ctrl.CreateTask)
	app.Get("/tasks/summary", ctrl.Summary)
	app.Get("/tasks/export/:format", ctrl.Export)
	app.Get("/tasks/template/csv", ctrl.Template)
	return app
}

func TestExportEndpoint(t *testing.T) {
	app := newTaskApp(seededRepo())

	resp, err := app.Test(httptest.NewRequest("GET", "/tasks/export/csv", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "implementation_tasks.csv")

	resp, err = app.Test(httptest.NewRequest("GET", "/tasks/export/pdf", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Unsupported export format: pdf", body["error"])
}

func TestTemplateEndpoint(t *testing.T) {
	app := newTaskApp(&MockTaskRepo{})

	resp, err := app.Test(httptest.NewRequest("GET", "/tasks/template/csv", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	data, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(data), "category,siteName,nodeId,implementor,status,"))
}

func TestCreateTaskEndpoint(t *testing.T) {
	repo := &MockTaskRepo{}
	app := newTaskApp(repo)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", "{", fiber.StatusBadRequest},
		{"missing fields", `{"category":"Retunes"}`, fiber.StatusBadRequest},
		{"valid", `{"category":"Retunes","siteName":"A","nodeId":"N","implementor":"x","status":"Done"}`, fiber.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/tasks", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
	assert.Len(t, repo.Tasks, 1)
}

func TestSummaryEndpoint(t *testing.T) {
	app := newTaskApp(seededRepo())

	resp, err := app.Test(httptest.NewRequest("GET", "/tasks/summary", nil))
	require.NoError(t, err)

	var summary TaskSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, int64(3), summary.Total)
}
