package task

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"go-fwpm/internal/common/models"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var ErrUnsupportedExportFormat = errors.New("unsupported export format")

type TaskService interface {
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
	CreateTask(ctx context.Context, values map[models.FieldName]string) (*Task, error)
	Summary(ctx context.Context) (*TaskSummary, error)
	ExportTasks(ctx context.Context, format string) (*Export, error)
	Template() (*Export, error)
}

type TaskServiceImpl struct {
	repo      TaskRepository
	validator *RecordValidator
	logger    *zap.Logger
}

func NewTaskService(repo TaskRepository, validator *RecordValidator, logger *zap.Logger) TaskService {
	return &TaskServiceImpl{repo: repo, validator: validator, logger: logger}
}

func (s *TaskServiceImpl) ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	if filter.Category != "" {
		if c, ok := models.CanonicalCategory(filter.Category); ok {
			filter.Category = c
		}
	}
	if filter.Status != "" {
		if st, ok := models.CanonicalStatus(filter.Status); ok {
			filter.Status = st
		}
	}
	return s.repo.List(ctx, filter)
}

// CreateTask is manual entry; it applies the same rules as an import row
func (s *TaskServiceImpl) CreateTask(ctx context.Context, values map[models.FieldName]string) (*Task, error) {
	t, ferrs := s.validator.Normalize(values)
	if len(ferrs) > 0 {
		return nil, ferrs
	}
	if err := s.repo.Create(ctx, &t); err != nil {
		s.logger.Error("Failed to create task", zap.Error(err))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	s.logger.Info("Task created", zap.String("task_id", t.ID), zap.String("node_id", t.NodeID))
	return &t, nil
}

func (s *TaskServiceImpl) Summary(ctx context.Context) (*TaskSummary, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	summary := &TaskSummary{ByStatus: counts}
	for status, n := range counts {
		summary.Total += n
		switch status {
		case models.StatusDone:
			summary.Completed += n
		case models.StatusDoneWithErrors:
			summary.Errors += n
		case models.StatusPlanned, models.StatusOutstanding:
			summary.Pending += n
		}
	}
	return summary, nil
}

func (s *TaskServiceImpl) ExportTasks(ctx context.Context, format string) (*Export, error) {
	format = strings.ToLower(format)
	if format != "csv" && format != "xlsx" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExportFormat, format)
	}

	tasks, err := s.repo.List(ctx, TaskFilter{SortBy: "createdAt", SortOrder: "asc"})
	if err != nil {
		return nil, err
	}

	columns := models.TemplateFields()
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = t.Value(col)
		}
		rows = append(rows, row)
	}

	s.logger.Info("Exporting tasks", zap.String("format", format), zap.Int("rows", len(rows)))

	if format == "xlsx" {
		data, err := generateExcel(columns, rows)
		if err != nil {
			return nil, err
		}
		return &Export{
			Data:        data,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			FileName:    "implementation_tasks.xlsx",
		}, nil
	}

	data, err := generateCSV(columns, rows)
	if err != nil {
		return nil, err
	}
	return &Export{Data: data, ContentType: "text/csv", FileName: "implementation_tasks.csv"}, nil
}

// Template is the canonical header row followed by one example row
func (s *TaskServiceImpl) Template() (*Export, error) {
	example := []string{
		models.CategoryRetunes, "SITE_A", "NODE_001", "jdoe", models.StatusPlanned,
		"Example task", "/scripts/site_a/retune.mos", "2024-01-15", "2024-01-15",
	}
	data, err := generateCSV(models.TemplateFields(), [][]string{example})
	if err != nil {
		return nil, err
	}
	return &Export{Data: data, ContentType: "text/csv", FileName: "implementation_tasks_template.csv"}, nil
}

func generateCSV(columns []models.FieldName, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = string(c)
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func generateExcel(columns []models.FieldName, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Tasks"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, string(col))
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range rows {
		for colIdx, v := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 20)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
