package task

import (
	"context"
	"fmt"
)

// MockTaskRepo keeps tasks in memory and enforces the (import id, row) uniqueness
type MockTaskRepo struct {
	Tasks     []Task
	InsertErr error
	ListErr   error
}

func (m *MockTaskRepo) List(ctx context.Context, filter TaskFilter) ([]Task, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []Task
	for _, t := range m.Tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *MockTaskRepo) Create(ctx context.Context, task *Task) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	task.ID = fmt.Sprintf("%d", len(m.Tasks)+1)
	m.Tasks = append(m.Tasks, *task)
	return nil
}

func (m *MockTaskRepo) InsertBatch(ctx context.Context, tasks []Task) (int, error) {
	if m.InsertErr != nil {
		return 0, m.InsertErr
	}
	n := 0
	for _, t := range tasks {
		if m.exists(t.ImportID, t.ImportRow) {
			continue
		}
		m.Tasks = append(m.Tasks, t)
		n++
	}
	return n, nil
}

func (m *MockTaskRepo) exists(importID string, row int) bool {
	if importID == "" {
		return false
	}
	for _, t := range m.Tasks {
		if t.ImportID == importID && t.ImportRow == row {
			return true
		}
	}
	return false
}

func (m *MockTaskRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, t := range m.Tasks {
		counts[t.Status]++
	}
	return counts, nil
}

func (m *MockTaskRepo) EnsureIndexes(ctx context.Context) error { return nil }
